package entities

import "time"

// LeaderboardEntry is the denormalized per-user ranking record
type LeaderboardEntry struct {
	UserAddress  string    `json:"userAddress"`
	Points       int64     `json:"points"`
	Rank         int       `json:"rank"`
	Tier         Tier      `json:"tier"`
	Transactions int64     `json:"transactions"`
	Balance      float64   `json:"balance"`
	LastUpdated  time.Time `json:"lastUpdated"`
}

// LeaderboardMismatch describes an entry that disagrees with its profile
type LeaderboardMismatch struct {
	Address       string `json:"address"`
	EntryPoints   int64  `json:"entryPoints"`
	ProfilePoints int64  `json:"profilePoints"`
	EntryTier     Tier   `json:"entryTier"`
	ProfileTier   Tier   `json:"profileTier"`
}

// LeaderboardDiagnosis is the read-only consistency report
type LeaderboardDiagnosis struct {
	TotalProfiles int                   `json:"totalProfiles"`
	TotalEntries  int                   `json:"totalEntries"`
	Mismatched    []LeaderboardMismatch `json:"mismatched"`
	Missing       []string              `json:"missing"`
	// IndexedEntries is the rank index size, nil when no index is configured
	IndexedEntries *int64 `json:"indexedEntries,omitempty"`
}

// LeaderboardSyncResult summarises an admin full sync
type LeaderboardSyncResult struct {
	Checked  int `json:"checked"`
	Repaired int `json:"repaired"`
}
