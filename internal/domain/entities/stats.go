package entities

import "time"

// GlobalStatsID is the key of the singleton stats document
const GlobalStatsID = "global"

// PlatformStats is the singleton aggregate across all users
type PlatformStats struct {
	ID                string    `json:"-"`
	TotalUsers        int64     `json:"totalUsers"`
	TotalTransactions int64     `json:"totalTransactions"`
	TotalPoints       int64     `json:"totalPoints"`
	TotalSupply       float64   `json:"totalSupply"`
	CirculatingSupply float64   `json:"circulatingSupply"`
	LastUpdated       time.Time `json:"lastUpdated"`
}

// StatsUpdate is a partial update; nil fields are left untouched
type StatsUpdate struct {
	TotalUsers        *int64   `json:"totalUsers,omitempty"`
	TotalTransactions *int64   `json:"totalTransactions,omitempty"`
	TotalPoints       *int64   `json:"totalPoints,omitempty"`
	TotalSupply       *float64 `json:"totalSupply,omitempty"`
	CirculatingSupply *float64 `json:"circulatingSupply,omitempty"`
}

// StatsDelta is applied with atomic increments
type StatsDelta struct {
	Users        int64
	Transactions int64
	Points       int64
}

// IsZero reports whether the delta changes nothing
func (d StatsDelta) IsZero() bool {
	return d.Users == 0 && d.Transactions == 0 && d.Points == 0
}
