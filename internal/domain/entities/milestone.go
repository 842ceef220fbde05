package entities

import "time"

// MilestoneType selects which platform counter a milestone tracks
type MilestoneType string

const (
	MilestoneTypeUsers        MilestoneType = "users"
	MilestoneTypeTransactions MilestoneType = "transactions"
	MilestoneTypePoints       MilestoneType = "points"
)

// Milestone tracks platform-wide progress towards a target
type Milestone struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Type      MilestoneType `json:"type"`
	Target    int64         `json:"target"`
	Current   int64         `json:"current"`
	Completed bool          `json:"completed"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
