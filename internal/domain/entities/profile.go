package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Tier is the ordinal rank label derived from cumulative points
type Tier string

const (
	TierBronze   Tier = "Bronze"
	TierSilver   Tier = "Silver"
	TierGold     Tier = "Gold"
	TierPlatinum Tier = "Platinum"
	TierDiamond  Tier = "Diamond"
)

// UserProfile represents a wallet's points profile
type UserProfile struct {
	Address            string      `json:"address"`
	Fid                null.Int64  `json:"fid"`
	Username           null.String `json:"username"`
	DisplayName        null.String `json:"displayName"`
	Avatar             null.String `json:"avatar"`
	Tier               Tier        `json:"tier"`
	TotalPoints        int64       `json:"totalPoints"`
	CurrentRank        int         `json:"currentRank"`
	TotalTransactions  int64       `json:"totalTransactions"`
	PtradoorBalance    float64     `json:"ptradoorBalance"`
	PtradoorEarned     float64     `json:"ptradoorEarned"`
	WeeklyStreak       int         `json:"weeklyStreak"`
	Referrals          int         `json:"referrals"`
	Achievements       int         `json:"achievements"`
	HasMinted          bool        `json:"hasMinted"`
	Initial            bool        `json:"initial"`
	LastProcessedBlock uint64      `json:"lastProcessedBlock"`
	JoinDate           time.Time   `json:"joinDate"`
	LastActive         time.Time   `json:"lastActive"`
	CreatedAt          time.Time   `json:"createdAt"`
	UpdatedAt          time.Time   `json:"updatedAt"`
}

// Identity is the social identity supplied by the mini-app host
type Identity struct {
	Fid         null.Int64  `json:"fid"`
	Username    null.String `json:"username"`
	DisplayName null.String `json:"displayName"`
	Avatar      null.String `json:"avatar"`
}

// ApplyTo copies the identity fields that are set onto the profile
func (i Identity) ApplyTo(p *UserProfile) {
	if i.Fid.Valid {
		p.Fid = i.Fid
	}
	if i.Username.Valid {
		p.Username = i.Username
	}
	if i.DisplayName.Valid {
		p.DisplayName = i.DisplayName
	}
	if i.Avatar.Valid {
		p.Avatar = i.Avatar
	}
}

// ProfileUpdate carries the partial fields a caller may change on an initialized profile
type ProfileUpdate struct {
	Identity
	HasMinted *bool `json:"hasMinted,omitempty"`
	Referrals *int  `json:"referrals,omitempty"`
}

// Public drops the fields only an operator may set
func (u ProfileUpdate) Public() ProfileUpdate {
	return ProfileUpdate{Identity: u.Identity}
}

// UpsertProfileInput is the request body for PUT /profiles/:address
type UpsertProfileInput struct {
	Update   ProfileUpdate `json:"update"`
	Identity Identity      `json:"identity"`
}

// TierProgress describes progress towards the next tier
type TierProgress struct {
	Tier          Tier    `json:"tier"`
	NextTier      Tier    `json:"nextTier,omitempty"`
	Points        int64   `json:"points"`
	PointsToNext  int64   `json:"pointsToNext"`
	ProgressPct   float64 `json:"progressPct"`
	CurrentFloor  int64   `json:"currentFloor"`
	NextThreshold int64   `json:"nextThreshold,omitempty"`
	IsHighestTier bool    `json:"isHighestTier"`
}
