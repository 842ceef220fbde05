package entities

import (
	"fmt"
	"time"

	domainerrors "ptradoor.backend/internal/domain/errors"
)

// Rarity of an achievement template
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// RequirementKind is the closed set of profile fields an achievement can gate on
type RequirementKind int

const (
	RequirementTransactions RequirementKind = iota + 1
	RequirementPoints
	RequirementStreak
	RequirementBalance
	RequirementReferrals
)

var requirementKindNames = map[RequirementKind]string{
	RequirementTransactions: "transactions",
	RequirementPoints:       "points",
	RequirementStreak:       "streak",
	RequirementBalance:      "balance",
	RequirementReferrals:    "referrals",
}

func (k RequirementKind) String() string {
	if name, ok := requirementKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("RequirementKind(%d)", int(k))
}

// ParseRequirementKind converts a stored requirement type into its kind
func ParseRequirementKind(s string) (RequirementKind, error) {
	for kind, name := range requirementKindNames {
		if name == s {
			return kind, nil
		}
	}
	return 0, domainerrors.Validation("unknown requirement type %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (k RequirementKind) MarshalText() ([]byte, error) {
	if _, ok := requirementKindNames[k]; !ok {
		return nil, fmt.Errorf("unknown requirement kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (k *RequirementKind) UnmarshalText(text []byte) error {
	parsed, err := ParseRequirementKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Requirement is a threshold comparison against one profile field
type Requirement struct {
	Kind      RequirementKind `json:"type"`
	Threshold float64         `json:"threshold"`
}

// Current returns the profile value the requirement compares against
func (r Requirement) Current(p *UserProfile) (float64, error) {
	switch r.Kind {
	case RequirementTransactions:
		return float64(p.TotalTransactions), nil
	case RequirementPoints:
		return float64(p.TotalPoints), nil
	case RequirementStreak:
		return float64(p.WeeklyStreak), nil
	case RequirementBalance:
		return p.PtradoorBalance, nil
	case RequirementReferrals:
		return float64(p.Referrals), nil
	default:
		return 0, domainerrors.Validation("unknown requirement kind %d", int(r.Kind))
	}
}

// SatisfiedBy reports whether the profile meets the threshold
func (r Requirement) SatisfiedBy(p *UserProfile) (bool, error) {
	current, err := r.Current(p)
	if err != nil {
		return false, err
	}
	return current >= r.Threshold, nil
}

// Achievement is an unlockable template
type Achievement struct {
	ID           string      `json:"id"`
	Name         string      `json:"name"`
	Description  string      `json:"description"`
	Rarity       Rarity      `json:"rarity"`
	Requirement  Requirement `json:"requirement"`
	PointsReward int64       `json:"pointsReward"`
	Active       bool        `json:"active"`
}

// UserAchievement records a one-time unlock keyed by (address, achievementId)
type UserAchievement struct {
	UserAddress   string    `json:"userAddress"`
	AchievementID string    `json:"achievementId"`
	PointsAwarded int64     `json:"pointsAwarded"`
	UnlockedAt    time.Time `json:"unlockedAt"`
}
