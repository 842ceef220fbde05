package models

// All lists every table owned by the points engine, in migration order.
func All() []interface{} {
	return []interface{}{
		&UserProfile{},
		&Transaction{},
		&LeaderboardEntry{},
		&PlatformStats{},
		&Achievement{},
		&UserAchievement{},
		&Milestone{},
	}
}
