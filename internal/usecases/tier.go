package usecases

import "ptradoor.backend/internal/domain/entities"

type tierStep struct {
	tier  entities.Tier
	floor int64
}

// tierSteps is ordered by floor ascending and is the only place tier boundaries live
var tierSteps = []tierStep{
	{entities.TierBronze, 0},
	{entities.TierSilver, 1000},
	{entities.TierGold, 5000},
	{entities.TierPlatinum, 15000},
	{entities.TierDiamond, 50000},
}

// ResolveTier maps cumulative points to a tier
func ResolveTier(points int64) entities.Tier {
	return tierSteps[tierIndex(points)].tier
}

// ResolveTierProgress describes where points sit between the current and the next tier
func ResolveTierProgress(points int64) entities.TierProgress {
	i := tierIndex(points)
	current := tierSteps[i]

	progress := entities.TierProgress{
		Tier:         current.tier,
		Points:       points,
		CurrentFloor: current.floor,
	}
	if i == len(tierSteps)-1 {
		progress.IsHighestTier = true
		progress.ProgressPct = 100
		return progress
	}

	next := tierSteps[i+1]
	progress.NextTier = next.tier
	progress.NextThreshold = next.floor
	progress.PointsToNext = next.floor - points

	earned := points - current.floor
	if earned < 0 {
		earned = 0
	}
	progress.ProgressPct = float64(earned) / float64(next.floor-current.floor) * 100
	return progress
}

func tierIndex(points int64) int {
	for i := len(tierSteps) - 1; i > 0; i-- {
		if points >= tierSteps[i].floor {
			return i
		}
	}
	return 0
}
