package services

import (
	"math"

	"github.com/ecotrail/api-go/types"
)

// LevelFor returns floor(sqrt(points/100)), never below 1.
func LevelFor(points int) int {
	if points <= 0 {
		return 1
	}
	level := int(math.Floor(math.Sqrt(float64(points) / types.PointsPerLevelUnit)))
	if level < 1 {
		return 1
	}
	return level
}
