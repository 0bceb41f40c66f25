package keeper

import (
	"time"

	"github.com/teslashibe/go-robomaster/pkg/geometry"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
)

// Snapshot is the fused state after one tick.
type Snapshot struct {
	Time     time.Time                  `json:"time"`
	Tick     uint64                     `json:"tick"`
	State    string                     `json:"state"`
	Ball     *geometry.Ball             `json:"ball,omitempty"`
	Position robomaster.ChassisPosition `json:"position"`
	Moving   bool                       `json:"moving"`
	Paused   bool                       `json:"paused"`

	// Ages in milliseconds since each source last reported; -1 if never.
	VisionAge   float64 `json:"vision_age_ms"`
	BallAge     float64 `json:"ball_age_ms"`
	PositionAge float64 `json:"position_age_ms"`
	HitAge      float64 `json:"hit_age_ms"`
}

// Sink receives a Snapshot every tick. It must not block.
type Sink func(Snapshot)

func age(now, seen time.Time) float64 {
	if seen.IsZero() {
		return -1
	}
	return float64(now.Sub(seen)) / float64(time.Millisecond)
}
