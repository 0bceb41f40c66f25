package keeper

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the goalkeeper tuning. Distances are in meters, speeds in
// m/s or °/s.
type Config struct {
	// === Field ===
	// Full extents of the area the keeper may move in, centered on the
	// power-on pose.
	FieldWidth float64 `json:"field_width"`
	FieldDepth float64 `json:"field_depth"`

	// === Speeds ===
	MaxSpeed  float64 `json:"max_speed"`  // lateral clamp and kick speed
	TurnSpeed float64 `json:"turn_speed"` // re-centering rotation

	// === Thresholds ===
	EnterDistance float64 `json:"enter_distance"` // start chasing below this
	ExitDistance  float64 `json:"exit_distance"`  // give up above this
	KickDistance  float64 `json:"kick_distance"`  // commit to a kick below this
	Deadband      float64 `json:"deadband"`       // lateral speeds below this round to 0

	// === Timeouts ===
	BallTimeout      time.Duration `json:"ball_timeout"`
	PositionTimeout  time.Duration `json:"position_timeout"`
	HitPause         time.Duration `json:"hit_pause"`
	RecenterInterval time.Duration `json:"recenter_interval"`

	// === Re-centering tolerance ===
	DistanceEps float64 `json:"distance_eps"`
	DegreeEps   float64 `json:"degree_eps"`

	// === Lateral PID ===
	Kp float64 `json:"kp"`
	Ki float64 `json:"ki"`
	Kd float64 `json:"kd"`

	// TickInterval is the PID sample time; match the Mind rate.
	TickInterval time.Duration `json:"tick_interval"`

	// SuccessArmor is the armor index whose hit means the ball was cleared.
	SuccessArmor int `json:"success_armor"`

	// GimbalPitch is where the camera looks while keeping goal.
	GimbalPitch float64 `json:"gimbal_pitch"`
}

// DefaultConfig returns tuning for a 0.5 m × 0.5 m goal area.
func DefaultConfig() Config {
	return Config{
		FieldWidth:       0.5,
		FieldDepth:       0.5,
		MaxSpeed:         0.4,
		TurnSpeed:        60,
		EnterDistance:    1.2,
		ExitDistance:     1.4,
		KickDistance:     0.3,
		Deadband:         0.1,
		BallTimeout:      3 * time.Second,
		PositionTimeout:  300 * time.Millisecond,
		HitPause:         time.Second,
		RecenterInterval: 3 * time.Second,
		DistanceEps:      0.01,
		DegreeEps:        2,
		Kp:               -10,
		Ki:               -0.5,
		Kd:               -1,
		TickInterval:     time.Second / 30,
		SuccessArmor:     2,
		GimbalPitch:      -10,
	}
}

// MaxX is the allowed forward/backward excursion.
func (c Config) MaxX() float64 { return c.FieldDepth / 2 }

// MaxY is the allowed sideways excursion.
func (c Config) MaxY() float64 { return c.FieldWidth / 2 }

// Validate checks the configuration.
func (c Config) Validate() error {
	var errs []error
	if c.FieldWidth <= 0 || c.FieldDepth <= 0 {
		errs = append(errs, fmt.Errorf("field %vx%v must be positive", c.FieldWidth, c.FieldDepth))
	}
	if c.MaxSpeed <= 0 || c.MaxSpeed > 3.5 {
		errs = append(errs, fmt.Errorf("max speed %v must be in (0, 3.5]", c.MaxSpeed))
	}
	if c.TurnSpeed <= 0 || c.TurnSpeed > 600 {
		errs = append(errs, fmt.Errorf("turn speed %v must be in (0, 600]", c.TurnSpeed))
	}
	if c.ExitDistance <= c.EnterDistance {
		errs = append(errs, fmt.Errorf("exit distance %v must exceed enter distance %v", c.ExitDistance, c.EnterDistance))
	}
	if c.KickDistance <= 0 || c.KickDistance >= c.EnterDistance {
		errs = append(errs, fmt.Errorf("kick distance %v must be in (0, %v)", c.KickDistance, c.EnterDistance))
	}
	if c.Deadband < 0 || c.Deadband >= c.MaxSpeed {
		errs = append(errs, fmt.Errorf("deadband %v must be in [0, %v)", c.Deadband, c.MaxSpeed))
	}
	if c.BallTimeout <= 0 || c.PositionTimeout <= 0 || c.RecenterInterval <= 0 || c.HitPause < 0 {
		errs = append(errs, errors.New("timeouts must be positive"))
	}
	if c.TickInterval <= 0 {
		errs = append(errs, errors.New("tick interval must be positive"))
	}
	return errors.Join(errs...)
}
