package keeper

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/felixge/pidctrl"

	"github.com/teslashibe/go-robomaster/internal/log"
	"github.com/teslashibe/go-robomaster/pkg/geometry"
	"github.com/teslashibe/go-robomaster/pkg/robomaster"
	"github.com/teslashibe/go-robomaster/pkg/worker"
)

// Robot is the subset of the command channel the keeper drives.
// *robomaster.Commander satisfies it.
type Robot interface {
	RobotMode(mode string) error
	GimbalMoveTo(pitch, yaw, speedPitch, speedYaw float64) error
	ChassisSpeed(x, y, z float64) error
	ChassisWheel(w1, w2, w3, w4 float64) error
	ChassisMove(x, y, z, speedXY, speedZ float64) error
	LEDControl(group, effect string, r, g, b int) error
}

var _ Robot = (*robomaster.Commander)(nil)

// Inputs are the queues the keeper drains every tick.
type Inputs struct {
	Vision *worker.Queue[*geometry.Ball]
	Push   *worker.Queue[robomaster.Record]
	Event  *worker.Queue[robomaster.Record]
}

// Option configures a Keeper.
type Option func(*Keeper)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(k *Keeper) { k.now = now }
}

// WithSink publishes a Snapshot after every tick.
func WithSink(s Sink) Option {
	return func(k *Keeper) { k.sink = s }
}

type indicator struct {
	effect  string
	r, g, b int
}

// Keeper is the goalkeeper controller. Handle runs one tick; it never
// blocks on its inputs.
type Keeper struct {
	cfg   Config
	robot Robot
	in    Inputs
	now   func() time.Time
	sink  Sink
	log   *slog.Logger

	state State
	pid   *pidctrl.PIDController
	tick  uint64

	// primed is false until the controller has seen its first sample.
	primed bool

	// Fused sensor state.
	position      robomaster.ChassisPosition
	positionSeen  time.Time
	ball          geometry.Ball
	hasBall       bool
	ballSeen      time.Time
	visionUpdated time.Time
	hit           *robomaster.ArmorHitEvent
	hitSeen       time.Time

	// Actuation bookkeeping.
	moving       bool
	leds         map[string]indicator
	lastRecenter time.Time
	pauseUntil   time.Time
	pending      *Event
}

// New prepares the robot (chassis-lead mode, camera pitched at the field)
// and enters Watching.
func New(cfg Config, robot Robot, in Inputs, opts ...Option) (*Keeper, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("keeper config: %w", err)
	}
	k := &Keeper{
		cfg:   cfg,
		robot: robot,
		in:    in,
		now:   time.Now,
		log:   log.With("component", "keeper"),
		state: Watching,
		leds:  make(map[string]indicator),
	}
	for _, opt := range opts {
		opt(k)
	}

	if err := robot.RobotMode(robomaster.ModeChassisLead); err != nil {
		return nil, err
	}
	if err := robot.GimbalMoveTo(cfg.GimbalPitch, 0, 0, 0); err != nil {
		return nil, err
	}
	if err := k.enter(k.now()); err != nil {
		return nil, err
	}
	return k, nil
}

// State returns the current state.
func (k *Keeper) State() State { return k.state }

// Handle runs one tick: drain every input, then act for the current state.
func (k *Keeper) Handle(ctx context.Context) error {
	now := k.now()
	k.tick++

	if err := k.drain(now); err != nil {
		return err
	}

	var err error
	switch k.state {
	case Watching:
		err = k.watch(now)
	case Chasing:
		err = k.chase(now)
	case Kicking:
		err = k.kick(now)
	default:
		err = fmt.Errorf("keeper: unknown state %d", k.state)
	}
	if err != nil {
		return err
	}

	if k.sink != nil {
		k.sink(k.Snapshot())
	}
	return nil
}

// Close stops the wheels.
func (k *Keeper) Close() error {
	return k.robot.ChassisWheel(0, 0, 0, 0)
}

// drain consumes everything buffered on each input. The latest value per
// source wins and its timestamp is the tick time.
func (k *Keeper) drain(now time.Time) error {
	k.hit = nil

	if _, err := worker.Drain(k.in.Vision, func(b *geometry.Ball) error {
		k.visionUpdated = now
		if b != nil {
			k.ball, k.hasBall, k.ballSeen = *b, true, now
		}
		return nil
	}); err != nil {
		return err
	}

	if _, err := worker.Drain(k.in.Push, func(r robomaster.Record) error {
		switch r := r.(type) {
		case robomaster.ChassisPosition:
			k.position.X, k.position.Y = r.X, r.Y
			k.positionSeen = now
		case robomaster.ChassisAttitude:
			k.position.Z = r.Yaw
		default:
			return fmt.Errorf("keeper: unexpected push record %T", r)
		}
		return nil
	}); err != nil {
		return err
	}

	_, err := worker.Drain(k.in.Event, func(r robomaster.Record) error {
		switch r := r.(type) {
		case robomaster.ArmorHitEvent:
			k.hit, k.hitSeen = &r, now
		case robomaster.SoundEvent:
			k.log.Debug("ignoring sound event", "count", r.Count)
		default:
			return fmt.Errorf("keeper: unexpected event record %T", r)
		}
		return nil
	})
	return err
}

// fire applies event e. Illegal pairs are ignored.
func (k *Keeper) fire(e Event, now time.Time) error {
	to, ok := Transition(k.state, e)
	if !ok {
		return nil
	}
	k.log.Info("transition", "from", k.state, "to", to, "event", e)
	k.state = to
	return k.enter(now)
}

// enter runs the entry actions of the current state.
func (k *Keeper) enter(now time.Time) error {
	switch k.state {
	case Watching:
		if err := k.recenter(now); err != nil {
			return err
		}
		return k.indicate(robomaster.LEDAll, robomaster.LEDEffectPulse, 0, 255, 0)
	case Chasing:
		k.resetPID()
		return k.indicate(robomaster.LEDAll, robomaster.LEDEffectSolid, 0, 0, 255)
	case Kicking:
		k.resetPID()
		// Back off before driving through the ball.
		if err := k.robot.ChassisMove(-k.cfg.MaxX()*2/3, 0, 0, k.cfg.MaxSpeed, 0); err != nil {
			return err
		}
		k.moving = true
		return k.indicate(robomaster.LEDAll, robomaster.LEDEffectSolid, 255, 255, 255)
	}
	return nil
}

func (k *Keeper) watch(now time.Time) error {
	if now.Sub(k.lastRecenter) > k.cfg.RecenterInterval {
		if err := k.recenter(now); err != nil {
			return err
		}
	}

	if !k.hasBall || now.Sub(k.ballSeen) > k.cfg.BallTimeout {
		return nil
	}
	if k.ball.Forward < k.cfg.EnterDistance {
		return k.fire(BallNear, now)
	}
	return nil
}

func (k *Keeper) chase(now time.Time) error {
	ok, err := k.check(now)
	if !ok || err != nil {
		return err
	}

	if k.ball.Forward < k.cfg.KickDistance {
		return k.fire(Commit, now)
	}
	vy := k.lateral()
	if vy == 0 {
		return k.stop()
	}
	k.moving = true
	return k.robot.ChassisSpeed(0, vy, 0)
}

func (k *Keeper) kick(now time.Time) error {
	ok, err := k.check(now)
	if !ok || err != nil {
		return err
	}

	k.moving = true
	return k.robot.ChassisSpeed(k.cfg.MaxSpeed, k.lateral(), 0)
}

// check runs the guards for Chasing and Kicking in priority order. It
// reports whether the control law may run this tick.
func (k *Keeper) check(now time.Time) (bool, error) {
	if k.hit != nil {
		// Always sent, even if already stopped.
		if err := k.robot.ChassisWheel(0, 0, 0, 0); err != nil {
			return false, err
		}
		k.moving = false

		e := Fault
		if k.hit.Index == k.cfg.SuccessArmor {
			e = Scored
		}
		k.pending = &e
		k.pauseUntil = now.Add(k.cfg.HitPause)
		k.log.Info("armor hit", "index", k.hit.Index, "then", e)
		return false, nil
	}

	if k.pending != nil {
		if now.Before(k.pauseUntil) {
			return false, nil
		}
		e := *k.pending
		k.pending = nil
		return false, k.fire(e, now)
	}

	if !k.hasBall || now.Sub(k.ballSeen) > k.cfg.BallTimeout {
		return false, k.fallback(now)
	}
	if k.ball.Forward > k.cfg.ExitDistance {
		return false, k.fallback(now)
	}
	if k.positionSeen.IsZero() || now.Sub(k.positionSeen) > k.cfg.PositionTimeout {
		return false, k.fallback(now)
	}

	switch maxX, maxY := k.cfg.MaxX(), k.cfg.MaxY(); {
	case math.Abs(k.position.X) > maxX:
		return false, k.outOfBounds(now, robomaster.LEDBottomFront, robomaster.LEDBottomBack)
	case k.position.Y > maxY:
		return false, k.outOfBounds(now, robomaster.LEDBottomRight)
	case k.position.Y < -maxY:
		return false, k.outOfBounds(now, robomaster.LEDBottomLeft)
	}
	return true, nil
}

// fallback stops and returns to the origin state.
func (k *Keeper) fallback(now time.Time) error {
	if err := k.stop(); err != nil {
		return err
	}
	return k.fire(Fault, now)
}

func (k *Keeper) outOfBounds(now time.Time, groups ...string) error {
	if err := k.fallback(now); err != nil {
		return err
	}
	for _, g := range groups {
		if err := k.indicate(g, robomaster.LEDEffectBlink, 0, 0, 255); err != nil {
			return err
		}
	}
	return nil
}

// resetPID replaces the lateral controller, dropping integral and
// derivative history.
func (k *Keeper) resetPID() {
	k.pid = pidctrl.NewPIDController(k.cfg.Kp, k.cfg.Ki, k.cfg.Kd).
		SetOutputLimits(-k.cfg.MaxSpeed, k.cfg.MaxSpeed).
		Set(0)
	k.primed = false
}

// lateral runs the PID on the ball's lateral offset and applies the deadband.
// The first sample after a reset only seeds the controller (zero dt), so it
// is proportional alone.
func (k *Keeper) lateral() float64 {
	dt := k.cfg.TickInterval
	if !k.primed {
		dt, k.primed = 0, true
	}
	vy := k.pid.UpdateDuration(k.ball.Lateral, dt)
	if math.Abs(vy) < k.cfg.Deadband {
		return 0
	}
	return vy
}

// stop zeroes the wheels unless the last motion command already did.
func (k *Keeper) stop() error {
	if !k.moving {
		return nil
	}
	if err := k.robot.ChassisWheel(0, 0, 0, 0); err != nil {
		return err
	}
	k.moving = false
	return nil
}

// recenter moves back to the power-on pose when drifted beyond tolerance.
func (k *Keeper) recenter(now time.Time) error {
	k.lastRecenter = now
	dx := snap(k.position.X, k.cfg.DistanceEps)
	dy := snap(k.position.Y, k.cfg.DistanceEps)
	dz := snap(k.position.Z, k.cfg.DegreeEps)
	if dx == 0 && dy == 0 && dz == 0 {
		return nil
	}
	if err := k.robot.ChassisMove(-dx, -dy, -dz, k.cfg.MaxSpeed, k.cfg.TurnSpeed); err != nil {
		return err
	}
	k.moving = true
	return nil
}

func snap(v, eps float64) float64 {
	if math.Abs(v) < eps {
		return 0
	}
	return v
}

// indicate sets an LED group unless it already shows the same thing.
func (k *Keeper) indicate(group, effect string, r, g, b int) error {
	want := indicator{effect, r, g, b}
	if have, ok := k.leds[group]; ok && have == want {
		return nil
	}
	if err := k.robot.LEDControl(group, effect, r, g, b); err != nil {
		return err
	}
	if group == robomaster.LEDAll {
		clear(k.leds)
	} else {
		delete(k.leds, robomaster.LEDAll)
	}
	k.leds[group] = want
	return nil
}

// Snapshot returns the fused state as of the last tick.
func (k *Keeper) Snapshot() Snapshot {
	now := k.now()
	s := Snapshot{
		Time:        now,
		Tick:        k.tick,
		State:       k.state.String(),
		Position:    k.position,
		Moving:      k.moving,
		Paused:      k.pending != nil,
		VisionAge:   age(now, k.visionUpdated),
		BallAge:     age(now, k.ballSeen),
		PositionAge: age(now, k.positionSeen),
		HitAge:      age(now, k.hitSeen),
	}
	if k.hasBall {
		b := k.ball
		s.Ball = &b
	}
	return s
}
