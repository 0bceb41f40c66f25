package robomaster

import "errors"

// Chassis limits.
const (
	MaxChassisSpeedXY  = 3.5    // m/s
	MaxChassisSpeedZ   = 600.0  // °/s
	MaxWheelRPM        = 1000.0 // rpm
	MaxChassisMoveXY   = 5.0    // m
	MaxChassisMoveZ    = 1800.0 // °
	MaxChassisMoveVXY  = 3.5    // m/s
	MaxChassisMoveVZ   = 600.0  // °/s
	chassisStatusCount = 11
)

// ChassisSpeed drives the chassis at x, y (m/s) and z (°/s) until changed.
func (c *Commander) ChassisSpeed(x, y, z float64) error {
	if err := firstErr(
		checkRange("x", x, -MaxChassisSpeedXY, MaxChassisSpeedXY),
		checkRange("y", y, -MaxChassisSpeedXY, MaxChassisSpeedXY),
		checkRange("z", z, -MaxChassisSpeedZ, MaxChassisSpeedZ),
	); err != nil {
		return err
	}
	return c.call("chassis", "speed", "x", x, "y", y, "z", z)
}

// ChassisWheel sets the four wheel speeds in rpm. All zeros stops the robot.
func (c *Commander) ChassisWheel(w1, w2, w3, w4 float64) error {
	if err := firstErr(
		checkRange("w1", w1, -MaxWheelRPM, MaxWheelRPM),
		checkRange("w2", w2, -MaxWheelRPM, MaxWheelRPM),
		checkRange("w3", w3, -MaxWheelRPM, MaxWheelRPM),
		checkRange("w4", w4, -MaxWheelRPM, MaxWheelRPM),
	); err != nil {
		return err
	}
	return c.call("chassis", "wheel", "w1", w1, "w2", w2, "w3", w3, "w4", w4)
}

// Stop zeroes every wheel.
func (c *Commander) Stop() error {
	return c.ChassisWheel(0, 0, 0, 0)
}

// ChassisMove moves the chassis relative to its current pose. speedXY and
// speedZ are optional; zero leaves them to the robot's default.
func (c *Commander) ChassisMove(x, y, z, speedXY, speedZ float64) error {
	if err := firstErr(
		checkRange("x", x, -MaxChassisMoveXY, MaxChassisMoveXY),
		checkRange("y", y, -MaxChassisMoveXY, MaxChassisMoveXY),
		checkRange("z", z, -MaxChassisMoveZ, MaxChassisMoveZ),
	); err != nil {
		return err
	}

	args := []any{"chassis", "move", "x", x, "y", y, "z", z}
	if speedXY != 0 {
		if err := checkSpeed("speed_xy", speedXY, MaxChassisMoveVXY); err != nil {
			return err
		}
		args = append(args, "vxy", speedXY)
	}
	if speedZ != 0 {
		if err := checkSpeed("speed_z", speedZ, MaxChassisMoveVZ); err != nil {
			return err
		}
		args = append(args, "vz", speedZ)
	}
	return c.call(args...)
}

// GetChassisSpeed queries the current chassis and wheel speeds.
func (c *Commander) GetChassisSpeed() (ChassisSpeed, error) {
	v, err := c.query(7, "chassis", "speed", "?")
	if err != nil {
		return ChassisSpeed{}, err
	}
	return ChassisSpeed{X: v[0], Y: v[1], Z: v[2], W1: v[3], W2: v[4], W3: v[5], W4: v[6]}, nil
}

// GetChassisPosition queries the position relative to power-on.
func (c *Commander) GetChassisPosition() (ChassisPosition, error) {
	v, err := c.query(3, "chassis", "position", "?")
	if err != nil {
		return ChassisPosition{}, err
	}
	return ChassisPosition{X: v[0], Y: v[1], Z: v[2]}, nil
}

// GetChassisAttitude queries pitch, roll and yaw.
func (c *Commander) GetChassisAttitude() (ChassisAttitude, error) {
	v, err := c.query(3, "chassis", "attitude", "?")
	if err != nil {
		return ChassisAttitude{}, err
	}
	return ChassisAttitude{Pitch: v[0], Roll: v[1], Yaw: v[2]}, nil
}

// GetChassisStatus queries the chassis status flags.
func (c *Commander) GetChassisStatus() (ChassisStatus, error) {
	v, err := c.query(chassisStatusCount, "chassis", "status", "?")
	if err != nil {
		return ChassisStatus{}, err
	}
	return statusFromValues(v), nil
}

// PushFreq selects chassis push attributes; zero leaves an attribute alone.
type PushFreq struct {
	Position int
	Attitude int
	Status   int
}

// ChassisPushOn enables chassis telemetry push at per-attribute rates.
func (c *Commander) ChassisPushOn(f PushFreq) error {
	args := []any{"chassis", "push"}
	for _, a := range []struct {
		name, freqKey string
		freq          int
	}{
		{"position", "pfreq", f.Position},
		{"attitude", "afreq", f.Attitude},
		{"status", "sfreq", f.Status},
	} {
		if a.freq == 0 {
			continue
		}
		if err := checkFreq(a.name+"_freq", a.freq); err != nil {
			return err
		}
		args = append(args, a.name, switchOn, a.freqKey, a.freq)
	}
	if len(args) == 2 {
		return errors.Join(ErrEmptyCommand, errors.New("no push attribute selected"))
	}
	return c.call(args...)
}

// ChassisPushAll enables every chassis push attribute at one rate.
func (c *Commander) ChassisPushAll(freq int) error {
	if err := checkFreq("freq", freq); err != nil {
		return err
	}
	return c.call("chassis", "push", "position", switchOn, "attitude", switchOn, "status", switchOn, "freq", freq)
}

// ChassisPushOff disables every chassis push attribute.
func (c *Commander) ChassisPushOff() error {
	return c.call("chassis", "push", "position", switchOff, "attitude", switchOff, "status", switchOff)
}

func statusFromValues(v []float64) ChassisStatus {
	b := func(i int) bool { return v[i] != 0 }
	return ChassisStatus{
		Static:     b(0),
		Uphill:     b(1),
		Downhill:   b(2),
		OnSlope:    b(3),
		PickedUp:   b(4),
		Slipping:   b(5),
		ImpactX:    b(6),
		ImpactY:    b(7),
		ImpactZ:    b(8),
		RolledOver: b(9),
		HillStatic: b(10),
	}
}
