package robomaster

// Gimbal limits (degrees, °/s).
const (
	MaxGimbalSpeed    = 450.0
	MaxGimbalMove     = 55.0
	MaxGimbalMoveVel  = 540.0
	MinGimbalPitchAbs = -25.0
	MaxGimbalPitchAbs = 30.0
	MaxGimbalYawAbs   = 250.0
)

// GimbalSpeed rotates the gimbal at pitch and yaw °/s.
func (c *Commander) GimbalSpeed(pitch, yaw float64) error {
	if err := firstErr(
		checkRange("pitch", pitch, -MaxGimbalSpeed, MaxGimbalSpeed),
		checkRange("yaw", yaw, -MaxGimbalSpeed, MaxGimbalSpeed),
	); err != nil {
		return err
	}
	return c.call("gimbal", "speed", "p", pitch, "y", yaw)
}

// GimbalMove rotates the gimbal relative to its current attitude.
// Zero speeds use the robot default.
func (c *Commander) GimbalMove(pitch, yaw, speedPitch, speedYaw float64) error {
	if err := firstErr(
		checkRange("pitch", pitch, -MaxGimbalMove, MaxGimbalMove),
		checkRange("yaw", yaw, -MaxGimbalMove, MaxGimbalMove),
	); err != nil {
		return err
	}
	args, err := gimbalSpeeds([]any{"gimbal", "move", "p", pitch, "y", yaw}, speedPitch, speedYaw)
	if err != nil {
		return err
	}
	return c.call(args...)
}

// GimbalMoveTo rotates the gimbal to an absolute attitude.
func (c *Commander) GimbalMoveTo(pitch, yaw, speedPitch, speedYaw float64) error {
	if err := firstErr(
		checkRange("pitch", pitch, MinGimbalPitchAbs, MaxGimbalPitchAbs),
		checkRange("yaw", yaw, -MaxGimbalYawAbs, MaxGimbalYawAbs),
	); err != nil {
		return err
	}
	args, err := gimbalSpeeds([]any{"gimbal", "moveto", "p", pitch, "y", yaw}, speedPitch, speedYaw)
	if err != nil {
		return err
	}
	return c.call(args...)
}

func gimbalSpeeds(args []any, speedPitch, speedYaw float64) ([]any, error) {
	if speedPitch != 0 {
		if err := checkSpeed("speed_pitch", speedPitch, MaxGimbalMoveVel); err != nil {
			return nil, err
		}
		args = append(args, "vp", speedPitch)
	}
	if speedYaw != 0 {
		if err := checkSpeed("speed_yaw", speedYaw, MaxGimbalMoveVel); err != nil {
			return nil, err
		}
		args = append(args, "vy", speedYaw)
	}
	return args, nil
}

// GimbalSuspend powers down the gimbal motors.
func (c *Commander) GimbalSuspend() error {
	return c.call("gimbal", "suspend")
}

// GimbalResume powers the gimbal motors back up.
func (c *Commander) GimbalResume() error {
	return c.call("gimbal", "resume")
}

// GimbalRecenter returns the gimbal to its center attitude.
func (c *Commander) GimbalRecenter() error {
	return c.call("gimbal", "recenter")
}

// GetGimbalAttitude queries gimbal pitch and yaw.
func (c *Commander) GetGimbalAttitude() (GimbalAttitude, error) {
	v, err := c.query(2, "gimbal", "attitude", "?")
	if err != nil {
		return GimbalAttitude{}, err
	}
	return GimbalAttitude{Pitch: v[0], Yaw: v[1]}, nil
}

// GimbalPushOn enables gimbal attitude push at freq Hz.
func (c *Commander) GimbalPushOn(freq int) error {
	if err := checkFreq("freq", freq); err != nil {
		return err
	}
	return c.call("gimbal", "push", "attitude", switchOn, "afreq", freq)
}

// GimbalPushOff disables gimbal attitude push.
func (c *Commander) GimbalPushOff() error {
	return c.call("gimbal", "push", "attitude", switchOff)
}
