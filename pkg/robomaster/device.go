package robomaster

// Armor sensitivity bounds.
const (
	MinArmorSensitivity = 1
	MaxArmorSensitivity = 10
)

func onOff(b bool) string {
	if b {
		return switchOn
	}
	return switchOff
}

// ArmorEvent subscribes to (or unsubscribes from) armor events.
func (c *Commander) ArmorEvent(kind string, enable bool) error {
	if err := checkChoice("armor event", kind, []string{ArmorHit}); err != nil {
		return err
	}
	return c.call("armor", "event", kind, onOff(enable))
}

// SoundEvent subscribes to (or unsubscribes from) sound events.
func (c *Commander) SoundEvent(kind string, enable bool) error {
	if err := checkChoice("sound event", kind, []string{SoundApplause}); err != nil {
		return err
	}
	return c.call("sound", "event", kind, onOff(enable))
}

// ArmorSensitivity sets the hit detection sensitivity.
func (c *Commander) ArmorSensitivity(level int) error {
	if err := checkRange("sensitivity", float64(level), MinArmorSensitivity, MaxArmorSensitivity); err != nil {
		return err
	}
	return c.call("armor", "sensitivity", level)
}

// Stream turns the video stream on or off.
func (c *Commander) Stream(on bool) error {
	return c.call("stream", onOff(on))
}

// LEDControl sets an LED group to an effect and color.
func (c *Commander) LEDControl(group, effect string, r, g, b int) error {
	if err := firstErr(
		checkChoice("led group", group, ledGroups),
		checkChoice("led effect", effect, ledEffects),
		checkRange("r", float64(r), 0, 255),
		checkRange("g", float64(g), 0, 255),
		checkRange("b", float64(b), 0, 255),
	); err != nil {
		return err
	}
	return c.call("led", "control", "comp", group, "r", r, "g", g, "b", b, "effect", effect)
}

// BlasterFire fires the blaster once.
func (c *Commander) BlasterFire() error {
	return c.call("blaster", "fire")
}
