package robomaster

// Record is one decoded telemetry record. Consumers switch on the concrete
// type; Kind is only for logging.
type Record interface {
	Kind() string
}

// ChassisSpeed is a snapshot of chassis velocity.
type ChassisSpeed struct {
	X float64 `json:"x"` // m/s
	Y float64 `json:"y"` // m/s
	Z float64 `json:"z"` // °/s

	// Wheel speeds in rpm.
	W1 float64 `json:"w1"`
	W2 float64 `json:"w2"`
	W3 float64 `json:"w3"`
	W4 float64 `json:"w4"`
}

// ChassisPosition is relative to the power-on origin.
type ChassisPosition struct {
	X float64 `json:"x"` // meters
	Y float64 `json:"y"` // meters
	Z float64 `json:"z"` // degrees
}

// ChassisAttitude in degrees.
type ChassisAttitude struct {
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
	Yaw   float64 `json:"yaw"`
}

// ChassisStatus flags as reported by the chassis.
type ChassisStatus struct {
	Static     bool `json:"static"`
	Uphill     bool `json:"uphill"`
	Downhill   bool `json:"downhill"`
	OnSlope    bool `json:"on_slope"`
	PickedUp   bool `json:"picked_up"`
	Slipping   bool `json:"slipping"`
	ImpactX    bool `json:"impact_x"`
	ImpactY    bool `json:"impact_y"`
	ImpactZ    bool `json:"impact_z"`
	RolledOver bool `json:"rolled_over"`
	HillStatic bool `json:"hill_static"`
}

// GimbalAttitude in degrees.
type GimbalAttitude struct {
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// ArmorHitEvent reports which armor sensor was hit.
type ArmorHitEvent struct {
	Index int `json:"index"`
	Type  int `json:"type"`
}

// SoundEvent reports a recognised applause pattern.
type SoundEvent struct {
	Count int `json:"count"`
}

func (ChassisSpeed) Kind() string    { return "chassis_speed" }
func (ChassisPosition) Kind() string { return "chassis_position" }
func (ChassisAttitude) Kind() string { return "chassis_attitude" }
func (ChassisStatus) Kind() string   { return "chassis_status" }
func (GimbalAttitude) Kind() string  { return "gimbal_attitude" }
func (ArmorHitEvent) Kind() string   { return "armor_hit" }
func (SoundEvent) Kind() string      { return "sound" }
