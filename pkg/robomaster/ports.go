// Package robomaster speaks the RoboMaster EP plain-text SDK protocol: the
// request/response control channel, the UDP address broadcast, and the
// push and event telemetry streams.
package robomaster

// Well-known ports.
const (
	VideoPort     = 40921
	AudioPort     = 40922
	ControlPort   = 40923
	PushPort      = 40924
	EventPort     = 40925
	DiscoveryPort = 40926
)

// DefaultBufSize bounds a single request, reply, or streamed datagram.
const DefaultBufSize = 512

// Drive modes.
const (
	ModeChassisLead = "chassis_lead"
	ModeGimbalLead  = "gimbal_lead"
	ModeFree        = "free"
)

// Modes lists every valid drive mode.
var Modes = []string{ModeChassisLead, ModeGimbalLead, ModeFree}

// LED groups.
const (
	LEDAll         = "all"
	LEDTopAll      = "top_all"
	LEDTopRight    = "top_right"
	LEDTopLeft     = "top_left"
	LEDBottomAll   = "bottom_all"
	LEDBottomFront = "bottom_front"
	LEDBottomBack  = "bottom_back"
	LEDBottomLeft  = "bottom_left"
	LEDBottomRight = "bottom_right"
)

var ledGroups = []string{
	LEDAll, LEDTopAll, LEDTopRight, LEDTopLeft,
	LEDBottomAll, LEDBottomFront, LEDBottomBack, LEDBottomLeft, LEDBottomRight,
}

// LED effects.
const (
	LEDEffectSolid     = "solid"
	LEDEffectOff       = "off"
	LEDEffectPulse     = "pulse"
	LEDEffectBlink     = "blink"
	LEDEffectScrolling = "scrolling"
)

var ledEffects = []string{LEDEffectSolid, LEDEffectOff, LEDEffectPulse, LEDEffectBlink, LEDEffectScrolling}

// Event kinds for subscriptions.
const (
	ArmorHit      = "hit"
	SoundApplause = "applause"
)

// PushFrequencies lists the supported telemetry push rates (Hz).
var PushFrequencies = []int{1, 5, 10, 20, 30, 50}

const (
	replyOK          = "ok"
	replyAlreadySDK  = "Already in SDK mode"
	broadcastPrefix  = "robot ip "
	switchOn         = "on"
	switchOff        = "off"
	commandTerminate = ";"
)
