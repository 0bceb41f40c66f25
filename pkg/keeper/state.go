// Package keeper implements the goalkeeper: a three-state controller that
// watches the goal, chases the ball laterally, and kicks it away.
package keeper

// State of the goalkeeper.
type State int

const (
	Watching State = iota // idle, centered on the goal
	Chasing               // tracking the ball laterally
	Kicking               // driving forward through the ball
)

func (s State) String() string {
	switch s {
	case Watching:
		return "WATCHING"
	case Chasing:
		return "CHASING"
	case Kicking:
		return "KICKING"
	default:
		return "UNKNOWN"
	}
}

// Next is the state that follows s in the cycle. The cycle wraps to
// Chasing, never back to Watching.
func (s State) Next() State {
	if s == Watching {
		return Chasing
	}
	if s == Chasing {
		return Kicking
	}
	return Chasing
}

// Origin is the state a fault recovers to.
func (s State) Origin() State {
	return Chasing
}

// Event drives a state transition.
type Event int

const (
	BallNear Event = iota // ball inside the enter distance
	Commit                // ball inside the kick distance
	Scored                // the success armor was hit
	Fault                 // a guard failed
)

func (e Event) String() string {
	switch e {
	case BallNear:
		return "ball_near"
	case Commit:
		return "commit"
	case Scored:
		return "scored"
	case Fault:
		return "fault"
	default:
		return "unknown"
	}
}

type edge struct {
	from State
	on   Event
}

// transitions lists every legal (state, event) pair. Anything else is
// ignored; in particular Watching has no fault edge.
var transitions = map[edge]State{
	{Watching, BallNear}: Watching.Next(),
	{Chasing, Commit}:    Chasing.Next(),
	{Chasing, Scored}:    Chasing.Next(),
	{Kicking, Scored}:    Kicking.Next(),
	{Chasing, Fault}:     Chasing.Origin(),
	{Kicking, Fault}:     Kicking.Origin(),
}

// Transition returns the target of event e from state s, and whether the
// pair is a legal transition.
func Transition(s State, e Event) (State, bool) {
	to, ok := transitions[edge{s, e}]
	return to, ok
}
