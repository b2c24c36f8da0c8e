package sim

// State is the driver's position in its run loop.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateFlushing
	StateSleeping
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateFlushing:
		return "flushing"
	case StateSleeping:
		return "sleeping"
	case StateDone:
		return "done"
	default:
		return "unknown"
	}
}
