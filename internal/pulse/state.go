package pulse

// State is the loop's position within one iteration.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateFiltering
	StateDelivering
	StateRendering
	StateSleeping
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateFiltering:
		return "filtering"
	case StateDelivering:
		return "delivering"
	case StateRendering:
		return "rendering"
	case StateSleeping:
		return "sleeping"
	default:
		return "unknown"
	}
}
