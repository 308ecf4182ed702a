package cartsync

type State int

const (
	// StateIdle: the view matches the last confirmed snapshot.
	StateIdle State = iota
	// StateMutating: a local change is applied and its request is in flight.
	StateMutating
	// StateReverting: a request failed and the authoritative cart is being
	// fetched again.
	StateReverting
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMutating:
		return "mutating"
	case StateReverting:
		return "reverting"
	default:
		return "unknown"
	}
}
