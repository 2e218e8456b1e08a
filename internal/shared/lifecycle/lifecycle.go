// Package lifecycle is the state machine a consumer keeps for a remote
// aggregate it references but does not own.
//
//	Unknown --created--> Active --deactivated--> Tombstoned
//	Unknown --deactivated--------------------> Tombstoned
//
// Tombstoned is terminal: late creates or reactivations are ignored.
package lifecycle

type State string

const (
	Unknown    State = ""
	Active     State = "active"
	Tombstoned State = "tombstoned"
)

// Transition reports what an observation did to the state.
type Transition int

const (
	// Unchanged means the observation was absorbed without effect.
	Unchanged Transition = iota
	// Materialized means an unknown aggregate became active.
	Materialized
	// Refreshed means an active aggregate stays active with new data.
	Refreshed
	// Tombstone means the aggregate just became tombstoned and its
	// dependents must be cascaded.
	Tombstone
)

// ObserveActive applies a created or updated(active) event.
func (s State) ObserveActive() (State, Transition) {
	switch s {
	case Unknown:
		return Active, Materialized
	case Active:
		return Active, Refreshed
	default:
		return s, Unchanged
	}
}

// ObserveInactive applies a deleted or updated(inactive) event.
func (s State) ObserveInactive() (State, Transition) {
	if s == Tombstoned {
		return s, Unchanged
	}
	return Tombstoned, Tombstone
}

func (s State) IsTombstoned() bool {
	return s == Tombstoned
}
