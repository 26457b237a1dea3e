package api

// StateName identifies one configured Node within a machine.
type StateName string

// Outcome tags a StateResult.
type Outcome string

const (
	// OutcomeWaiting keeps the machine in its current state until more
	// events arrive.
	OutcomeWaiting Outcome = "WAITING"

	// OutcomeTransition commits the current step and moves to another
	// named state.
	OutcomeTransition Outcome = "TRANSITION"

	// OutcomeTerminal commits the current step and finishes the machine.
	OutcomeTerminal Outcome = "TERMINAL"
)

// StateResult is the outcome of a node's Post phase (or of an error
// handler standing in for it).
//
// Actions, when present, are new events enqueued for subsequent processing
// by the same machine, not necessarily by the same state. Only transition
// and terminal results carry actions.
type StateResult struct {
	Outcome Outcome
	To      StateName
	Actions []Event
}

// Waiting keeps the machine in its current state; the run loop stops until
// the caller resumes with more events.
func Waiting() StateResult {
	return StateResult{Outcome: OutcomeWaiting}
}

// Transition commits the current step and moves to the named state,
// optionally enqueueing new events.
func Transition(to StateName, actions ...Event) StateResult {
	return StateResult{Outcome: OutcomeTransition, To: to, Actions: actions}
}

// Terminal commits the current step and finishes the machine, optionally
// enqueueing new events (visible to an enclosing parent machine, if any).
func Terminal(actions ...Event) StateResult {
	return StateResult{Outcome: OutcomeTerminal, Actions: actions}
}
