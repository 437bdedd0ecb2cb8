package fsm

import "fmt"

type State string

type Event string

const (
	StateIdle        State = "idle"
	StateDispatching State = "dispatching"
	StateClosed      State = "closed"
)

const (
	EventCommand Event = "command"
	EventReplied Event = "replied"
	EventClose   Event = "close"
)

// Transition returns the dispatcher state after event. Close is accepted from
// any state.
func Transition(current State, event Event) (State, error) {
	if event == EventClose {
		return StateClosed, nil
	}

	switch current {
	case StateIdle:
		switch event {
		case EventCommand:
			return StateDispatching, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateDispatching:
		switch event {
		case EventReplied:
			return StateIdle, nil
		default:
			return current, invalidTransition(current, event)
		}
	case StateClosed:
		return current, invalidTransition(current, event)
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("invalid transition: %s --(%s)--> ?", state, event)
}
