package goATM

// State is the position of a Machine in the card cycle.
type State uint8

const (
	// StateNoCard is the initial state; no account is held.
	StateNoCard State = iota
	// StateCardPresent holds a looked-up account awaiting a PIN.
	StateCardPresent
	// StateAuthenticated allows balance operations on the held account.
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateNoCard:
		return "no_card"
	case StateCardPresent:
		return "card_present"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}
