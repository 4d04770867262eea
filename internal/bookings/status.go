package bookings

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusFailed    Status = "FAILED"
)

// A booking leaves PENDING exactly once; terminal states have no successors.
var validNext = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusFailed},
	StatusConfirmed: {},
	StatusFailed:    {},
}

// IsValid checks if the booking status is valid
func (s Status) IsValid() bool {
	_, ok := validNext[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status can no longer change
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to Status) bool {
	for _, next := range validNext[from] {
		if next == to {
			return true
		}
	}
	return false
}
