package checkout

// Status tracks a checkout attempt through the pipeline. Rejected is the
// terminal state for invalid input or an empty cart; Completed means the
// order and all its lines are durably written and the cart is cleared.
type Status string

const (
	StatusIdle          Status = "IDLE"
	StatusFormPresented Status = "FORM_PRESENTED"
	StatusValidating    Status = "VALIDATING"
	StatusPersisting    Status = "PERSISTING"
	StatusCompleted     Status = "COMPLETED"
	StatusRejected      Status = "REJECTED"
)

var transitions = map[Status][]Status{
	StatusIdle:          {StatusFormPresented},
	StatusFormPresented: {StatusValidating},
	StatusValidating:    {StatusPersisting, StatusRejected},
	StatusPersisting:    {StatusCompleted},
}

func CanTransitionTo(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected
}

// String representation (for logging)
func (s Status) String() string {
	return string(s)
}
