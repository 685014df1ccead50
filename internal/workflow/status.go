package workflow

// QaStatus is the lifecycle state of a single analysis attempt. Instances are
// immutable value objects: a transition produces a new status, never mutates.
type QaStatus struct {
	value string
}

const (
	statusPending    = "pending"
	statusProcessing = "processing"
	statusCompleted  = "completed"
	statusError      = "error"
)

var (
	StatusPending    = QaStatus{statusPending}
	StatusProcessing = QaStatus{statusProcessing}
	StatusCompleted  = QaStatus{statusCompleted}
	StatusError      = QaStatus{statusError}
)

// transitions is the full set of permitted moves. error → pending exists only
// for the explicit retry operation; the engine never requests it.
var transitions = map[string]map[string]bool{
	statusPending:    {statusProcessing: true},
	statusProcessing: {statusCompleted: true, statusError: true},
	statusCompleted:  {},
	statusError:      {statusPending: true},
}

// NewQaStatus builds a status from untrusted input, validating membership in
// the allowed value set.
func NewQaStatus(raw string) (QaStatus, error) {
	switch raw {
	case statusPending, statusProcessing, statusCompleted, statusError:
		return QaStatus{raw}, nil
	}
	return QaStatus{}, &ValidationError{
		Code:    "qa_status.invalid",
		Message: "unknown qa status: " + raw,
	}
}

// ReconstructQaStatus rebuilds a status from persisted storage without
// validation. The write path already validated it; re-checking here would
// blur the trust boundary between fresh input and stored data.
func ReconstructQaStatus(raw string) QaStatus {
	return QaStatus{raw}
}

func (s QaStatus) String() string { return s.value }

// IsTerminal reports whether the attempt has finished. An error status is
// terminal but retryable through the explicit retry operation.
func (s QaStatus) IsTerminal() bool {
	return s.value == statusCompleted || s.value == statusError
}

func (s QaStatus) IsPending() bool    { return s.value == statusPending }
func (s QaStatus) IsProcessing() bool { return s.value == statusProcessing }
func (s QaStatus) IsCompleted() bool  { return s.value == statusCompleted }
func (s QaStatus) IsError() bool      { return s.value == statusError }

// CanTransitionTo reports whether moving to next is a permitted transition.
func (s QaStatus) CanTransitionTo(next QaStatus) bool {
	return transitions[s.value][next.value]
}

// Transition returns the next status, or a TransitionError naming both the
// current state and the rejected one.
func (s QaStatus) Transition(next QaStatus) (QaStatus, error) {
	if !s.CanTransitionTo(next) {
		return QaStatus{}, &TransitionError{From: s.value, To: next.value}
	}
	return next, nil
}
