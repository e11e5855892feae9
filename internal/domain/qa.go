package domain

// QAStatus represents the post-merge QA state of a task.
type QAStatus string

const (
	QANone    QAStatus = "none"    // No merge outstanding
	QAPending QAStatus = "pending" // Merged, awaiting QA verdict
	QAPass    QAStatus = "pass"    // QA passed; terminal for the entry
	QAFail    QAStatus = "fail"    // QA failed; revert is available
)

// qaTransitions defines the allowed QA status transitions.
// Flow: none → pending → {pass, fail}; fail → none (via revert).
var qaTransitions = map[QAStatus][]QAStatus{
	QANone:    {QAPending},
	QAPending: {QAPass, QAFail},
	QAPass:    {QANone}, // Cycle closes on archive
	QAFail:    {QANone}, // Cycle closes on revert
}

// CanTransitionTo returns true if the status can transition to target.
func (s QAStatus) CanTransitionTo(target QAStatus) bool {
	for _, t := range qaTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsValid returns true if the status is a known value.
func (s QAStatus) IsValid() bool {
	switch s {
	case QANone, QAPending, QAPass, QAFail:
		return true
	default:
		return false
	}
}

// Display returns a human-readable representation of the QA status.
func (s QAStatus) Display() string {
	switch s {
	case QANone:
		return "-"
	case QAPending:
		return "QA Pending"
	case QAPass:
		return "QA Pass"
	case QAFail:
		return "QA Fail"
	default:
		return string(s)
	}
}
