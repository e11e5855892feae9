package domain

// Phase is the derived lifecycle phase of a task as shown to the user.
type Phase string

const (
	PhaseIdle            Phase = "idle"
	PhasePlanning        Phase = "planning"
	PhaseImplementing    Phase = "implementing"
	PhaseReviewing       Phase = "reviewing"
	PhaseVerifying       Phase = "verifying"
	PhaseRewriting       Phase = "rewriting"
	PhaseDebating        Phase = "debating"
	PhaseMergedPendingQA Phase = "merged-pending-qa"
	PhaseQAFailed        Phase = "qa-failed"
	PhaseArchived        Phase = "archived"
)

// Progress carries the non-session counters DerivePhase consumes.
// Everything here is reconstructible from persisted state; transient UI
// state (open tabs, focus) must never leak in.
type Progress struct {
	OpenReviews int  // Unresolved debate/review threads for the task
	Restoring   bool // A restore of an archived task is in flight
}

// DerivePhase maps (task, active session, progress) to a phase.
// It is pure and idempotent: identical inputs always yield the same
// phase, so a fresh process reconstructs the identical value from
// persisted task state plus the currently observed session.
//
// Rules apply in priority order; an active session always outranks the
// post-merge QA states (a re-implementation started while QA is pending
// shows as implementing until the session terminates).
func DerivePhase(task *Task, active *Session, p Progress) Phase {
	if task == nil {
		return PhaseIdle
	}
	if task.Archived && !p.Restoring {
		return PhaseArchived
	}
	if active != nil && !active.Status.IsTerminal() {
		switch {
		case active.IsPlanningLike():
			return PhasePlanning
		case active.Purpose == PurposeExecution:
			return PhaseImplementing
		case active.Purpose == PurposeVerify:
			return PhaseVerifying
		case active.Purpose == PurposeReview:
			return PhaseReviewing
		case active.Purpose == PurposeRewrite:
			return PhaseRewriting
		}
	}
	if p.OpenReviews > 0 {
		return PhaseDebating
	}
	if task.QAStatus == QAPending && task.OutstandingMerge() != nil {
		return PhaseMergedPendingQA
	}
	if task.QAStatus == QAFail {
		if m := task.OutstandingMerge(); m != nil {
			return PhaseQAFailed
		}
	}
	return PhaseIdle
}

// Display returns a human-readable representation of the phase.
func (p Phase) Display() string {
	switch p {
	case PhaseMergedPendingQA:
		return "Merged (QA pending)"
	case PhaseQAFailed:
		return "QA Failed"
	default:
		return string(p)
	}
}
