package domain

import (
	"strings"
	"time"
)

// SessionStatus represents the lifecycle state of an agent session.
// This is the single closed status type for the whole core; loose
// strings from the wire are normalized through ParseSessionStatus at
// the RPC boundary and never propagate.
type SessionStatus string

const (
	SessionPending         SessionStatus = "pending"
	SessionRunning         SessionStatus = "running"
	SessionWorking         SessionStatus = "working"
	SessionWaitingApproval SessionStatus = "waiting_approval"
	SessionWaitingInput    SessionStatus = "waiting_input"
	SessionIdle            SessionStatus = "idle"
	SessionCompleted       SessionStatus = "completed"
	SessionFailed          SessionStatus = "failed"
	SessionCancelled       SessionStatus = "cancelled"
)

// AllSessionStatuses returns all valid session status values.
func AllSessionStatuses() []SessionStatus {
	return []SessionStatus{
		SessionPending,
		SessionRunning,
		SessionWorking,
		SessionWaitingApproval,
		SessionWaitingInput,
		SessionIdle,
		SessionCompleted,
		SessionFailed,
		SessionCancelled,
	}
}

// IsValid returns true if the status is a known value.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionPending, SessionRunning, SessionWorking,
		SessionWaitingApproval, SessionWaitingInput, SessionIdle,
		SessionCompleted, SessionFailed, SessionCancelled:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for completed, failed and cancelled.
// Sessions are immutable once terminal.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionCompleted || s == SessionFailed || s == SessionCancelled
}

// IsActive returns true while the agent is doing work (as opposed to
// waiting on the user or already terminal).
func (s SessionStatus) IsActive() bool {
	return s == SessionPending || s == SessionRunning || s == SessionWorking
}

// CanTransitionTo enforces monotonicity toward a terminal state: a
// terminal status never transitions to anything else. Non-terminal
// statuses may move freely between each other and into any terminal.
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	if !target.IsValid() {
		return false
	}
	if s.IsTerminal() {
		return false
	}
	return true
}

// ParseSessionStatus normalizes a wire-level status string into the
// closed enum. Unknown values are rejected with ErrUnknownStatus.
func ParseSessionStatus(raw string) (SessionStatus, error) {
	s := SessionStatus(raw)
	if !s.IsValid() {
		return "", ErrUnknownStatus
	}
	return s, nil
}

// Display returns a human-readable representation of the status.
func (s SessionStatus) Display() string {
	switch s {
	case SessionWaitingApproval:
		return "Waiting Approval"
	case SessionWaitingInput:
		return "Waiting Input"
	default:
		return string(s)
	}
}

// SessionPurpose classifies why a session was started. A task may
// accumulate many historical sessions grouped by purpose.
type SessionPurpose string

const (
	PurposePlanning  SessionPurpose = "planning"
	PurposeReview    SessionPurpose = "review"
	PurposeVerify    SessionPurpose = "verify"
	PurposeExecution SessionPurpose = "execution"
	PurposeRewrite   SessionPurpose = "rewrite"
	PurposeComment   SessionPurpose = "comment"
	PurposeDebug     SessionPurpose = "debug"
)

// IsValid returns true if the purpose is a known value.
func (p SessionPurpose) IsValid() bool {
	switch p {
	case PurposePlanning, PurposeReview, PurposeVerify,
		PurposeExecution, PurposeRewrite, PurposeComment, PurposeDebug:
		return true
	default:
		return false
	}
}

// ChunkType tags one entry of a session's output stream.
type ChunkType string

const (
	ChunkText    ChunkType = "text"
	ChunkToolUse ChunkType = "tool_use"
	ChunkSystem  ChunkType = "system"
)

// OutputChunk is one append-only entry of a session's output.
type OutputChunk struct {
	Time    time.Time `json:"time"`
	Type    ChunkType `json:"type"`
	Content string    `json:"content"`
}

// Session represents one invocation of an external coding agent.
// Fields are ordered to minimize memory padding.
type Session struct {
	ID       string         `json:"id"`
	TaskPath string         `json:"taskPath"`
	Prompt   string         `json:"prompt,omitempty"`
	Model    string         `json:"model,omitempty"`
	Error    string         `json:"error,omitempty"`
	Branch   string         `json:"branch,omitempty"` // Worktree branch the agent works on
	Purpose  SessionPurpose `json:"purpose"`
	Status   SessionStatus  `json:"status"`
	Output   []OutputChunk  `json:"output,omitempty"`
}

// Placeholder prompt markers written by the plan-generation and
// bug-investigation flows before the real prompt is assembled.
const (
	PlanPlaceholder  = "[generating plan]"
	DebugPlaceholder = "[investigating bug]"
)

// IsPlanningLike reports whether the session drives plan generation.
// Besides the explicit planning purpose, placeholder prompts produced
// by plan-generation and bug-investigation flows count as planning.
func (s *Session) IsPlanningLike() bool {
	if s.Purpose == PurposePlanning || s.Purpose == PurposeDebug {
		return true
	}
	return strings.HasPrefix(s.Prompt, PlanPlaceholder) ||
		strings.HasPrefix(s.Prompt, DebugPlaceholder)
}
