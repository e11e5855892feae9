package watch

import (
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// Msg is the interface for all watch TUI messages.
//
//sumtype:decl
type Msg interface {
	sealed()
}

// MsgTasksLoaded is sent when the task list has been fetched.
type MsgTasksLoaded struct {
	Tasks []*domain.Task
	Err   error
}

func (MsgTasksLoaded) sealed() {}

// MsgUpdate carries one event from the update subscription.
type MsgUpdate struct {
	Event orchestrator.Event
}

func (MsgUpdate) sealed() {}

// MsgFeedClosed is sent when the subscription channel closes.
type MsgFeedClosed struct{}

func (MsgFeedClosed) sealed() {}
