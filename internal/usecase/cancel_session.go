package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
)

// CancelSessionInput contains the parameters for cancelling a task's
// active session.
type CancelSessionInput struct {
	Path string
}

// CancelSessionOutput contains the cancelled session id.
type CancelSessionOutput struct {
	SessionID string
}

// CancelSession is the use case for cancelling an active session.
type CancelSession struct {
	sessions domain.SessionService
	registry *orchestrator.Registry
	log      domain.Logger
}

// NewCancelSession creates a new CancelSession use case.
func NewCancelSession(sessions domain.SessionService, registry *orchestrator.Registry, log domain.Logger) *CancelSession {
	return &CancelSession{sessions: sessions, registry: registry, log: log}
}

// Execute drops the registry entry optimistically so the UI reflects
// the cancellation immediately, then requests it remotely. A session
// that already reached a terminal state is treated as cancelled, not
// as an error; any other failure restores the entry.
func (uc *CancelSession) Execute(ctx context.Context, in CancelSessionInput) (*CancelSessionOutput, error) {
	entry, ok := uc.registry.Get(in.Path)
	if !ok {
		return nil, domain.ErrNoSession
	}

	restore := uc.registry.Drop(in.Path)

	if err := uc.sessions.Cancel(ctx, entry.SessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) || entryAlreadyTerminal(ctx, uc.sessions, entry.SessionID) {
			uc.log.Info(in.Path, "session", "cancel raced with terminal state, treating as cancelled")
			return &CancelSessionOutput{SessionID: entry.SessionID}, nil
		}
		restore()
		return nil, fmt.Errorf("cancel session: %w", err)
	}
	return &CancelSessionOutput{SessionID: entry.SessionID}, nil
}

// entryAlreadyTerminal re-fetches the session to distinguish a genuine
// cancel failure from a race where the session finished first.
func entryAlreadyTerminal(ctx context.Context, sessions domain.SessionService, id string) bool {
	s, err := sessions.GetSession(ctx, id)
	if err != nil {
		return false
	}
	return s.Status.IsTerminal()
}
