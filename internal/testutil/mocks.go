// Package testutil provides shared test utilities and mock implementations.
package testutil

import (
	"context"
	"time"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// MockClock is a test double for domain.Clock.
type MockClock struct {
	NowTime time.Time
}

// Now returns the configured time.
func (m *MockClock) Now() time.Time {
	return m.NowTime
}

// NopLogger is a domain.Logger that discards everything.
type NopLogger struct{}

func (NopLogger) Debug(string, string, string) {}
func (NopLogger) Info(string, string, string)  {}
func (NopLogger) Warn(string, string, string)  {}
func (NopLogger) Error(string, string, string) {}

// MockTaskService is a test double for domain.TaskService.
// Fields are ordered to minimize memory padding.
type MockTaskService struct {
	Tasks map[string]*domain.Task

	CreateErr  error
	SaveErr    error
	DeleteErr  error
	ArchiveErr error
	RestoreErr error
	ListErr    error
	GetErr     error
	SplitErr   error
	RecordErr  error
	QAErr      error

	CreatedPath     string
	CreatedSession  string
	SplitPaths      []string
	SavedContent    map[string]string
	QASet           map[string]domain.QAStatus
	RecordedMerges  []RecordedMerge
	RecordedReverts []RecordedRevert

	ArchiveCalled bool
	RestoreCalled bool
	DeleteCalled  bool
	SplitCalled   bool
}

// RecordedMerge captures one RecordMerge call.
type RecordedMerge struct {
	Path       string
	SessionID  string
	CommitHash string
}

// RecordedRevert captures one RecordRevert call.
type RecordedRevert struct {
	Path             string
	MergeCommitHash  string
	RevertCommitHash string
}

// NewMockTaskService creates a MockTaskService with initialized maps.
func NewMockTaskService() *MockTaskService {
	return &MockTaskService{
		Tasks:        make(map[string]*domain.Task),
		SavedContent: make(map[string]string),
		QASet:        make(map[string]domain.QAStatus),
	}
}

func (m *MockTaskService) List(_ context.Context) ([]*domain.Task, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	out := make([]*domain.Task, 0, len(m.Tasks))
	for _, t := range m.Tasks {
		out = append(out, t)
	}
	return out, nil
}

func (m *MockTaskService) Get(_ context.Context, path string) (*domain.Task, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	t, ok := m.Tasks[path]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return t, nil
}

func (m *MockTaskService) Save(_ context.Context, path, content string) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.SavedContent[path] = content
	return nil
}

func (m *MockTaskService) Create(_ context.Context, title string, _ domain.CreateTaskOptions) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	if m.CreatedPath == "" {
		m.CreatedPath = "tasks/" + title + ".md"
	}
	return m.CreatedPath, nil
}

func (m *MockTaskService) CreateWithAgent(_ context.Context, title string, _ domain.CreateTaskOptions) (*domain.CreatedWithAgent, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if m.CreatedPath == "" {
		m.CreatedPath = "tasks/" + title + ".md"
	}
	return &domain.CreatedWithAgent{Path: m.CreatedPath, SessionID: m.CreatedSession}, nil
}

func (m *MockTaskService) Delete(_ context.Context, path string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.DeleteCalled = true
	delete(m.Tasks, path)
	return nil
}

func (m *MockTaskService) Archive(_ context.Context, path string) error {
	if m.ArchiveErr != nil {
		return m.ArchiveErr
	}
	m.ArchiveCalled = true
	if t, ok := m.Tasks[path]; ok {
		t.Archived = true
	}
	return nil
}

func (m *MockTaskService) Restore(_ context.Context, path string) error {
	if m.RestoreErr != nil {
		return m.RestoreErr
	}
	m.RestoreCalled = true
	if t, ok := m.Tasks[path]; ok {
		t.Archived = false
	}
	return nil
}

func (m *MockTaskService) Split(_ context.Context, _ string, _ []int, _ bool) ([]string, error) {
	if m.SplitErr != nil {
		return nil, m.SplitErr
	}
	m.SplitCalled = true
	return m.SplitPaths, nil
}

func (m *MockTaskService) RecordMerge(_ context.Context, path, sessionID, commitHash string) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.RecordedMerges = append(m.RecordedMerges, RecordedMerge{Path: path, SessionID: sessionID, CommitHash: commitHash})
	return nil
}

func (m *MockTaskService) RecordRevert(_ context.Context, path, mergeHash, revertHash string) error {
	if m.RecordErr != nil {
		return m.RecordErr
	}
	m.RecordedReverts = append(m.RecordedReverts, RecordedRevert{Path: path, MergeCommitHash: mergeHash, RevertCommitHash: revertHash})
	return nil
}

func (m *MockTaskService) SetQAStatus(_ context.Context, path string, status domain.QAStatus) error {
	if m.QAErr != nil {
		return m.QAErr
	}
	m.QASet[path] = status
	return nil
}

// MockSessionService is a test double for domain.SessionService.
type MockSessionService struct {
	Sessions map[string]*domain.Session

	AssignErr  error
	VerifyErr  error
	RewriteErr error
	CancelErr  error
	GetErr     error

	Started    *domain.StartedSession
	AgentTypes []domain.AgentType

	CancelledID string
	GetCalls    int
}

// NewMockSessionService creates a MockSessionService with initialized maps.
func NewMockSessionService() *MockSessionService {
	return &MockSessionService{Sessions: make(map[string]*domain.Session)}
}

func (m *MockSessionService) Assign(_ context.Context, _, _, _ string) (*domain.StartedSession, error) {
	if m.AssignErr != nil {
		return nil, m.AssignErr
	}
	return m.Started, nil
}

func (m *MockSessionService) Verify(_ context.Context, _, _ string) (*domain.StartedSession, error) {
	if m.VerifyErr != nil {
		return nil, m.VerifyErr
	}
	return m.Started, nil
}

func (m *MockSessionService) Rewrite(_ context.Context, _, _ string) (*domain.StartedSession, error) {
	if m.RewriteErr != nil {
		return nil, m.RewriteErr
	}
	return m.Started, nil
}

func (m *MockSessionService) Cancel(_ context.Context, sessionID string) error {
	if m.CancelErr != nil {
		return m.CancelErr
	}
	m.CancelledID = sessionID
	return nil
}

func (m *MockSessionService) GetSession(_ context.Context, sessionID string) (*domain.Session, error) {
	m.GetCalls++
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	s, ok := m.Sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return s, nil
}

func (m *MockSessionService) ListAgentTypes(_ context.Context) ([]domain.AgentType, error) {
	return m.AgentTypes, nil
}

// MockGitService is a test double for domain.GitService.
type MockGitService struct {
	ChangedFilesVal []domain.FileChange
	ChangedFilesErr error

	Uncommitted    *domain.UncommittedState
	UncommittedErr error

	GeneratedMsg  string
	GenerateErr   error
	GenerateCalls int
	GenerateTitle string
	GenerateDesc  string

	CommitHash string
	CommitErr  error

	MergeRes    *domain.MergeResult
	MergeErr    error
	MergeCalled bool
	MergeSource string
	MergeTarget string

	RevertRes    *domain.RevertResult
	RevertErr    error
	RevertCalled bool
	RevertedHash string
}

func (m *MockGitService) ChangedFiles(_ context.Context, _ string) ([]domain.FileChange, error) {
	if m.ChangedFilesErr != nil {
		return nil, m.ChangedFilesErr
	}
	return m.ChangedFilesVal, nil
}

func (m *MockGitService) HasUncommittedChanges(_ context.Context, _ string) (*domain.UncommittedState, error) {
	if m.UncommittedErr != nil {
		return nil, m.UncommittedErr
	}
	if m.Uncommitted == nil {
		return &domain.UncommittedState{}, nil
	}
	return m.Uncommitted, nil
}

func (m *MockGitService) GenerateCommitMessage(_ context.Context, title, description string, _ []domain.FileChange) (string, error) {
	m.GenerateCalls++
	m.GenerateTitle = title
	m.GenerateDesc = description
	if m.GenerateErr != nil {
		return "", m.GenerateErr
	}
	return m.GeneratedMsg, nil
}

func (m *MockGitService) CommitScoped(_ context.Context, _ []string, _ string) (string, error) {
	if m.CommitErr != nil {
		return "", m.CommitErr
	}
	return m.CommitHash, nil
}

func (m *MockGitService) MergeBranch(_ context.Context, source, target string) (*domain.MergeResult, error) {
	m.MergeCalled = true
	m.MergeSource = source
	m.MergeTarget = target
	if m.MergeErr != nil {
		return nil, m.MergeErr
	}
	return m.MergeRes, nil
}

func (m *MockGitService) RevertMerge(_ context.Context, commitHash string) (*domain.RevertResult, error) {
	m.RevertCalled = true
	m.RevertedHash = commitHash
	if m.RevertErr != nil {
		return nil, m.RevertErr
	}
	return m.RevertRes, nil
}

// MockDebugService is a test double for domain.DebugService.
type MockDebugService struct {
	Status      *domain.DebugRunStatus
	StatusErr   error
	SessionID   string
	OrchErr     error
	OrchCalls   int
	StatusCalls int
}

func (m *MockDebugService) RunStatus(_ context.Context, _ string) (*domain.DebugRunStatus, error) {
	m.StatusCalls++
	if m.StatusErr != nil {
		return nil, m.StatusErr
	}
	return m.Status, nil
}

func (m *MockDebugService) Orchestrate(_ context.Context, _, _ string) (string, error) {
	m.OrchCalls++
	if m.OrchErr != nil {
		return "", m.OrchErr
	}
	return m.SessionID, nil
}
