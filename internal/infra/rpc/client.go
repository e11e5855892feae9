// Package rpc implements the console API client. It is the single
// boundary where loose wire data (status strings, timestamps) is
// normalized into domain types; nothing past this package sees a raw
// status string.
package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/okabe-dev/agentdeck/internal/domain"
)

// Client talks JSON over HTTP to the agent console. It implements
// domain.TaskService, domain.SessionService, domain.GitService and
// domain.DebugService.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	log        domain.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client (used by tests).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a console API client for the given endpoint.
func New(endpoint string, log domain.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(endpoint, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StatusError is returned for non-2xx responses, carrying the server's
// error body for display.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("console returned status %d: %s", e.Code, e.Body)
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.do(req, out)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return notFoundError(req.URL.Path)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// notFoundError maps a 404 onto the sentinel matching the resource
// family of the request path.
func notFoundError(path string) error {
	if strings.Contains(path, "/sessions") {
		return domain.ErrSessionNotFound
	}
	return domain.ErrTaskNotFound
}

// taskDTO is the wire form of a task.
type taskDTO struct {
	Path         string              `json:"path"`
	Title        string              `json:"title"`
	Content      string              `json:"content,omitempty"`
	SplitFrom    string              `json:"splitFrom,omitempty"`
	QAStatus     string              `json:"qaStatus,omitempty"`
	Subtasks     []domain.Subtask    `json:"subtasks,omitempty"`
	MergeHistory []domain.MergeEntry `json:"mergeHistory,omitempty"`
	Version      int                 `json:"version"`
	Archived     bool                `json:"archived"`
	Created      time.Time           `json:"created"`
	Updated      time.Time           `json:"updated"`
	ArchivedAt   *time.Time          `json:"archivedAt,omitempty"`
}

func (d *taskDTO) toDomain() *domain.Task {
	qa := domain.QAStatus(d.QAStatus)
	if !qa.IsValid() {
		qa = domain.QANone
	}
	return &domain.Task{
		Path:         d.Path,
		Title:        d.Title,
		Content:      d.Content,
		SplitFrom:    d.SplitFrom,
		QAStatus:     qa,
		Subtasks:     d.Subtasks,
		MergeHistory: d.MergeHistory,
		Version:      d.Version,
		Archived:     d.Archived,
		Created:      d.Created,
		Updated:      d.Updated,
		ArchivedAt:   d.ArchivedAt,
	}
}

// sessionDTO is the wire form of a session. Status arrives as a loose
// string and is normalized through ParseSessionStatus.
type sessionDTO struct {
	ID       string               `json:"id"`
	TaskPath string               `json:"taskPath"`
	Prompt   string               `json:"prompt,omitempty"`
	Model    string               `json:"model,omitempty"`
	Error    string               `json:"error,omitempty"`
	Branch   string               `json:"branch,omitempty"`
	Purpose  string               `json:"purpose,omitempty"`
	Status   string               `json:"status"`
	Output   []domain.OutputChunk `json:"output,omitempty"`
}

func (d *sessionDTO) toDomain() (*domain.Session, error) {
	status, err := domain.ParseSessionStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w: %q", d.ID, err, d.Status)
	}
	return &domain.Session{
		ID:       d.ID,
		TaskPath: d.TaskPath,
		Prompt:   d.Prompt,
		Model:    d.Model,
		Error:    d.Error,
		Branch:   d.Branch,
		Purpose:  domain.SessionPurpose(d.Purpose),
		Status:   status,
		Output:   d.Output,
	}, nil
}

// startDTO is the wire form of a session-starting response.
type startDTO struct {
	SessionID string `json:"sessionId"`
	Status    string `json:"status"`
}

func (d *startDTO) toDomain() (*domain.StartedSession, error) {
	status, err := domain.ParseSessionStatus(d.Status)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w: %q", d.SessionID, err, d.Status)
	}
	return &domain.StartedSession{SessionID: d.SessionID, Status: status}, nil
}

// --- TaskService ---

// List retrieves all tasks.
func (c *Client) List(ctx context.Context) ([]*domain.Task, error) {
	var resp struct {
		Tasks []taskDTO `json:"tasks"`
	}
	if err := c.get(ctx, "/api/tasks", nil, &resp); err != nil {
		return nil, err
	}
	out := make([]*domain.Task, 0, len(resp.Tasks))
	for i := range resp.Tasks {
		out = append(out, resp.Tasks[i].toDomain())
	}
	return out, nil
}

// Get retrieves a task by path key.
func (c *Client) Get(ctx context.Context, path string) (*domain.Task, error) {
	var resp taskDTO
	if err := c.get(ctx, "/api/tasks/get", url.Values{"path": {path}}, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain(), nil
}

// Save persists the task's markdown content.
func (c *Client) Save(ctx context.Context, path, content string) error {
	in := struct {
		Path    string `json:"path"`
		Content string `json:"content"`
	}{path, content}
	return c.post(ctx, "/api/tasks/save", in, nil)
}

// Create creates a new task and returns its server-assigned path.
func (c *Client) Create(ctx context.Context, title string, opts domain.CreateTaskOptions) (string, error) {
	in := struct {
		Title   string `json:"title"`
		Content string `json:"content,omitempty"`
	}{title, opts.Content}
	var resp struct {
		Path string `json:"path"`
	}
	if err := c.post(ctx, "/api/tasks", in, &resp); err != nil {
		return "", err
	}
	return resp.Path, nil
}

// CreateWithAgent creates a task bundled with a planning session.
func (c *Client) CreateWithAgent(ctx context.Context, title string, opts domain.CreateTaskOptions) (*domain.CreatedWithAgent, error) {
	in := struct {
		Title     string `json:"title"`
		Content   string `json:"content,omitempty"`
		AgentType string `json:"agentType"`
		Model     string `json:"model,omitempty"`
	}{title, opts.Content, opts.AgentType, opts.Model}
	var resp struct {
		Path      string `json:"path"`
		SessionID string `json:"sessionId"`
	}
	if err := c.post(ctx, "/api/tasks/with-agent", in, &resp); err != nil {
		return nil, err
	}
	return &domain.CreatedWithAgent{Path: resp.Path, SessionID: resp.SessionID}, nil
}

// Delete removes a task permanently.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.post(ctx, "/api/tasks/delete", pathReq{path}, nil)
}

// Archive marks a task archived.
func (c *Client) Archive(ctx context.Context, path string) error {
	return c.post(ctx, "/api/tasks/archive", pathReq{path}, nil)
}

// Restore clears the archived flag.
func (c *Client) Restore(ctx context.Context, path string) error {
	return c.post(ctx, "/api/tasks/restore", pathReq{path}, nil)
}

// Split carves the given sections out into new child tasks.
func (c *Client) Split(ctx context.Context, path string, sectionIndices []int, archiveOriginal bool) ([]string, error) {
	in := struct {
		Path            string `json:"path"`
		Sections        []int  `json:"sections"`
		ArchiveOriginal bool   `json:"archiveOriginal"`
	}{path, sectionIndices, archiveOriginal}
	var resp struct {
		Paths []string `json:"paths"`
	}
	if err := c.post(ctx, "/api/tasks/split", in, &resp); err != nil {
		return nil, err
	}
	return resp.Paths, nil
}

// RecordMerge appends a merge-history entry server-side.
func (c *Client) RecordMerge(ctx context.Context, path, sessionID, commitHash string) error {
	in := struct {
		Path       string `json:"path"`
		SessionID  string `json:"sessionId"`
		CommitHash string `json:"commitHash"`
	}{path, sessionID, commitHash}
	return c.post(ctx, "/api/tasks/record-merge", in, nil)
}

// RecordRevert stamps the outstanding entry server-side.
func (c *Client) RecordRevert(ctx context.Context, path, mergeCommitHash, revertCommitHash string) error {
	in := struct {
		Path             string `json:"path"`
		MergeCommitHash  string `json:"mergeCommitHash"`
		RevertCommitHash string `json:"revertCommitHash"`
	}{path, mergeCommitHash, revertCommitHash}
	return c.post(ctx, "/api/tasks/record-revert", in, nil)
}

// SetQAStatus updates the task's QA status.
func (c *Client) SetQAStatus(ctx context.Context, path string, status domain.QAStatus) error {
	in := struct {
		Path   string `json:"path"`
		Status string `json:"status"`
	}{path, string(status)}
	return c.post(ctx, "/api/tasks/qa", in, nil)
}

type pathReq struct {
	Path string `json:"path"`
}

// --- SessionService ---

// Assign starts an implementation session for the task.
func (c *Client) Assign(ctx context.Context, path, agentType, model string) (*domain.StartedSession, error) {
	in := struct {
		Path      string `json:"path"`
		AgentType string `json:"agentType"`
		Model     string `json:"model,omitempty"`
	}{path, agentType, model}
	var resp startDTO
	if err := c.post(ctx, "/api/sessions/assign", in, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// Verify starts a verification session for the task.
func (c *Client) Verify(ctx context.Context, path, agentType string) (*domain.StartedSession, error) {
	in := struct {
		Path      string `json:"path"`
		AgentType string `json:"agentType"`
	}{path, agentType}
	var resp startDTO
	if err := c.post(ctx, "/api/sessions/verify", in, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// Rewrite starts a rewrite session with the given instructions.
func (c *Client) Rewrite(ctx context.Context, path, instructions string) (*domain.StartedSession, error) {
	in := struct {
		Path         string `json:"path"`
		Instructions string `json:"instructions"`
	}{path, instructions}
	var resp startDTO
	if err := c.post(ctx, "/api/sessions/rewrite", in, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// Cancel requests best-effort cancellation of a session.
func (c *Client) Cancel(ctx context.Context, sessionID string) error {
	in := struct {
		SessionID string `json:"sessionId"`
	}{sessionID}
	return c.post(ctx, "/api/sessions/cancel", in, nil)
}

// GetSession fetches the full session record.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	var resp sessionDTO
	if err := c.get(ctx, "/api/sessions/get", url.Values{"id": {sessionID}}, &resp); err != nil {
		return nil, err
	}
	return resp.toDomain()
}

// ListAgentTypes returns the agent types available to assign.
func (c *Client) ListAgentTypes(ctx context.Context) ([]domain.AgentType, error) {
	var resp struct {
		Agents []domain.AgentType `json:"agents"`
	}
	if err := c.get(ctx, "/api/agents", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Agents, nil
}

// --- GitService (console-backed) ---

// ChangedFiles lists the files changed by the task's sessions.
func (c *Client) ChangedFiles(ctx context.Context, path string) ([]domain.FileChange, error) {
	var resp struct {
		Files []domain.FileChange `json:"files"`
	}
	if err := c.get(ctx, "/api/git/changed-files", url.Values{"path": {path}}, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// HasUncommittedChanges reports uncommitted work for the task.
func (c *Client) HasUncommittedChanges(ctx context.Context, path string) (*domain.UncommittedState, error) {
	var resp domain.UncommittedState
	if err := c.get(ctx, "/api/git/uncommitted", url.Values{"path": {path}}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GenerateCommitMessage asks the console to generate a commit message.
func (c *Client) GenerateCommitMessage(ctx context.Context, title, description string, files []domain.FileChange) (string, error) {
	in := struct {
		Title       string              `json:"title"`
		Description string              `json:"description,omitempty"`
		Files       []domain.FileChange `json:"files"`
	}{title, description, files}
	var resp struct {
		Message string `json:"message"`
	}
	if err := c.post(ctx, "/api/git/commit-message", in, &resp); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// CommitScoped commits exactly the given files with the message.
func (c *Client) CommitScoped(ctx context.Context, files []string, message string) (string, error) {
	in := struct {
		Files   []string `json:"files"`
		Message string   `json:"message"`
	}{files, message}
	var resp struct {
		CommitHash string `json:"commitHash"`
	}
	if err := c.post(ctx, "/api/git/commit", in, &resp); err != nil {
		return "", err
	}
	return resp.CommitHash, nil
}

// MergeBranch merges source into target.
func (c *Client) MergeBranch(ctx context.Context, source, target string) (*domain.MergeResult, error) {
	in := struct {
		Source string `json:"source"`
		Target string `json:"target"`
	}{source, target}
	var resp domain.MergeResult
	if err := c.post(ctx, "/api/git/merge", in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RevertMerge reverts the given merge commit.
func (c *Client) RevertMerge(ctx context.Context, commitHash string) (*domain.RevertResult, error) {
	in := struct {
		CommitHash string `json:"commitHash"`
	}{commitHash}
	var resp domain.RevertResult
	if err := c.post(ctx, "/api/git/revert", in, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- DebugService ---

// RunStatus reports the aggregate status of a debug run's members.
// Members whose status fails to parse are skipped with a warning rather
// than failing the whole poll; AllTerminal is computed over the members
// that did parse so a malformed sample never fires the orchestrator.
func (c *Client) RunStatus(ctx context.Context, debugRunID string) (*domain.DebugRunStatus, error) {
	var resp struct {
		Sessions []sessionDTO `json:"sessions"`
	}
	if err := c.get(ctx, "/api/debug-runs/status", url.Values{"id": {debugRunID}}, &resp); err != nil {
		return nil, err
	}

	out := &domain.DebugRunStatus{AllTerminal: len(resp.Sessions) > 0}
	for i := range resp.Sessions {
		s, err := resp.Sessions[i].toDomain()
		if err != nil {
			c.log.Warn("", "debug", "skipping member: "+err.Error())
			out.AllTerminal = false
			continue
		}
		out.Sessions = append(out.Sessions, *s)
		if !s.Status.IsTerminal() {
			out.AllTerminal = false
		}
	}
	return out, nil
}

// Orchestrate triggers the synthesis session for a completed run.
func (c *Client) Orchestrate(ctx context.Context, debugRunID, taskPath string) (string, error) {
	in := struct {
		ID   string `json:"id"`
		Path string `json:"path"`
	}{debugRunID, taskPath}
	var resp struct {
		SessionID string `json:"sessionId"`
	}
	if err := c.post(ctx, "/api/debug-runs/orchestrate", in, &resp); err != nil {
		return "", err
	}
	return resp.SessionID, nil
}

// Interface conformance.
var (
	_ domain.TaskService    = (*Client)(nil)
	_ domain.SessionService = (*Client)(nil)
	_ domain.GitService     = (*Client)(nil)
	_ domain.DebugService   = (*Client)(nil)
)
