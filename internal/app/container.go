// Package app provides the dependency injection container for the application.
package app

import (
	"context"
	"path/filepath"

	"github.com/okabe-dev/agentdeck/internal/cache"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/infra/config"
	"github.com/okabe-dev/agentdeck/internal/infra/gitlocal"
	"github.com/okabe-dev/agentdeck/internal/infra/jsonstore"
	"github.com/okabe-dev/agentdeck/internal/infra/logging"
	"github.com/okabe-dev/agentdeck/internal/infra/rpc"
	"github.com/okabe-dev/agentdeck/internal/orchestrator"
	"github.com/okabe-dev/agentdeck/internal/usecase"
)

// Paths holds the filesystem locations the application uses.
type Paths struct {
	WorkDir    string // Directory the command was invoked from
	DeckDir    string // Per-repo state directory (.agentdeck)
	MirrorPath string // Path to the task cache mirror file
}

// Container provides dependency injection for the application.
// It holds all port implementations and provides factory methods for
// use cases.
type Container struct {
	Tasks    domain.TaskService
	Sessions domain.SessionService
	Git      domain.GitService
	Debug    domain.DebugService
	Mirror   domain.TaskMirror
	Clock    domain.Clock

	Cache    *cache.Store[domain.Task]
	Registry *orchestrator.Registry
	Trigger  *orchestrator.CommitMessageTrigger
	Logger   *logging.Logger

	AppConfig *domain.Config
	Paths     Paths
}

// New creates a Container rooted at dir. The console client serves the
// task/session/debug ports; git operations bind to the console when an
// endpoint is configured and to the local repository otherwise.
func New(dir string) (*Container, error) {
	deckDir := filepath.Join(dir, "."+domain.DeckDirName)
	paths := Paths{
		WorkDir:    dir,
		DeckDir:    deckDir,
		MirrorPath: filepath.Join(deckDir, "tasks.json"),
	}

	loader := config.NewLoader(deckDir)
	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New(deckDir, logging.ParseLevel(cfg.Log.Level))
	client := rpc.New(cfg.Console.Endpoint, logger, rpc.WithToken(cfg.Console.Token))

	var git domain.GitService = client
	if cfg.Console.Endpoint == "" {
		local, err := gitlocal.NewClient(dir)
		if err != nil {
			return nil, err
		}
		git = local
	}

	c := &Container{
		Tasks:     client,
		Sessions:  client,
		Git:       git,
		Debug:     client,
		Mirror:    jsonstore.New(paths.MirrorPath),
		Clock:     domain.RealClock{},
		Cache:     cache.NewStore[domain.Task](),
		Registry:  orchestrator.NewRegistry(),
		Logger:    logger,
		AppConfig: cfg,
		Paths:     paths,
	}
	c.Trigger = orchestrator.NewCommitMessageTrigger(c.Git, logger)
	c.warmCache()
	return c, nil
}

// NewWithDeps creates a Container with custom dependencies for testing.
func NewWithDeps(tasks domain.TaskService, sessions domain.SessionService, git domain.GitService, debug domain.DebugService, clock domain.Clock) *Container {
	cfg := domain.NewDefaultConfig()
	c := &Container{
		Tasks:     tasks,
		Sessions:  sessions,
		Git:       git,
		Debug:     debug,
		Clock:     clock,
		Cache:     cache.NewStore[domain.Task](),
		Registry:  orchestrator.NewRegistry(),
		Logger:    logging.New("", logging.ParseLevel(cfg.Log.Level)),
		AppConfig: cfg,
	}
	c.Trigger = orchestrator.NewCommitMessageTrigger(git, c.Logger)
	return c
}

// warmCache seeds the in-memory cache from the mirror so the UI has
// data before the first refresh completes. Best effort.
func (c *Container) warmCache() {
	if c.Mirror == nil {
		return
	}
	tasks, err := c.Mirror.Load()
	if err != nil {
		c.Logger.Warn("", "mirror", "load failed: "+err.Error())
		return
	}
	for path, t := range tasks {
		c.Cache.Set(path, *t)
	}
}

// Close releases container resources.
func (c *Container) Close() error {
	return c.Logger.Close()
}

// Subscription returns the update feed: websocket push when a console
// endpoint is configured, poll loops otherwise. Either transport is
// tapped so its events drive the session registry and the
// commit-message trigger; in poll mode the subscription additionally
// runs a session poll loop per active registry entry.
func (c *Container) Subscription() orchestrator.Subscription {
	var base orchestrator.Subscription
	if ep := c.AppConfig.Console.Endpoint; ep != "" {
		base = rpc.NewPushSubscription(ep, c.AppConfig.Console.Token, c.Logger)
	} else {
		base = orchestrator.NewPollSubscription(c.Tasks, c.Sessions, c.Registry,
			c.SessionPoller(c.feedTrigger),
			c.AppConfig.TasksInterval(), c.AppConfig.ActiveInterval(), c.Logger)
	}
	return orchestrator.Tap(base, c.observeEvent)
}

// SessionPoller returns a poller for one task's active session.
func (c *Container) SessionPoller(onUpdate func(string, *domain.Session)) *orchestrator.Poller {
	return orchestrator.NewPoller(c.Sessions, c.Registry, c.AppConfig.SessionInterval(), c.Logger, onUpdate)
}

// feedTrigger routes an applied session sample into the commit-message
// trigger. Poller callbacks land here.
func (c *Container) feedTrigger(path string, s *domain.Session) {
	if t, ok := c.Cache.Get(path); ok {
		c.Trigger.Observe(context.Background(), &t, s.Status)
	}
}

// observeEvent folds one subscription event into the registry and the
// commit-message trigger, so the push transport drives the same
// machinery the poll loops do.
func (c *Container) observeEvent(ev orchestrator.Event) {
	if ev.Session == nil {
		return
	}
	c.Registry.Observe(ev.TaskPath, ev.Session.ID, ev.Session.Status)

	task := ev.Task
	if task == nil {
		if t, ok := c.Cache.Get(ev.TaskPath); ok {
			task = &t
		}
	}
	if task != nil {
		c.Trigger.Observe(context.Background(), task, ev.Session.Status)
	}
}

// DebugOrchestrator returns the debug-run completion watcher.
func (c *Container) DebugOrchestrator() *orchestrator.DebugOrchestrator {
	return orchestrator.NewDebugOrchestrator(c.Debug, c.AppConfig.DebugRunInterval(), c.Logger)
}

// UseCase factory methods

// ListTasksUseCase returns a new ListTasks use case.
func (c *Container) ListTasksUseCase() *usecase.ListTasks {
	return usecase.NewListTasks(c.Tasks, c.Cache, c.Mirror)
}

// CreateTaskUseCase returns a new CreateTask use case.
func (c *Container) CreateTaskUseCase() *usecase.CreateTask {
	return usecase.NewCreateTask(c.Tasks, c.Cache, c.Registry, c.Clock)
}

// DeleteTaskUseCase returns a new DeleteTask use case.
func (c *Container) DeleteTaskUseCase() *usecase.DeleteTask {
	return usecase.NewDeleteTask(c.Tasks, c.Cache)
}

// ArchiveTaskUseCase returns a new ArchiveTask use case.
func (c *Container) ArchiveTaskUseCase() *usecase.ArchiveTask {
	return usecase.NewArchiveTask(c.Tasks, c.Cache, c.Clock)
}

// SaveDraftUseCase returns a new SaveDraft use case.
func (c *Container) SaveDraftUseCase() *usecase.SaveDraft {
	return usecase.NewSaveDraft(c.Tasks, c.Cache, c.Clock, c.AppConfig.AutosaveDebounce())
}

// SplitTaskUseCase returns a new SplitTask use case.
func (c *Container) SplitTaskUseCase() *usecase.SplitTask {
	return usecase.NewSplitTask(c.Tasks, c.Cache, c.Clock)
}

// AssignAgentUseCase returns a new AssignAgent use case.
func (c *Container) AssignAgentUseCase() *usecase.AssignAgent {
	return usecase.NewAssignAgent(c.Sessions, c.Cache, c.Registry)
}

// VerifyTaskUseCase returns a new VerifyTask use case.
func (c *Container) VerifyTaskUseCase() *usecase.VerifyTask {
	return usecase.NewVerifyTask(c.Sessions, c.Cache, c.Registry)
}

// RewriteTaskUseCase returns a new RewriteTask use case.
func (c *Container) RewriteTaskUseCase() *usecase.RewriteTask {
	return usecase.NewRewriteTask(c.Sessions, c.Cache, c.Registry)
}

// CancelSessionUseCase returns a new CancelSession use case.
func (c *Container) CancelSessionUseCase() *usecase.CancelSession {
	return usecase.NewCancelSession(c.Sessions, c.Registry, c.Logger)
}

// MergeToMainUseCase returns a new MergeToMain use case.
func (c *Container) MergeToMainUseCase() *usecase.MergeToMain {
	return usecase.NewMergeToMain(c.Tasks, c.Sessions, c.Git, c.Cache, c.Registry, c.Clock, c.Logger)
}

// SetQAStatusUseCase returns a new SetQAStatus use case.
func (c *Container) SetQAStatusUseCase() *usecase.SetQAStatus {
	return usecase.NewSetQAStatus(c.Tasks, c.Cache, c.Clock)
}

// RevertMergeUseCase returns a new RevertMerge use case.
func (c *Container) RevertMergeUseCase() *usecase.RevertMerge {
	return usecase.NewRevertMerge(c.Tasks, c.Git, c.Cache, c.Clock, c.Logger)
}

// CommitTaskUseCase returns a new CommitTask use case.
func (c *Container) CommitTaskUseCase() *usecase.CommitTask {
	return usecase.NewCommitTask(c.Git, c.Trigger, c.Cache)
}

// ListAgentsUseCase returns a new ListAgents use case.
func (c *Container) ListAgentsUseCase() *usecase.ListAgents {
	return usecase.NewListAgents(c.Sessions)
}
