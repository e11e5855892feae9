package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okabe-dev/agentdeck/internal/app"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/usecase"
)

// newNewCommand creates the new command for creating tasks.
func newNewCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Body      string
		AgentType string
		Model     string
	}

	cmd := &cobra.Command{
		Use:     "new <title>",
		Short:   "Create a new task",
		GroupID: groupTask,
		Long: `Create a new task.

With --agent, a planning session is started immediately and the agent
drafts the task plan into the task body.

Examples:
  # Create a bare task
  agentdeck new "Fix login timeout"

  # Create a task and have an agent plan it
  agentdeck new "Auth refactoring" --agent coder`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.CreateTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.CreateTaskInput{
				Title:     args[0],
				Content:   opts.Body,
				AgentType: opts.AgentType,
				Model:     opts.Model,
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", out.Path)
			if out.SessionID != "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Planning session %s started\n", out.SessionID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Body, "body", "", "Initial task body (markdown)")
	cmd.Flags().StringVar(&opts.AgentType, "agent", "", "Start a planning session with this agent")
	cmd.Flags().StringVar(&opts.Model, "model", "", "Model override for the planning agent")

	return cmd
}

// newListCommand creates the ls command.
func newListCommand(c *app.Container) *cobra.Command {
	var includeArchived bool

	cmd := &cobra.Command{
		Use:     "ls",
		Short:   "List tasks",
		GroupID: groupTask,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ListTasksUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.ListTasksInput{IncludeArchived: includeArchived})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "PATH\tPHASE\tQA\tTITLE")
			for _, t := range out.Tasks {
				phase := derivePhaseFor(c, t)
				_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Path, phase.Display(), t.QAStatus.Display(), t.Title)
			}
			return w.Flush()
		},
	}

	cmd.Flags().BoolVarP(&includeArchived, "all", "a", false, "Include archived tasks")

	return cmd
}

// derivePhaseFor resolves the task's phase using the registry's view of
// its active session.
func derivePhaseFor(c *app.Container, t *domain.Task) domain.Phase {
	var active *domain.Session
	if entry, ok := c.Registry.Get(t.Path); ok && !entry.Status.IsTerminal() {
		active = &domain.Session{ID: entry.SessionID, Status: entry.Status}
	}
	return domain.DerivePhase(t, active, domain.Progress{})
}

// newShowCommand creates the show command.
func newShowCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "show <path>",
		Short:   "Show a task",
		GroupID: groupTask,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := c.Tasks.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "# %s\n", task.Title)
			_, _ = fmt.Fprintf(out, "Path:    %s\n", task.Path)
			_, _ = fmt.Fprintf(out, "Phase:   %s\n", derivePhaseFor(c, task).Display())
			_, _ = fmt.Fprintf(out, "QA:      %s\n", task.QAStatus.Display())
			if task.SplitFrom != "" {
				_, _ = fmt.Fprintf(out, "Split from: %s\n", task.SplitFrom)
			}
			for _, e := range task.MergeHistory {
				line := fmt.Sprintf("Merged %s at %s", e.CommitHash, e.MergedAt.Format("2006-01-02 15:04"))
				if e.Reverted() {
					line += fmt.Sprintf(" (reverted by %s)", e.RevertCommitHash)
				}
				_, _ = fmt.Fprintln(out, line)
			}
			if task.Content != "" {
				_, _ = fmt.Fprintf(out, "\n%s\n", strings.TrimRight(task.Content, "\n"))
			}
			return nil
		},
	}
	return cmd
}

// newEditCommand creates the edit command for updating the task body.
func newEditCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Body string
		File string
	}

	cmd := &cobra.Command{
		Use:     "edit <path>",
		Short:   "Update a task's body",
		GroupID: groupTask,
		Long: `Update a task's markdown body from --body or --file.

The edit is applied to the local cache immediately and rolled back if
the save is rejected.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content := opts.Body
			if opts.File != "" {
				data, err := os.ReadFile(opts.File)
				if err != nil {
					return fmt.Errorf("read %s: %w", opts.File, err)
				}
				content = string(data)
			}
			if content == "" {
				return fmt.Errorf("one of --body or --file is required")
			}

			uc := c.SaveDraftUseCase()
			if _, err := uc.Execute(cmd.Context(), usecase.SaveDraftInput{Path: args[0], Content: content}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Body, "body", "", "New task body")
	cmd.Flags().StringVar(&opts.File, "file", "", "Read the new body from a file")

	return cmd
}

// newDeleteCommand creates the rm command.
func newDeleteCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rm <path>",
		Short:   "Delete a task permanently",
		GroupID: groupTask,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.DeleteTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.DeleteTaskInput{Path: args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", out.Path)
			return nil
		},
	}
	return cmd
}

// newArchiveCommand creates the archive command.
func newArchiveCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "archive <path>",
		Short:   "Archive a task",
		GroupID: groupTask,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.ArchiveTaskUseCase()
			if _, err := uc.Execute(cmd.Context(), usecase.ArchiveTaskInput{Path: args[0]}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Archived %s\n", args[0])
			return nil
		},
	}
	return cmd
}

// newRestoreCommand creates the restore command.
func newRestoreCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "restore <path>",
		Short:   "Restore an archived task",
		GroupID: groupTask,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.ArchiveTaskUseCase()
			if _, err := uc.Restore(cmd.Context(), usecase.ArchiveTaskInput{Path: args[0]}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Restored %s\n", args[0])
			return nil
		},
	}
	return cmd
}

// newSplitCommand creates the split command.
func newSplitCommand(c *app.Container) *cobra.Command {
	var opts struct {
		Sections []int
		Archive  bool
	}

	cmd := &cobra.Command{
		Use:     "split <path>",
		Short:   "Split sections of a task into new tasks",
		GroupID: groupTask,
		Long: `Split "## " sections of a task's body out into new child tasks.

Section indices are zero-based in document order. Each new task carries
a back-reference to the task it was split from.

Example:
  agentdeck split tasks/big.md --section 0 --section 2 --archive`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.SplitTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.SplitTaskInput{
				Path:            args[0],
				SectionIndices:  opts.Sections,
				ArchiveOriginal: opts.Archive,
			})
			if err != nil {
				return err
			}
			for _, p := range out.NewPaths {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", p)
			}
			return nil
		},
	}

	cmd.Flags().IntSliceVar(&opts.Sections, "section", nil, "Section index to split out (repeatable)")
	cmd.Flags().BoolVar(&opts.Archive, "archive", false, "Archive the original task after the split")

	return cmd
}
