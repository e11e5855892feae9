// Package cli provides the command-line interface for agentdeck.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/okabe-dev/agentdeck/internal/app"
)

// Command group IDs.
const (
	groupTask    = "task"
	groupSession = "session"
	groupReview  = "review"
)

// NewRootCommand creates the root command for agentdeck.
// It receives the container for dependency injection and version for display.
func NewRootCommand(c *app.Container, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "agentdeck",
		Short: "AI coding agent task console",
		Long: `agentdeck manages tasks worked on by AI coding agents.

Tasks are created, assigned to agents, reviewed, merged into the base
branch and QA'd from one place. State is fetched from the console
backend and cached locally with optimistic updates, so every action
reflects immediately and rolls back if the backend rejects it.

Run without arguments to open the live task watch view.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, c)
		},
	}

	root.AddGroup(
		&cobra.Group{ID: groupTask, Title: "Task Commands:"},
		&cobra.Group{ID: groupSession, Title: "Session Commands:"},
		&cobra.Group{ID: groupReview, Title: "Review Commands:"},
	)

	root.AddCommand(
		newNewCommand(c),
		newListCommand(c),
		newShowCommand(c),
		newEditCommand(c),
		newDeleteCommand(c),
		newArchiveCommand(c),
		newRestoreCommand(c),
		newSplitCommand(c),

		newAssignCommand(c),
		newVerifyCommand(c),
		newRewriteCommand(c),
		newCancelCommand(c),
		newDebugCommand(c),
		newAgentsCommand(c),

		newMergeCommand(c),
		newQACommand(c),
		newRevertCommand(c),
		newCommitCommand(c),

		newWatchCommand(c),
	)

	return root
}
