package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okabe-dev/agentdeck/internal/app"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/usecase"
)

// newMergeCommand creates the merge command.
func newMergeCommand(c *app.Container) *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:     "merge <path>",
		Short:   "Merge the task's session branch into the base branch",
		GroupID: groupReview,
		Long: `Merge the branch of the task's most recent session into the base
branch and record the merge in the task's history.

A task with an unreverted merge cannot be merged again until that
merge is reverted. After merging, the task awaits QA.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if target == "" {
				target = c.AppConfig.TargetBranch()
			}
			uc := c.MergeToMainUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.MergeToMainInput{Path: args[0], TargetBranch: target})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Merged as %s; awaiting QA\n", out.CommitHash)
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target branch (default: configured base branch)")

	return cmd
}

// newQACommand creates the qa command with pass/fail subcommands.
func newQACommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "qa",
		Short:   "Record a QA verdict on a merged task",
		GroupID: groupReview,
	}

	verdict := func(name string, status domain.QAStatus) *cobra.Command {
		return &cobra.Command{
			Use:   name + " <path>",
			Short: "Mark the task's merge as qa-" + name,
			Args:  cobra.ExactArgs(1),
			RunE: func(sub *cobra.Command, args []string) error {
				uc := c.SetQAStatusUseCase()
				if _, err := uc.Execute(sub.Context(), usecase.SetQAStatusInput{Path: args[0], Status: status}); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(sub.OutOrStdout(), "QA %s recorded for %s\n", name, args[0])
				return nil
			},
		}
	}

	cmd.AddCommand(verdict("pass", domain.QAPass), verdict("fail", domain.QAFail))

	return cmd
}

// newRevertCommand creates the revert command.
func newRevertCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "revert <path>",
		Short:   "Revert the failed merge of a task",
		GroupID: groupReview,
		Long: `Revert the outstanding merge of a task that failed QA.

The revert commit undoes the merge on the base branch and the task's
history entry is stamped, making the task mergeable again after a
rewrite.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.RevertMergeUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.RevertMergeInput{Path: args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Reverted by %s\n", out.RevertCommitHash)
			return nil
		},
	}
	return cmd
}

// newCommitCommand creates the commit command.
func newCommitCommand(c *app.Container) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:     "commit <path>",
		Short:   "Commit the task's uncommitted files",
		GroupID: groupReview,
		Long: `Commit the files the task's sessions left uncommitted, scoped to
exactly those files.

The commit message is taken from --message if given, otherwise from
the message pre-generated when the session completed, otherwise a
fresh one is generated.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.CommitTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.CommitTaskInput{Path: args[0], Message: message})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Committed %d file(s) as %s: %s\n", len(out.Files), out.CommitHash, out.Message)
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Commit message (overrides generation)")

	return cmd
}
