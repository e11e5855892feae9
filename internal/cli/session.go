package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/okabe-dev/agentdeck/internal/app"
	"github.com/okabe-dev/agentdeck/internal/domain"
	"github.com/okabe-dev/agentdeck/internal/usecase"
)

// newAssignCommand creates the assign command.
func newAssignCommand(c *app.Container) *cobra.Command {
	var model string

	cmd := &cobra.Command{
		Use:     "assign <path> <agent>",
		Short:   "Assign a task to a coding agent",
		GroupID: groupSession,
		Long: `Start an implementation session for the task with the given agent.

A task can hold one active session at a time; assigning while a
session is running is rejected.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.AssignAgentUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.AssignAgentInput{
				Path:      args[0],
				AgentType: args[1],
				Model:     model,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Session %s started (%s)\n", out.SessionID, out.Status.Display())
			return nil
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "Model override")

	return cmd
}

// newVerifyCommand creates the verify command.
func newVerifyCommand(c *app.Container) *cobra.Command {
	var agentType string

	cmd := &cobra.Command{
		Use:     "verify <path>",
		Short:   "Start a verification session",
		GroupID: groupSession,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.VerifyTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.VerifyTaskInput{Path: args[0], AgentType: agentType})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Verification session %s started\n", out.SessionID)
			return nil
		},
	}

	cmd.Flags().StringVar(&agentType, "agent", "", "Agent to verify with")

	return cmd
}

// newRewriteCommand creates the rewrite command.
func newRewriteCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "rewrite <path> <instructions...>",
		Short:   "Start a rewrite session with instructions",
		GroupID: groupSession,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.RewriteTaskUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.RewriteTaskInput{
				Path:         args[0],
				Instructions: strings.Join(args[1:], " "),
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Rewrite session %s started\n", out.SessionID)
			return nil
		},
	}
	return cmd
}

// newCancelCommand creates the cancel command.
func newCancelCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "cancel <path>",
		Short:   "Cancel the task's active session",
		GroupID: groupSession,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uc := c.CancelSessionUseCase()
			out, err := uc.Execute(cmd.Context(), usecase.CancelSessionInput{Path: args[0]})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cancelled session %s\n", out.SessionID)
			return nil
		},
	}
	return cmd
}

// newDebugCommand creates the debug command.
func newDebugCommand(c *app.Container) *cobra.Command {
	var sessions []string

	cmd := &cobra.Command{
		Use:     "debug <path> <run-id>",
		Short:   "Watch a multi-agent debug run and trigger synthesis",
		GroupID: groupSession,
		Long: `Watch the sibling sessions of a debug run and, once every member has
reached a terminal status, start the synthesis session that folds their
findings together. The synthesis session is started exactly once per
run, even though the aggregate status may report all-terminal on
consecutive polls.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			run := domain.DebugRun{
				ID:         args[1],
				TaskPath:   args[0],
				SessionIDs: sessions,
			}
			id, err := c.DebugOrchestrator().Run(cmd.Context(), run)
			if err != nil {
				return err
			}
			if id == "" {
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Synthesis session %s started\n", id)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&sessions, "session", nil, "Member session id (repeatable)")

	return cmd
}

// newAgentsCommand creates the agents command.
func newAgentsCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "agents",
		Short:   "List available agent types",
		GroupID: groupSession,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			uc := c.ListAgentsUseCase()
			out, err := uc.Execute(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			_, _ = fmt.Fprintln(w, "NAME\tMODELS")
			for _, a := range out.Agents {
				_, _ = fmt.Fprintf(w, "%s\t%s\n", a.Name, strings.Join(a.Models, ", "))
			}
			return w.Flush()
		},
	}
	return cmd
}
