package cli

import (
	"github.com/spf13/cobra"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/okabe-dev/agentdeck/internal/app"
	"github.com/okabe-dev/agentdeck/internal/tui/watch"
)

// newWatchCommand creates the watch command.
func newWatchCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Watch tasks live",
		Long: `Open the live task view.

Updates are pushed over a websocket when a console endpoint is
configured and polled otherwise. This is also the default command when
agentdeck is run without arguments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, c)
		},
	}
	return cmd
}

// runWatch runs the watch TUI until the user quits.
func runWatch(cmd *cobra.Command, c *app.Container) error {
	sub := c.Subscription()
	defer sub.Close()

	model := watch.New(c, sub)
	p := tea.NewProgram(model,
		tea.WithAltScreen(),
		tea.WithOutput(cmd.OutOrStdout()),
		tea.WithContext(cmd.Context()),
	)
	_, err := p.Run()
	return err
}
