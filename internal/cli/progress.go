package cli

import (
	"math"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func newProgressCmd(factory Factory) *cobra.Command {
	var width int
	cmd := &cobra.Command{
		Use:   "progress",
		Short: "Show how many LGAs have been visited",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, factory, true, func(rt *Runtime) error {
				printf(cmd, "%s\n", renderProgress(rt.Tracker.Progress(), width))
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&width, "width", "w", 40, "width of the progress bar")
	return cmd
}

func renderProgress(stats domain.ProgressStats, width int) string {
	bar := progress.New(
		progress.WithGradient("#cbd5e1", "#22c55e"),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
	)
	frac := math.Min(stats.Percentage/100, 1)
	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(usecases.FormatProgress(stats)),
		bar.ViewAs(frac),
	)
}
