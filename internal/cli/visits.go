package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

func newVisitsCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visits",
		Short: "Inspect or change the visited set",
	}
	cmd.AddCommand(newVisitsListCmd(factory), newVisitsToggleCmd(factory))
	return cmd
}

func newVisitsListCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print visited region ids, one per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, factory, false, func(rt *Runtime) error {
				for _, id := range rt.Tracker.Visits().IDs() {
					printf(cmd, "%d\n", id)
				}
				return nil
			})
		},
	}
}

func newVisitsToggleCmd(factory Factory) *cobra.Command {
	var offline bool
	cmd := &cobra.Command{
		Use:   "toggle <id>...",
		Short: "Flip the visited state of one or more regions",
		Long: `Flip the visited state of one or more regions.

By default the ids are checked against freshly loaded boundaries. --offline skips
the boundary fetch and accepts any id.

Changes are written to the shared store and, with nats.enabled, announced so a
running API server picks them up.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, len(args))
			for i, a := range args {
				id, err := strconv.ParseInt(a, 10, 64)
				if err != nil {
					return fmt.Errorf("invalid region id %q", a)
				}
				ids[i] = id
			}

			return withRuntime(cmd, factory, !offline, func(rt *Runtime) error {
				var failed bool
				for _, id := range ids {
					toggle := rt.Tracker.Toggle
					if offline {
						toggle = rt.Tracker.ToggleUnchecked
					}
					change, err := toggle(cmd.Context(), id)
					if err != nil {
						return fmt.Errorf("region %d: %w", id, err)
					}
					if change.Name != "" {
						printf(cmd, "%s (%d): %s%s\n", change.Name, id, domain.FillFor(change.Visited), persistedNote(change.Persisted))
					} else {
						printf(cmd, "%d: %s%s\n", id, domain.FillFor(change.Visited), persistedNote(change.Persisted))
					}
					failed = failed || !change.Persisted
				}
				if failed {
					return errors.New("some changes were not saved")
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "do not fetch boundaries; accept any id")
	return cmd
}

func persistedNote(ok bool) string {
	if ok {
		return ""
	}
	return " " + mutedStyle.Render("(not saved)")
}
