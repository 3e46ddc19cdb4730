// Package cli implements lgactl, a command-line client that works directly on the
// configured visit store.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/samirrijal/lgatracker/internal/core/ports"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

// Runtime is what a command needs to run.
type Runtime struct {
	Tracker *usecases.Tracker
	// Events is nil when no broker is configured.
	Events ports.EventSubscriber
	Close  func()
}

// Factory builds a Runtime with the visited set already loaded. The registry is loaded
// only when withRegistry is true.
type Factory func(ctx context.Context, withRegistry bool) (*Runtime, error)

// NewRootCmd assembles the lgactl command tree.
func NewRootCmd(factory Factory) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lgactl",
		Short: "Track visited Australian Local Government Areas",
		Long: `lgactl reads and updates the visited-LGA store used by the API server.

Boundaries are fetched from OpenStreetMap when a command needs them, which can
take a minute for a whole country unless a cached snapshot is available.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newProgressCmd(factory),
		newRegionsCmd(factory),
		newLocateCmd(factory),
		newVisitsCmd(factory),
		newWatchCmd(factory),
	)
	return cmd
}

// withRuntime builds a runtime for the duration of fn.
func withRuntime(cmd *cobra.Command, factory Factory, withRegistry bool, fn func(*Runtime) error) error {
	rt, err := factory(cmd.Context(), withRegistry)
	if err != nil {
		return err
	}
	if rt.Close != nil {
		defer rt.Close()
	}
	return fn(rt)
}

func printf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.OutOrStdout(), format, args...)
}
