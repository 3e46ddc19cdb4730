package cli

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/samirrijal/lgatracker/internal/core/domain"
	"github.com/samirrijal/lgatracker/internal/core/usecases"
)

func newWatchCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream visit and registry events from the broker until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRuntime(cmd, factory, false, func(rt *Runtime) error {
				if rt.Events == nil {
					return errors.New("watch needs nats.enabled=true")
				}
				ctx := cmd.Context()
				err := rt.Events.SubscribeVisitChanges(ctx, func(_ context.Context, c *domain.VisitChange) error {
					printf(cmd, "%s %s (%d): %s  %s\n", c.At.Format("15:04:05"), c.Name, c.RegionID,
						domain.FillFor(c.Visited), mutedStyle.Render(usecases.FormatProgress(c.Stats)))
					return nil
				})
				if err != nil {
					return err
				}
				err = rt.Events.SubscribeRegistryChanges(ctx, func(_ context.Context, c *domain.RegistryChange) error {
					printf(cmd, "%s registry loaded: %d regions, %d excluded\n", c.At.Format("15:04:05"), c.Regions, c.Excluded)
					return nil
				})
				if err != nil {
					return err
				}
				<-ctx.Done()
				return nil
			})
		},
	}
}
