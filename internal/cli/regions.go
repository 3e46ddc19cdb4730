package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/samirrijal/lgatracker/internal/core/domain"
)

func newRegionsCmd(factory Factory) *cobra.Command {
	var visitedOnly, unvisitedOnly bool
	var query string
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "List regions with their visited state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if visitedOnly && unvisitedOnly {
				return fmt.Errorf("--visited and --unvisited are mutually exclusive")
			}
			return withRuntime(cmd, factory, true, func(rt *Runtime) error {
				regions, err := rt.Tracker.Regions()
				if err != nil {
					return err
				}
				q := strings.ToLower(query)

				table := tablewriter.NewWriter(cmd.OutOrStdout())
				table.SetHeader([]string{"ID", "Name", "Visited", "Rings"})
				table.SetAutoFormatHeaders(false)
				table.SetBorder(false)
				table.SetCenterSeparator("")
				table.SetAutoWrapText(false)
				table.SetColumnAlignment([]int{tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_RIGHT})

				shown := 0
				for _, r := range regions {
					visited := rt.Tracker.Visits().IsVisited(r.ID)
					if (visitedOnly && !visited) || (unvisitedOnly && visited) {
						continue
					}
					if q != "" && !strings.Contains(strings.ToLower(r.Name), q) {
						continue
					}
					table.Append([]string{strconv.FormatInt(r.ID, 10), r.Name, mark(visited), strconv.Itoa(len(r.Rings))})
					shown++
				}
				table.SetFooter([]string{"", fmt.Sprintf("%d shown", shown), "", ""})
				table.Render()
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&visitedOnly, "visited", false, "only visited regions")
	cmd.Flags().BoolVar(&unvisitedOnly, "unvisited", false, "only unvisited regions")
	cmd.Flags().StringVarP(&query, "query", "q", "", "case-insensitive name filter")
	return cmd
}

func newLocateCmd(factory Factory) *cobra.Command {
	return &cobra.Command{
		Use:     "locate <lat> <lon>",
		Short:   "Find the region containing a point",
		Example: "  lgactl locate -- -33.87 151.21",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			lat, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid latitude %q", args[0])
			}
			lon, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid longitude %q", args[1])
			}
			return withRuntime(cmd, factory, true, func(rt *Runtime) error {
				r, err := rt.Tracker.Locate(domain.GeoPoint{Lat: lat, Lon: lon})
				if err != nil {
					return err
				}
				printf(cmd, "%s (%d) %s\n", r.Name, r.ID, mutedStyle.Render(rt.Tracker.StyleFor(r.ID).String()))
				return nil
			})
		},
	}
}

func mark(visited bool) string {
	if visited {
		return "✓"
	}
	return ""
}
