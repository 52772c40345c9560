package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"arcana-app/pkg/client"

	"github.com/spf13/cobra"
)

func newPlansCmd() *cobra.Command {
	var (
		apiURL   string
		regionID string
		planID   string
	)

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Print the plan catalog served by a running API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			catalog, err := client.New(apiURL).GetPlans(ctx, client.PlansQuery{
				RegionID: regionID,
				PlanID:   planID,
			})
			if err != nil {
				return err
			}
			return printCatalog(cmd.OutOrStdout(), catalog)
		},
	}

	cmd.Flags().StringVar(&apiURL, "api", "http://localhost:8080", "base URL of the ARCANA API")
	cmd.Flags().StringVar(&regionID, "region", "", "region id (BR, US, EU); resolved from the caller when empty")
	cmd.Flags().StringVar(&planID, "plan", "", "single plan id; requires --region")
	return cmd
}

func printCatalog(w io.Writer, c *client.Catalog) error {
	fmt.Fprintf(w, "Region: %s (%s, %s)\n\n", c.Region.ID, c.Region.Name, c.Region.CurrencyCode)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PLAN\tTITLE\tPRICE\tINTERVAL\tFEATURES")
	for _, p := range c.Plans {
		title := p.Title
		if p.Popular {
			title += " *"
		}
		if len(p.Prices) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t%s\n", p.ID, title, strings.Join(p.Features, ", "))
			continue
		}
		for _, price := range p.Prices {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, title, price.Formatted, price.Interval, strings.Join(p.Features, ", "))
		}
	}
	return tw.Flush()
}
