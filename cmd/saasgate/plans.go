package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
)

func newPlansCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "plans",
		Short: "Print the plan catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plans := entitlement.Plans()
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(plans)
			}
			return writePlanTable(cmd.OutOrStdout(), plans)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}

func writePlanTable(out io.Writer, plans []entitlement.Plan) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tPRICE\tTRIAL\tMEMBERS\tFEATURES")
	for _, p := range plans {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, formatPrice(p), formatTrial(p.TrialDays), formatMembers(p.MaxMembers), formatFeatures(p.Features))
	}
	return tw.Flush()
}

func formatPrice(p entitlement.Plan) string {
	amount := fmt.Sprintf("$%d.%02d", p.Price.Amount/100, p.Price.Amount%100)
	if p.Interval == entitlement.IntervalMonthly {
		return amount + "/mo"
	}
	return amount + " credits"
}

func formatTrial(days int) string {
	if days == 0 {
		return "-"
	}
	return fmt.Sprintf("%dd", days)
}

func formatMembers(n int64) string {
	if n == entitlement.Unlimited {
		return "unlimited"
	}
	return fmt.Sprint(n)
}

func formatFeatures(fs []entitlement.Feature) string {
	if len(fs) == 0 {
		return "-"
	}
	names := make([]string, len(fs))
	for i, f := range fs {
		names[i] = string(f)
	}
	return strings.Join(names, ",")
}
