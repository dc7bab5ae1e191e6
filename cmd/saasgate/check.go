package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
)

var (
	errDenied        = errors.New("access denied")
	errNothingToTest = errors.New("--feature or --members is required")
)

func newCheckCmd() *cobra.Command {
	var (
		plan, feature string
		members       int64
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check whether a plan grants a feature or fits a team size",
		Example: `  saasgate check --plan business_starter --feature audit
  saasgate check --plan pay_as_you_go --members 8
  saasgate check --feature analytics`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if feature == "" && members <= 0 {
				return errNothingToTest
			}

			var holder entitlement.PlanHolder = entitlement.PlanOf(entitlement.PlanNone)
			if plan != "" {
				id, err := entitlement.ParsePlanID(plan)
				if err != nil {
					return fmt.Errorf("%w: %q", err, plan)
				}
				holder = entitlement.PlanOf(id)
			}

			out := cmd.OutOrStdout()
			denied := false

			if feature != "" {
				f, err := entitlement.ParseFeature(feature)
				if err != nil {
					return fmt.Errorf("%w: %q", err, feature)
				}
				if entitlement.HasAccess(holder, f) {
					fmt.Fprintf(out, "granted: %s\n", f.Title())
				} else {
					fmt.Fprintf(out, "denied: %s requires %s\n", f.Title(), entitlement.RequiredPlanLabel(f))
					denied = true
				}
			}

			if members > 0 {
				id, _ := holder.CurrentPlan()
				p, ok := entitlement.LookupPlan(id)
				switch {
				case !ok:
					fmt.Fprintf(out, "denied: %d members need a plan\n", members)
					denied = true
				case p.AllowsMembers(members):
					fmt.Fprintf(out, "granted: %d members on %s\n", members, p.Name)
				default:
					fmt.Fprintf(out, "denied: %s allows at most %d members\n", p.Name, p.MaxMembers)
					denied = true
				}
			}

			if denied {
				return errDenied
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&plan, "plan", "", "plan id, empty for no plan")
	cmd.Flags().StringVar(&feature, "feature", "", "feature name or provider alias")
	cmd.Flags().Int64Var(&members, "members", 0, "team size to check against the plan's member limit")
	return cmd
}
