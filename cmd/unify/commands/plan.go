package commands

import (
	"github.com/spf13/cobra"

	"go.trai.ch/unify/internal/app"
)

func (c *CLI) newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Resolve the request into build plans",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			requestPath, _ := cmd.Flags().GetString("config")
			output, _ := cmd.Flags().GetString("output")
			targets, _ := cmd.Flags().GetStringArray("target")
			dev, _ := cmd.Flags().GetBool("dev")

			return c.app.Plan(cmd.Context(), requestPath, app.PlanOptions{
				Output:  output,
				Targets: targets,
				Dev:     dev,
			})
		},
	}
	cmd.Flags().StringP("output", "o", "", "Write the plan document to this file instead of stdout")
	cmd.Flags().StringArrayP("target", "t", nil, "Resolve only this target triple (repeatable, overrides the request)")
	cmd.Flags().Bool("dev", false, "Include dev dependencies on every root")
	return cmd
}
