package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"go.trai.ch/unify/internal/core/domain"
)

func (c *CLI) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the target triples this build knows",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			for _, triple := range domain.KnownTriples() {
				_, _ = fmt.Fprintln(out, triple)
			}
		},
	}
}
