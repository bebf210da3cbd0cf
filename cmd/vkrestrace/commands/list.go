package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gogpu/vkres/backend"
	"github.com/gogpu/vkres/internal/scenario"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenarios and registered backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCENARIO\tDESCRIPTION")
			for _, s := range scenario.All() {
				fmt.Fprintf(tw, "%s\t%s\n", s.Name, s.Description)
			}
			fmt.Fprintln(tw)
			fmt.Fprintln(tw, "BACKEND\t")
			for _, name := range backend.Available() {
				fmt.Fprintf(tw, "%s\t\n", name)
			}
			return tw.Flush()
		},
	}
}
