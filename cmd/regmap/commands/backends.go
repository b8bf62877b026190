package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/regmap/internal/core"
)

func newBackendsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the available backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tGROUP\tFORMATS\tDESCRIPTION")
			for _, group := range core.Groups() {
				for _, b := range core.ByGroup(group) {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", b.Key, b.Group, strings.Join(b.Formats, " "), b.Description)
				}
			}
			return tw.Flush()
		},
	}
}
