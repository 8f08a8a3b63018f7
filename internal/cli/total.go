package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func newTotalCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the total units in stock across all products",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			total, err := c.TotalStock(cmd.Context())
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.output, map[string]int{"total": total},
				[]string{"TOTAL"}, [][]string{{strconv.Itoa(total)}})
		},
	}
}
