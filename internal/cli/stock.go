package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/stockfront/internal/inventory"
)

func newStockCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Record stock movements and read the ledger",
	}
	cmd.AddCommand(
		newStockMoveCmd(o, "in", "Record inbound units", inventory.StockIn),
		newStockMoveCmd(o, "out", "Record outbound units", inventory.StockOut),
		newStockLogsCmd(o),
	)
	return cmd
}

func newStockMoveCmd(o *options, use, short string, dir inventory.StockDirection) *cobra.Command {
	return &cobra.Command{
		Use:     use + " <product-id> <quantity>",
		Short:   short,
		Example: "stockctl stock " + use + " 4 10",
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			qty, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid quantity %q", args[1])
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			msg, err := c.ChangeStock(cmd.Context(), inventory.StockChange{ProductID: id, Quantity: qty, Direction: dir})
			if err != nil {
				return err
			}
			return renderMessage(cmd.OutOrStdout(), o.output, msg)
		},
	}
}

func newStockLogsCmd(o *options) *cobra.Command {
	var productID int64
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show stock movements, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			logs, err := c.StockLogs(cmd.Context(), productID)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(logs))
			for _, l := range logs {
				rows = append(rows, []string{
					l.Timestamp.Format("2006-01-02 15:04:05"),
					strconv.FormatInt(l.ProductID, 10),
					string(l.Direction),
					strconv.Itoa(l.Change),
				})
			}
			return render(cmd.OutOrStdout(), o.output, logs, []string{"WHEN", "PRODUCT", "TYPE", "CHANGE"}, rows)
		},
	}
	cmd.Flags().Int64Var(&productID, "product-id", 0, "only this product")
	return cmd
}
