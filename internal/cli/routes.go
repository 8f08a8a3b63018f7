package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/stockfront/internal/logger"
	"github.com/MrSnakeDoc/stockfront/internal/navigation"
	"github.com/MrSnakeDoc/stockfront/internal/views"
)

func newRoutesCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Inspect navigation route tables",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a route table file the way the console does at startup",
		Long: "Validate a route table file the way the console does at startup.\n\n" +
			"Known views: " + strings.Join(views.Names(), ", ") + ".",
		Example: `stockctl routes check routes.yaml`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := navigation.LoadFile(args[0])
			if err != nil {
				return err
			}
			// The router is built and discarded; views stay unbuilt.
			if _, err := navigation.NewRouter(table, views.NewCatalog(nil, logger.Nop()), nil); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			rows := make([][]string, 0, len(table))
			for _, e := range table {
				rows = append(rows, []string{e.Path, e.View})
			}
			return render(cmd.OutOrStdout(), o.output, table, []string{"PATH", "VIEW"}, rows)
		},
	})
	return cmd
}
