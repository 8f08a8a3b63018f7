package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/stockfront/internal/inventory"
)

func newProductsCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "products",
		Aliases: []string{"product", "p"},
		Short:   "List and manage products",
	}
	cmd.AddCommand(
		newProductsListCmd(o),
		newProductsAddCmd(o),
		newProductsUpdateCmd(o),
		newProductsDeleteCmd(o),
	)
	return cmd
}

func productRows(products []inventory.Product) [][]string {
	rows := make([][]string, 0, len(products))
	for _, p := range products {
		desc := ""
		if p.Description != nil {
			desc = *p.Description
		}
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			p.Name,
			desc,
			strconv.FormatFloat(p.Price, 'f', 2, 64),
			strconv.Itoa(p.Stock),
		})
	}
	return rows
}

var productHeaders = []string{"ID", "NAME", "DESCRIPTION", "PRICE", "STOCK"}

func newProductsListCmd(o *options) *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List products, optionally filtered by name",
		Example: `stockctl products list
stockctl products list --name widget -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			products, err := c.ListProducts(cmd.Context(), name)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.output, products, productHeaders, productRows(products))
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "filter by product name")
	return cmd
}

// productFlags binds the create/update body to cmd's flags.
func productFlags(cmd *cobra.Command, in *inventory.ProductInput, desc *string) {
	f := cmd.Flags()
	f.StringVar(&in.Name, "name", "", "product name")
	f.StringVar(desc, "description", "", "product description")
	f.Float64Var(&in.Price, "price", 0, "unit price")
	f.IntVar(&in.Stock, "stock", 0, "units in stock")
	_ = cmd.MarkFlagRequired("name")
}

func withDescription(cmd *cobra.Command, in inventory.ProductInput, desc string) inventory.ProductInput {
	if cmd.Flags().Changed("description") {
		in.Description = &desc
	}
	return in
}

func newProductsAddCmd(o *options) *cobra.Command {
	var (
		in   inventory.ProductInput
		desc string
	)
	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Create a product",
		Example: `stockctl products add --name widget --price 2.5 --stock 10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := o.client()
			if err != nil {
				return err
			}
			p, err := c.AddProduct(cmd.Context(), withDescription(cmd, in, desc))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.output, p, productHeaders, productRows([]inventory.Product{*p}))
		},
	}
	productFlags(cmd, &in, &desc)
	return cmd
}

func newProductsUpdateCmd(o *options) *cobra.Command {
	var (
		in   inventory.ProductInput
		desc string
	)
	cmd := &cobra.Command{
		Use:     "update <id>",
		Short:   "Replace a product's fields",
		Example: `stockctl products update 4 --name widget --price 3 --stock 8`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			p, err := c.UpdateProduct(cmd.Context(), id, withDescription(cmd, in, desc))
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), o.output, p, productHeaders, productRows([]inventory.Product{*p}))
		},
	}
	productFlags(cmd, &in, &desc)
	return cmd
}

func newProductsDeleteCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a product",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := o.client()
			if err != nil {
				return err
			}
			if err := c.DeleteProduct(cmd.Context(), id); err != nil {
				return err
			}
			return renderMessage(cmd.OutOrStdout(), o.output, fmt.Sprintf("deleted product %d", id))
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
