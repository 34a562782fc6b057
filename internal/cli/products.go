package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// NewProductsCommand создаёт команду products.
func NewProductsCommand(rootOpts *RootOptions) *cobra.Command {
	var filter domain.ProductFilter

	cmd := &cobra.Command{
		Use:   "products",
		Short: "List catalog products with stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorefront(cmd, rootOpts, func(_ context.Context, sf *app.Storefront, out *OutputFormatter) error {
				products := sf.Catalog.Filter(filter)
				return out.Print("ok", products, func(w io.Writer) {
					printProducts(w, products)
				})
			})
		},
	}

	cmd.Flags().StringVar(&filter.Query, "q", "", "case-insensitive search in name, description and sku")
	cmd.Flags().StringVar(&filter.Category, "category", "", "exact category")
	return cmd
}

func printProducts(w io.Writer, products []domain.Product) {
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%.2f\t%d\n", p.ID, p.Name, p.Category, p.Price, p.Stock)
	}
}
