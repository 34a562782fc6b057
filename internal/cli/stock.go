package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

type stockView struct {
	ProductID string `json:"productId"`
	Stock     int    `json:"stock"`
}

// NewStockCommand создаёт команды stock set и stock add.
func NewStockCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Change product stock",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "set <product-id> <stock>",
		Short: "Set absolute stock value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := parseCount(args[1])
			if err != nil {
				return err
			}
			return withStorefront(cmd, rootOpts, func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
				found, err := sf.Ledger.SetStock(ctx, args[0], value)
				if err != nil {
					return err
				}
				if !found {
					return rejected(domain.ReasonProductNotFound)
				}
				return printStock(ctx, sf, args[0], out)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <product-id> <qty>",
		Short: "Restock a product by qty",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseCount(args[1])
			if err != nil {
				return err
			}
			return withStorefront(cmd, rootOpts, func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
				if _, ok := sf.Catalog.ByID(args[0]); !ok {
					return rejected(domain.ReasonProductNotFound)
				}
				if err := sf.Ledger.IncrementStock(ctx, []domain.LineItem{{ProductID: args[0], Qty: qty}}); err != nil {
					return err
				}
				return printStock(ctx, sf, args[0], out)
			})
		},
	})

	return cmd
}

func printStock(ctx context.Context, sf *app.Storefront, productID string, out *OutputFormatter) error {
	stock, err := sf.Ledger.GetStock(ctx, productID)
	if err != nil {
		return err
	}
	view := stockView{ProductID: productID, Stock: stock}
	return out.Print("ok", view, func(w io.Writer) {
		_, _ = fmt.Fprintf(w, "%s\tstock=%d\n", view.ProductID, view.Stock)
	})
}

// parseCount разбирает неотрицательное целое из аргумента.
func parseCount(raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid count %q: must be a non-negative integer", raw))
	}
	return v, nil
}
