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

type cartLineView struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name,omitempty"`
	Qty       int     `json:"qty"`
	UnitPrice float64 `json:"unitPrice"`
	LineTotal float64 `json:"lineTotal"`
}

type cartView struct {
	Items []cartLineView `json:"items"`
	Count int            `json:"count"`
	domain.Totals
}

// NewCartCommand создаёт команды управления корзиной.
func NewCartCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the persisted cart",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show cart lines and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorefront(cmd, rootOpts, showCart)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <product-id> <qty>",
		Short: "Add qty of a product to the cart",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQty(args[1])
			if err != nil {
				return err
			}
			return withStorefront(cmd, rootOpts, func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
				res, err := sf.Cart.AddItem(ctx, args[0], qty)
				if err != nil {
					return err
				}
				if !res.Success {
					return rejected(res.Reason)
				}
				return showCart(ctx, sf, out)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "update <product-id> <qty>",
		Short: "Set the cart quantity of a product; 0 removes the line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := parseQty(args[1])
			if err != nil {
				return err
			}
			return withStorefront(cmd, rootOpts, func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
				res, err := sf.Cart.UpdateQuantity(ctx, args[0], qty)
				if err != nil {
					return err
				}
				if !res.Success {
					return rejected(res.Reason)
				}
				return showCart(ctx, sf, out)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a product line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, rootOpts, func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
				removed, err := sf.Cart.RemoveItem(ctx, args[0])
				if err != nil {
					return err
				}
				if !removed {
					return rejected(domain.ReasonNotInCart)
				}
				return showCart(ctx, sf, out)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove all lines from the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorefront(cmd, rootOpts, func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
				if err := sf.Cart.Clear(ctx); err != nil {
					return err
				}
				return showCart(ctx, sf, out)
			})
		},
	})

	return cmd
}

func showCart(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
	totals, err := sf.Cart.Totals(ctx)
	if err != nil {
		return err
	}

	view := cartView{Items: []cartLineView{}, Count: sf.Cart.Count(), Totals: totals}
	for _, line := range sf.Cart.Items() {
		lv := cartLineView{ProductID: line.ProductID, Qty: line.Qty}
		if p, ok := sf.Catalog.ByID(line.ProductID); ok {
			lv.Name = p.Name
			lv.UnitPrice = p.Price
			lv.LineTotal = p.Price * float64(line.Qty)
		}
		view.Items = append(view.Items, lv)
	}

	return out.Print("ok", view, func(w io.Writer) {
		if len(view.Items) == 0 {
			_, _ = fmt.Fprintln(w, "cart is empty")
			return
		}
		_, _ = fmt.Fprintln(w, "ID\tNAME\tQTY\tPRICE\tLINE")
		for _, l := range view.Items {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\n", l.ProductID, l.Name, l.Qty, l.UnitPrice, l.LineTotal)
		}
		_, _ = fmt.Fprintf(w, "items=%d\tsubtotal=%.2f\ttax=%.2f\ttotal=%.2f\n", view.Count, view.Subtotal, view.Tax, view.Total)
	})
}

// parseQty разбирает количество; проверку на целое положительное делает корзина.
func parseQty(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid qty %q", raw))
	}
	return v, nil
}
