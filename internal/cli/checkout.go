package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// NewCheckoutCommand создаёт команду оформления текущей корзины.
func NewCheckoutCommand(rootOpts *RootOptions) *cobra.Command {
	var customer domain.Customer

	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order from the persisted cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorefront(cmd, rootOpts, func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
				order, result, err := sf.Checkout.Checkout(ctx, sf.Cart, customer)
				if err != nil {
					return err
				}
				if !result.Success {
					if printErr := out.Print("rejected", result, func(w io.Writer) {
						printRejection(w, result)
					}); printErr != nil {
						return printErr
					}
					return rejected(result.Reason)
				}
				return out.Print("ok", order, func(w io.Writer) {
					printOrder(w, order)
				})
			})
		},
	}

	cmd.Flags().StringVar(&customer.Name, "name", "", "customer name")
	cmd.Flags().StringVar(&customer.Email, "email", "", "customer email")
	cmd.Flags().StringVar(&customer.Address, "address", "", "shipping address")
	return cmd
}

func printRejection(w io.Writer, result domain.CheckoutResult) {
	_, _ = fmt.Fprintf(w, "checkout rejected: %s\n", result.Reason)
	for _, problem := range result.FieldErrors {
		_, _ = fmt.Fprintf(w, "  %s\n", problem)
	}
	for _, item := range result.Items {
		if item.OK {
			continue
		}
		available := "-"
		if item.Available != nil {
			available = fmt.Sprint(*item.Available)
		}
		_, _ = fmt.Fprintf(w, "  %s\t%s\tavailable=%s\n", item.ProductID, item.Reason, available)
	}
}
