package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vladislavdragonenkov/storefront/internal/app"
	"github.com/vladislavdragonenkov/storefront/internal/domain"
)

// NewOrdersCommand создаёт команду просмотра журнала заказов.
func NewOrdersCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orders [order-id]",
		Short: "List placed orders or show one order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorefront(cmd, rootOpts, func(ctx context.Context, sf *app.Storefront, out *OutputFormatter) error {
				if len(args) == 1 {
					order, err := sf.Orders.Get(ctx, args[0])
					if err != nil {
						if domain.IsNotFound(err) {
							return WrapExitError(ExitRejected, "order not found", err)
						}
						return err
					}
					return out.Print("ok", order, func(w io.Writer) { printOrder(w, order) })
				}

				orders, err := sf.Orders.List(ctx)
				if err != nil {
					return err
				}
				return out.Print("ok", orders, func(w io.Writer) {
					_, _ = fmt.Fprintln(w, "ID\tCREATED\tCUSTOMER\tITEMS\tTOTAL")
					for _, o := range orders {
						_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\n",
							o.ID, o.CreatedAt.Format("2006-01-02 15:04:05"), o.Customer.Email, len(o.Items), o.Totals.Total)
					}
				})
			})
		},
	}
}

func printOrder(w io.Writer, order domain.Order) {
	_, _ = fmt.Fprintf(w, "order %s\t%s\n", order.ID, order.CreatedAt.Format("2006-01-02 15:04:05"))
	_, _ = fmt.Fprintf(w, "customer\t%s <%s>\t%s\n", order.Customer.Name, order.Customer.Email, order.Customer.Address)
	for _, line := range order.Items {
		_, _ = fmt.Fprintf(w, "  %s\t%s\t%d x %.2f\t%.2f\n", line.ProductID, line.Name, line.Qty, line.UnitPrice, line.LineTotal)
	}
	_, _ = fmt.Fprintf(w, "subtotal=%.2f\ttax=%.2f\ttotal=%.2f\n", order.Totals.Subtotal, order.Totals.Tax, order.Totals.Total)
}
