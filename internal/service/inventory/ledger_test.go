package inventory_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/service/inventory"
	"github.com/vladislavdragonenkov/storefront/internal/storage/dataset"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type failingWrites struct {
	domain.Store
	err error
}

func (s failingWrites) Write(context.Context, domain.Dataset, []byte) error { return s.err }

func newLedger(t *testing.T, products ...domain.Product) (*inventory.Ledger, domain.Store) {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, dataset.SaveProducts(context.Background(), store, products))
	return inventory.NewLedger(store), store
}

func stockOf(t *testing.T, store domain.Store, id string) int {
	t.Helper()
	products, err := dataset.LoadProducts(context.Background(), store)
	require.NoError(t, err)
	idx := domain.FindProduct(products, id)
	require.GreaterOrEqual(t, idx, 0, "product %s missing", id)
	return products[idx].Stock
}

func TestLedger_GetStock(t *testing.T) {
	ledger, _ := newLedger(t, domain.Product{ID: "P1", Stock: 0})
	ctx := context.Background()

	stock, err := ledger.GetStock(ctx, "P1")
	require.NoError(t, err)
	require.Equal(t, 0, stock)

	_, err = ledger.GetStock(ctx, "P404")
	require.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestLedger_IsAvailable(t *testing.T) {
	ledger, _ := newLedger(t, domain.Product{ID: "P1", Stock: 3})
	ctx := context.Background()

	cases := []struct {
		id   string
		qty  float64
		want bool
	}{
		{"P1", 1, true},
		{"P1", 3, true},
		{"P1", 4, false},
		{"P1", 0, false},
		{"P1", -1, false},
		{"P1", math.NaN(), false},
		{"P1", domain.CoerceQuantity("2"), true},
		{"P1", domain.CoerceQuantity("abc"), false},
		{"P404", 1, false},
	}
	for _, tc := range cases {
		got, err := ledger.IsAvailable(ctx, tc.id, tc.qty)
		require.NoError(t, err)
		require.Equal(t, tc.want, got, "IsAvailable(%s, %v)", tc.id, tc.qty)
	}
}

func TestLedger_DecrementStock_AllPass(t *testing.T) {
	ledger, store := newLedger(t,
		domain.Product{ID: "P1", Stock: 5},
		domain.Product{ID: "P2", Stock: 2},
	)

	res, err := ledger.DecrementStock(context.Background(), []domain.LineItem{
		{ProductID: "P1", Qty: 2},
		{ProductID: "P2", Qty: 2},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Len(t, res.Items, 2)
	require.Equal(t, 3, stockOf(t, store, "P1"))
	require.Equal(t, 0, stockOf(t, store, "P2"))
}

func TestLedger_DecrementStock_PartialFailureKeepsPassedItems(t *testing.T) {
	ledger, store := newLedger(t,
		domain.Product{ID: "P1", Stock: 5},
		domain.Product{ID: "P2", Stock: 1},
	)

	res, err := ledger.DecrementStock(context.Background(), []domain.LineItem{
		{ProductID: "P1", Qty: 2},
		{ProductID: "P2", Qty: 3},
		{ProductID: "P404", Qty: 1},
		{ProductID: "P1", Qty: 0},
	})
	require.NoError(t, err)
	require.False(t, res.Success)

	require.True(t, res.Items[0].OK)
	require.Equal(t, domain.ReasonInsufficientStock, res.Items[1].Reason)
	require.NotNil(t, res.Items[1].Available)
	require.Equal(t, 1, *res.Items[1].Available)
	require.Equal(t, domain.ReasonProductNotFound, res.Items[2].Reason)
	require.Equal(t, domain.ReasonInvalidQuantity, res.Items[3].Reason)

	require.Equal(t, 3, stockOf(t, store, "P1"))
	require.Equal(t, 1, stockOf(t, store, "P2"))
}

func TestLedger_DecrementStock_SameProductTwiceInBatch(t *testing.T) {
	ledger, store := newLedger(t, domain.Product{ID: "P1", Stock: 3})

	res, err := ledger.DecrementStock(context.Background(), []domain.LineItem{
		{ProductID: "P1", Qty: 2},
		{ProductID: "P1", Qty: 2},
	})
	require.NoError(t, err)
	require.False(t, res.Success)
	require.True(t, res.Items[0].OK)
	require.False(t, res.Items[1].OK)
	require.Equal(t, domain.ReasonInsufficientStock, res.Items[1].Reason)
	require.Equal(t, 1, *res.Items[1].Available)
	require.Equal(t, 1, stockOf(t, store, "P1"))
}

func TestLedger_DecrementStock_PersistFailurePropagates(t *testing.T) {
	store := memory.NewStore()
	require.NoError(t, dataset.SaveProducts(context.Background(), store, []domain.Product{{ID: "P1", Stock: 5}}))
	boom := errors.New("write refused")
	ledger := inventory.NewLedger(failingWrites{Store: store, err: boom})

	_, err := ledger.DecrementStock(context.Background(), []domain.LineItem{{ProductID: "P1", Qty: 1}})
	require.ErrorIs(t, err, boom)
	require.True(t, domain.IsStorageFailure(err))
	require.Equal(t, 5, stockOf(t, store, "P1"))
}

func TestLedger_IncrementStock(t *testing.T) {
	ledger, store := newLedger(t, domain.Product{ID: "P1", Stock: 1})
	ctx := context.Background()

	require.NoError(t, ledger.IncrementStock(ctx, []domain.LineItem{
		{ProductID: "P1", Qty: 4},
		{ProductID: "P404", Qty: 10},
	}))
	require.Equal(t, 5, stockOf(t, store, "P1"))

	err := ledger.IncrementStock(ctx, []domain.LineItem{{ProductID: "P1", Qty: -9}})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	require.Equal(t, 5, stockOf(t, store, "P1"))
}

func TestLedger_SetStock(t *testing.T) {
	ledger, store := newLedger(t, domain.Product{ID: "P1", Stock: 1})
	ctx := context.Background()

	ok, err := ledger.SetStock(ctx, "P1", 9)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 9, stockOf(t, store, "P1"))

	ok, err = ledger.SetStock(ctx, "P404", 9)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = ledger.SetStock(ctx, "P1", -1)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	require.Equal(t, 9, stockOf(t, store, "P1"))
}

func TestLedger_UpdateProduct(t *testing.T) {
	ledger, store := newLedger(t, domain.Product{ID: "P1", Name: "Mug", Price: 3, Stock: 1})
	ctx := context.Background()

	ok, err := ledger.UpdateProduct(ctx, domain.Product{ID: "P1", Name: "Big mug", Price: 4, Stock: 2})
	require.NoError(t, err)
	require.True(t, ok)

	products, err := ledger.Products(ctx)
	require.NoError(t, err)
	require.Equal(t, "Big mug", products[0].Name)
	require.Equal(t, 2, stockOf(t, store, "P1"))

	ok, err = ledger.UpdateProduct(ctx, domain.Product{ID: "P404"})
	require.NoError(t, err)
	require.False(t, ok)

	_, err = ledger.UpdateProduct(ctx, domain.Product{ID: "P1", Stock: -1})
	require.ErrorIs(t, err, domain.ErrInvalidProduct)
}

func TestLedger_StockNeverNegative(t *testing.T) {
	ledger, store := newLedger(t, domain.Product{ID: "P1", Stock: 4})
	ctx := context.Background()

	batches := [][]domain.LineItem{
		{{ProductID: "P1", Qty: 3}},
		{{ProductID: "P1", Qty: 3}},
		{{ProductID: "P1", Qty: 1}, {ProductID: "P1", Qty: 1}},
		{{ProductID: "P1", Qty: 1}},
	}
	for _, batch := range batches {
		_, err := ledger.DecrementStock(ctx, batch)
		require.NoError(t, err)
		require.GreaterOrEqual(t, stockOf(t, store, "P1"), 0)
	}
	require.Equal(t, 0, stockOf(t, store, "P1"))
}

func TestLedger_IncrementOverflowRejectsBatch(t *testing.T) {
	ledger, store := newLedger(t,
		domain.Product{ID: "P1", Stock: 5},
		domain.Product{ID: "P2", Stock: 2},
	)
	ctx := context.Background()

	err := ledger.IncrementStock(ctx, []domain.LineItem{
		{ProductID: "P2", Qty: 1},
		{ProductID: "P1", Qty: math.MaxInt},
	})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	require.Equal(t, 5, stockOf(t, store, "P1"))
	require.Equal(t, 2, stockOf(t, store, "P2"))

	require.NoError(t, ledger.IncrementStock(ctx, []domain.LineItem{{ProductID: "P1", Qty: domain.MaxStock - 5}}))
	require.Equal(t, domain.MaxStock, stockOf(t, store, "P1"))

	err = ledger.IncrementStock(ctx, []domain.LineItem{{ProductID: "P1", Qty: 1}})
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
	require.Equal(t, domain.MaxStock, stockOf(t, store, "P1"))

	_, err = ledger.SetStock(ctx, "P1", domain.MaxStock+1)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}
