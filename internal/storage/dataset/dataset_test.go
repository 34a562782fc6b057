package dataset_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/dataset"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

type brokenStore struct {
	domain.Store
	readErr  error
	writeErr error
}

func (s brokenStore) Read(ctx context.Context, ds domain.Dataset) ([]byte, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return s.Store.Read(ctx, ds)
}

func (s brokenStore) Write(ctx context.Context, ds domain.Dataset, data []byte) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	return s.Store.Write(ctx, ds, data)
}

func TestLoadProducts_AbsentIsEmpty(t *testing.T) {
	products, err := dataset.LoadProducts(context.Background(), memory.NewStore())
	require.NoError(t, err)
	require.NotNil(t, products)
	require.Empty(t, products)
}

func TestProducts_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	want := []domain.Product{
		{ID: "P1", Name: "Mug", Category: "kitchen", SKU: "MUG-1", Price: 12.5, Stock: 3},
		{ID: "P2", Name: "Lamp", Price: 40, Stock: 0},
	}
	require.NoError(t, dataset.SaveProducts(ctx, store, want))

	got, err := dataset.LoadProducts(ctx, store)
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestLoadProducts_NonIntegerStockReadsAsZero(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Write(ctx, domain.DatasetProducts, []byte(
		`[{"id":"A","price":1,"stock":2.5},{"id":"B","price":1,"stock":"7"},{"id":"C","price":1},{"id":"D","price":1,"stock":4}]`,
	)))

	products, err := dataset.LoadProducts(ctx, store)
	require.NoError(t, err)
	require.Len(t, products, 4)
	require.Equal(t, 0, products[0].Stock)
	require.Equal(t, 0, products[1].Stock)
	require.Equal(t, 0, products[2].Stock)
	require.Equal(t, 4, products[3].Stock)
}

func TestLoadProducts_OutOfRangeStockReadsAsZero(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Write(ctx, domain.DatasetProducts, []byte(
		`[{"id":"A","price":1,"stock":-3},{"id":"B","price":1,"stock":1e30},{"id":"C","price":1,"stock":9007199254740991}]`,
	)))

	products, err := dataset.LoadProducts(ctx, store)
	require.NoError(t, err)
	require.Len(t, products, 3)
	require.Equal(t, 0, products[0].Stock)
	require.Equal(t, 0, products[1].Stock)
	require.Equal(t, domain.MaxStock, products[2].Stock)
}

func TestLoadProducts_Corrupt(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	require.NoError(t, store.Write(ctx, domain.DatasetProducts, []byte(`{not json`)))

	_, err := dataset.LoadProducts(ctx, store)
	require.ErrorIs(t, err, domain.ErrDatasetCorrupt)
	require.True(t, domain.IsStorageFailure(err))
}

func TestCart_RoundTripAndShape(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	lines, err := dataset.LoadCart(ctx, store)
	require.NoError(t, err)
	require.Empty(t, lines)

	require.NoError(t, dataset.SaveCart(ctx, store, []domain.LineItem{{ProductID: "P1", Qty: 2}}))

	raw, err := store.Read(ctx, domain.DatasetCart)
	require.NoError(t, err)
	require.JSONEq(t, `{"items":[{"productId":"P1","qty":2}]}`, string(raw))

	require.NoError(t, dataset.SaveCart(ctx, store, nil))
	raw, err = store.Read(ctx, domain.DatasetCart)
	require.NoError(t, err)
	require.JSONEq(t, `{"items":[]}`, string(raw))
}

func TestStoreFailuresAreWrapped(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk on fire")
	store := brokenStore{Store: memory.NewStore(), readErr: boom, writeErr: boom}

	_, err := dataset.LoadProducts(ctx, store)
	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, boom)

	err = dataset.SaveCart(ctx, store, nil)
	require.ErrorIs(t, err, domain.ErrStorage)
	require.ErrorIs(t, err, boom)
}

func TestExists(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	ok, err := dataset.Exists(ctx, store, domain.DatasetOrders)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.Write(ctx, domain.DatasetOrders, []byte(`[]`)))
	ok, err = dataset.Exists(ctx, store, domain.DatasetOrders)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOrderLog_AppendListGet(t *testing.T) {
	ctx := context.Background()
	log := dataset.NewOrderLog(memory.NewStore())

	orders, err := log.List(ctx)
	require.NoError(t, err)
	require.Empty(t, orders)

	first := sampleOrder("ORD-1")
	second := sampleOrder("ORD-2")
	require.NoError(t, log.Append(ctx, first))
	require.NoError(t, log.Append(ctx, second))

	orders, err = log.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, "ORD-1", orders[0].ID)
	require.Equal(t, "ORD-2", orders[1].ID)

	got, err := log.Get(ctx, "ORD-2")
	require.NoError(t, err)
	require.Equal(t, second.Totals, got.Totals)
	require.True(t, second.CreatedAt.Equal(got.CreatedAt))

	_, err = log.Get(ctx, "ORD-404")
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}

func TestOrderLog_RejectsDuplicateAndEmptyID(t *testing.T) {
	ctx := context.Background()
	log := dataset.NewOrderLog(memory.NewStore())

	require.NoError(t, log.Append(ctx, sampleOrder("ORD-1")))
	require.ErrorIs(t, log.Append(ctx, sampleOrder("ORD-1")), domain.ErrOrderExists)
	require.ErrorIs(t, log.Append(ctx, sampleOrder("")), domain.ErrOrderIDRequired)

	orders, err := log.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 1)
}

func sampleOrder(id string) domain.Order {
	return domain.Order{
		ID:        id,
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Customer:  domain.Customer{Name: "Ann", Email: "ann@example.com", Address: "Main st 1"},
		Items: []domain.OrderLine{
			{ProductID: "P1", Qty: 2, UnitPrice: 10, LineTotal: 20, Name: "Mug"},
		},
		Totals: domain.ComputeTotals(20, domain.DefaultTaxRate),
	}
}
