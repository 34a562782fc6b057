package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/vladislavdragonenkov/storefront/internal/domain"
	"github.com/vladislavdragonenkov/storefront/internal/storage/memory"
)

func TestStore_ReadMissing(t *testing.T) {
	store := memory.NewStore()

	_, err := store.Read(context.Background(), domain.DatasetProducts)
	if !errors.Is(err, domain.ErrDatasetNotFound) {
		t.Fatalf("expected ErrDatasetNotFound, got %v", err)
	}
}

func TestStore_WriteRead(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	payload := []byte(`[{"id":"P1"}]`)
	if err := store.Write(ctx, domain.DatasetProducts, payload); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	// Мутация исходного буфера не должна влиять на сохранённое значение.
	payload[0] = 'X'

	got, err := store.Read(ctx, domain.DatasetProducts)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(got) != `[{"id":"P1"}]` {
		t.Fatalf("unexpected payload %s", got)
	}
}

func TestStore_UnknownDataset(t *testing.T) {
	store := memory.NewStore()

	err := store.Write(context.Background(), domain.Dataset("wishlist"), []byte(`{}`))
	if !errors.Is(err, domain.ErrUnknownDataset) {
		t.Fatalf("expected ErrUnknownDataset, got %v", err)
	}
}

func TestStore_CanceledContext(t *testing.T) {
	store := memory.NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := store.Read(ctx, domain.DatasetCart); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
