package cart

import (
	"context"
	"errors"
	"testing"
	"time"

	"lojapos/backend/internal/cache"
	"lojapos/backend/internal/domain"
	"lojapos/backend/internal/store"
	"lojapos/backend/internal/store/memory"
)

func newTestManager() *Manager {
	return NewManager(memory.NewSeeded(), cache.NoopCartStore{}, time.Hour)
}

func TestAddItemAggregatesLines(t *testing.T) {
	manager := newTestManager()
	ctx := context.Background()

	if _, err := manager.AddItem(ctx, "caixa-1", "var-cam-preta-m"); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	snapshot, err := manager.AddItem(ctx, "caixa-1", "var-cam-preta-m")
	if err != nil {
		t.Fatalf("add item failed: %v", err)
	}

	if len(snapshot.Itens) != 1 {
		t.Fatalf("expected one aggregated line, got %d", len(snapshot.Itens))
	}
	if snapshot.Itens[0].Quantidade != 2 {
		t.Fatalf("expected quantity 2, got %d", snapshot.Itens[0].Quantidade)
	}
	if snapshot.SubtotalCents != 2*4990 {
		t.Fatalf("expected subtotal 9980, got %d", snapshot.SubtotalCents)
	}
	if snapshot.Itens[0].SubtotalCents != 9980 {
		t.Fatalf("expected line subtotal 9980, got %d", snapshot.Itens[0].SubtotalCents)
	}
}

func TestAddItemRefusesPastSnapshotStock(t *testing.T) {
	manager := newTestManager()
	ctx := context.Background()

	// var-vest-vinho-p has 3 + 5 = 8 units total.
	for i := 0; i < 8; i++ {
		if _, err := manager.AddItem(ctx, "caixa-1", "var-vest-vinho-p"); err != nil {
			t.Fatalf("add item %d failed: %v", i, err)
		}
	}
	_, err := manager.AddItem(ctx, "caixa-1", "var-vest-vinho-p")
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestUpdateQuantityRemovesAtZero(t *testing.T) {
	manager := newTestManager()
	ctx := context.Background()

	if _, err := manager.AddItem(ctx, "caixa-1", "var-cam-preta-m"); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	snapshot, err := manager.UpdateQuantity(ctx, "caixa-1", domain.CartQuantityRequest{
		VariantID:  "var-cam-preta-m",
		Quantidade: 0,
	})
	if err != nil {
		t.Fatalf("update quantity failed: %v", err)
	}
	if len(snapshot.Itens) != 0 || snapshot.SubtotalCents != 0 {
		t.Fatalf("expected empty cart, got %+v", snapshot)
	}

	_, err = manager.UpdateQuantity(ctx, "caixa-1", domain.CartQuantityRequest{
		VariantID:  "var-cam-preta-m",
		Quantidade: 1,
	})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for removed line, got %v", err)
	}
}

func TestUpdateQuantityRefusesPastSnapshotStock(t *testing.T) {
	manager := newTestManager()
	ctx := context.Background()

	if _, err := manager.AddItem(ctx, "caixa-1", "var-calca-azul-40"); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	_, err := manager.UpdateQuantity(ctx, "caixa-1", domain.CartQuantityRequest{
		VariantID:  "var-calca-azul-40",
		Quantidade: 16,
	})
	if !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
}

func TestCartsAreIsolatedPerTerminal(t *testing.T) {
	manager := newTestManager()
	ctx := context.Background()

	if _, err := manager.AddItem(ctx, "caixa-1", "var-cam-preta-m"); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	snapshot, err := manager.Get(ctx, "caixa-2")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(snapshot.Itens) != 0 {
		t.Fatalf("expected empty cart on other terminal, got %d items", len(snapshot.Itens))
	}
}

func TestClear(t *testing.T) {
	manager := newTestManager()
	ctx := context.Background()

	if _, err := manager.AddItem(ctx, "caixa-1", "var-cam-preta-m"); err != nil {
		t.Fatalf("add item failed: %v", err)
	}
	if err := manager.Clear(ctx, "caixa-1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}
	snapshot, err := manager.Get(ctx, "caixa-1")
	if err != nil {
		t.Fatalf("get cart failed: %v", err)
	}
	if len(snapshot.Itens) != 0 {
		t.Fatalf("expected cart cleared, got %d items", len(snapshot.Itens))
	}
}

func TestTotalClampsDiscount(t *testing.T) {
	snapshot := domain.CartSnapshot{SubtotalCents: 10000}

	if total := Total(snapshot, 10); total != 9000 {
		t.Fatalf("expected 9000, got %d", total)
	}
	if total := Total(snapshot, -5); total != 10000 {
		t.Fatalf("expected 10000 with negative discount clamped, got %d", total)
	}
	if total := Total(snapshot, 150); total != 0 {
		t.Fatalf("expected 0 with discount clamped to 100, got %d", total)
	}

	// Discount is rounded before subtracting: 10% of 105 is 11, not 10.
	if total := Total(domain.CartSnapshot{SubtotalCents: 105}, 10); total != 94 {
		t.Fatalf("expected 94 on half-cent boundary, got %d", total)
	}
}
