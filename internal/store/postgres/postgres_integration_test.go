package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"lojapos/backend/internal/domain"
	"lojapos/backend/internal/store"
)

func TestRegisterSaleTransactionConsumesStoreBeforeWarehouse(t *testing.T) {
	databaseURL := os.Getenv("LOJAPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set LOJAPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-it-%d", stamp)
	variantID := fmt.Sprintf("var-it-%d", stamp)
	employeeID := fmt.Sprintf("emp-it-%d", stamp)
	fatura := fmt.Sprintf("FAT-IT-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE variant_id = $1`, variantID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE fatura_numero = $1`, fatura)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM product_variants WHERE id = $1`, variantID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, employeeID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, nome, categoria, status, created_at, updated_at)
		VALUES ($1, 'Camiseta Integrada', 'camisetas', 'active', now(), now())
	`, productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO product_variants (
			id, product_id, referencia, cor, tamanho, preco_venda_cents,
			quantidade_loja, quantidade_estoque, status, created_at, updated_at
		)
		VALUES ($1, $2, 'REF-IT', 'preto', 'M', 4990, 3, 5, 'active', now(), now())
	`, variantID, productID); err != nil {
		t.Fatalf("insert variant: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, nome_completo, email, role, status, password_hash, created_at, updated_at)
		VALUES ($1, 'Funcionario IT', $2, 'vendedor', 'ativo', 'x', now(), now())
	`, employeeID, fmt.Sprintf("it-%d@loja.test", stamp)); err != nil {
		t.Fatalf("insert employee: %v", err)
	}

	// Selling 5 units against store 3 / warehouse 5 must drain the store
	// entirely and take the remaining 2 from the warehouse.
	sale := domain.Sale{
		FaturaNumero:    fatura,
		EmployeeID:      employeeID,
		TipoTransacao:   domain.TransacaoVenda,
		TotalVendaCents: 24950,
	}
	items := []store.ItemDelta{{
		VariantID:    variantID,
		LojaDelta:    -3,
		EstoqueDelta: -2,
		Movement: domain.StockMovement{
			VariantID:   variantID,
			EmployeeID:  employeeID,
			Tipo:        domain.MovementVenda,
			Quantidade:  5,
			Origem:      domain.LocationLoja,
			Observacoes: "Venda - Fatura: " + fatura,
		},
	}}

	created, err := s.RegisterSaleTransaction(ctx, sale, items)
	if err != nil {
		t.Fatalf("register sale: %v", err)
	}

	loja, estoque, err := s.GetStockQuantities(ctx, variantID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if loja != 0 || estoque != 3 {
		t.Fatalf("expected stock 0/3 after sale, got %d/%d", loja, estoque)
	}

	movements, err := s.ListMovementsBySale(ctx, created.ID)
	if err != nil {
		t.Fatalf("list movements: %v", err)
	}
	if len(movements) != 1 {
		t.Fatalf("expected 1 movement, got %d", len(movements))
	}
	if movements[0].Tipo != domain.MovementVenda || movements[0].Quantidade != 5 {
		t.Fatalf("unexpected movement %+v", movements[0])
	}

	// A second sale reusing the invoice must be rejected without touching stock.
	_, err = s.RegisterSaleTransaction(ctx, sale, items)
	if !errors.Is(err, store.ErrDuplicateInvoice) {
		t.Fatalf("expected ErrDuplicateInvoice, got %v", err)
	}
	loja, estoque, err = s.GetStockQuantities(ctx, variantID)
	if err != nil {
		t.Fatalf("get stock after duplicate: %v", err)
	}
	if loja != 0 || estoque != 3 {
		t.Fatalf("duplicate invoice must not change stock, got %d/%d", loja, estoque)
	}

	// Draining past zero fails atomically.
	if _, _, err := s.ApplyStockDelta(ctx, variantID, -1, 0); !errors.Is(err, store.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	loja, estoque, err = s.GetStockQuantities(ctx, variantID)
	if err != nil {
		t.Fatalf("get stock after failed delta: %v", err)
	}
	if loja != 0 || estoque != 3 {
		t.Fatalf("failed delta must not change stock, got %d/%d", loja, estoque)
	}
}

func TestRegisterSaleTransactionConcurrentRace(t *testing.T) {
	databaseURL := os.Getenv("LOJAPOS_TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set LOJAPOS_TEST_DATABASE_URL to run postgres integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})

	stamp := time.Now().UnixNano()
	productID := fmt.Sprintf("prod-race-%d", stamp)
	variantID := fmt.Sprintf("var-race-%d", stamp)
	employeeID := fmt.Sprintf("emp-race-%d", stamp)

	t.Cleanup(func() {
		_, _ = s.db.ExecContext(ctx, `DELETE FROM stock_movements WHERE variant_id = $1`, variantID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM sales WHERE fatura_numero LIKE $1`, fmt.Sprintf("FAT-RACE-%d%%", stamp))
		_, _ = s.db.ExecContext(ctx, `DELETE FROM product_variants WHERE id = $1`, variantID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, productID)
		_, _ = s.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, employeeID)
	})

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, nome, categoria, status, created_at, updated_at)
		VALUES ($1, 'Camiseta Corrida', 'camisetas', 'active', now(), now())
	`, productID); err != nil {
		t.Fatalf("insert product: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO product_variants (
			id, product_id, referencia, cor, tamanho, preco_venda_cents,
			quantidade_loja, quantidade_estoque, status, created_at, updated_at
		)
		VALUES ($1, $2, 'REF-RACE', 'preto', 'M', 4990, 1, 0, 'active', now(), now())
	`, variantID, productID); err != nil {
		t.Fatalf("insert variant: %v", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, nome_completo, email, role, status, password_hash, created_at, updated_at)
		VALUES ($1, 'Funcionario Corrida', $2, 'vendedor', 'ativo', 'x', now(), now())
	`, employeeID, fmt.Sprintf("race-%d@loja.test", stamp)); err != nil {
		t.Fatalf("insert employee: %v", err)
	}

	// Two sales compete for the single remaining unit. The losing
	// transaction's conditional update must re-evaluate after the winner
	// commits and fail with ErrInsufficientStock, never a driver error.
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func(n int) {
			sale := domain.Sale{
				FaturaNumero:    fmt.Sprintf("FAT-RACE-%d-%d", stamp, n),
				EmployeeID:      employeeID,
				TipoTransacao:   domain.TransacaoVenda,
				TotalVendaCents: 4990,
			}
			items := []store.ItemDelta{{
				VariantID: variantID,
				LojaDelta: -1,
				Movement: domain.StockMovement{
					VariantID:   variantID,
					EmployeeID:  employeeID,
					Tipo:        domain.MovementVenda,
					Quantidade:  1,
					Origem:      domain.LocationLoja,
					Observacoes: "Venda - Fatura: " + sale.FaturaNumero,
				},
			}}
			_, err := s.RegisterSaleTransaction(ctx, sale, items)
			results <- err
		}(i)
	}

	var succeeded, insufficient int
	for i := 0; i < 2; i++ {
		err := <-results
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, store.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("unexpected error from racing sale: %v", err)
		}
	}
	if succeeded != 1 || insufficient != 1 {
		t.Fatalf("expected one success and one ErrInsufficientStock, got %d/%d", succeeded, insufficient)
	}

	loja, estoque, err := s.GetStockQuantities(ctx, variantID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if loja != 0 || estoque != 0 {
		t.Fatalf("expected stock drained to 0/0, got %d/%d", loja, estoque)
	}
}
