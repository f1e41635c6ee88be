package store

import (
	"context"
	"errors"

	"lojapos/backend/internal/domain"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDuplicateInvoice     = errors.New("invoice number already exists")
	ErrEmployeeInactive     = errors.New("employee not found or inactive")
	ErrOriginalSaleNotFound = errors.New("original sale not found")
	ErrInvalidTransaction   = errors.New("invalid transaction")
)

// ItemDelta is one variant's contribution to a sale transaction: the stock
// deltas to apply atomically and the movement to append, all inside the same
// transactional boundary.
type ItemDelta struct {
	VariantID    string
	LojaDelta    int
	EstoqueDelta int
	Movement     domain.StockMovement
}

type Repository interface {
	// Catalog.
	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	CreateVariant(ctx context.Context, variant domain.Variant) (*domain.Variant, error)
	GetVariantByID(ctx context.Context, id string) (*domain.Variant, error)
	ListVariantsByProduct(ctx context.Context, productID string) ([]domain.Variant, error)
	SearchVariantsByReferencia(ctx context.Context, referencia string, limit int) ([]domain.Variant, error)
	UpdateVariant(ctx context.Context, variant domain.Variant) (*domain.Variant, error)
	DeleteVariant(ctx context.Context, id string) error

	// Stock quantity store. ApplyStockDelta is the single authoritative
	// primitive: check and apply happen atomically, never as a
	// read-modify-write pair in application code.
	GetStockQuantities(ctx context.Context, variantID string) (loja int, estoque int, err error)
	ApplyStockDelta(ctx context.Context, variantID string, lojaDelta int, estoqueDelta int) (loja int, estoque int, err error)

	// Movement log (append-only).
	AppendMovement(ctx context.Context, movement domain.StockMovement) (string, error)
	ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error)
	ListMovementsBySale(ctx context.Context, saleID string) ([]domain.StockMovement, error)

	// Sales. RegisterSaleTransaction applies the sale row, every item's stock
	// delta and every movement as one all-or-nothing unit.
	RegisterSaleTransaction(ctx context.Context, sale domain.Sale, items []ItemDelta) (*domain.Sale, error)
	FindSaleByID(ctx context.Context, id string) (*domain.Sale, error)
	FindSaleByInvoice(ctx context.Context, faturaNumero string) (*domain.Sale, error)
	ListSalesToday(ctx context.Context) ([]domain.Sale, error)

	// Suppliers.
	CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	ListSuppliers(ctx context.Context) ([]domain.Supplier, error)
	UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error)
	DeleteSupplier(ctx context.Context, id string) error

	// Employees.
	CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error)
	GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error)
	GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error)
	ListEmployees(ctx context.Context, status string) ([]domain.Employee, error)
	UpdateEmployeeStatus(ctx context.Context, id string, status string) (*domain.Employee, error)

	// Low-stock count for the dashboard: active variants whose combined
	// quantities fall at or below the threshold.
	CountLowStockVariants(ctx context.Context, threshold int) (int, error)
}
