package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"lojapos/backend/internal/domain"
	"lojapos/backend/internal/store"
	"lojapos/backend/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nome, categoria, created_at
		FROM products
		WHERE status = 'active'
		ORDER BY categoria, nome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p := domain.Product{Status: domain.StatusActive}
		if err := rows.Scan(&p.ID, &p.Nome, &p.Categoria, &p.CreatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Nome == "" || product.Categoria == "" {
		return nil, store.ErrInvalidTransaction
	}
	if product.ID == "" {
		product.ID = xid.New("prod")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.Status = domain.StatusActive

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (id, nome, categoria, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,now())
	`, product.ID, product.Nome, product.Categoria, product.Status, product.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}

	created := product
	return &created, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	p := domain.Product{Status: domain.StatusActive}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, nome, categoria, created_at
		FROM products
		WHERE id = $1 AND status = 'active'
	`, id).Scan(&p.ID, &p.Nome, &p.Categoria, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	if product.Nome == "" || product.Categoria == "" {
		return nil, store.ErrInvalidTransaction
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET nome = $1, categoria = $2, updated_at = now()
		WHERE id = $3 AND status = 'active'
	`, product.Nome, product.Categoria, product.ID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetProductByID(ctx, product.ID)
}

func (s *Store) CreateVariant(ctx context.Context, variant domain.Variant) (*domain.Variant, error) {
	if variant.ProductID == "" || variant.Referencia == "" || variant.PrecoVendaCents < 1 {
		return nil, store.ErrInvalidTransaction
	}
	if variant.QuantidadeLoja < 0 || variant.QuantidadeEstoque < 0 {
		return nil, store.ErrInvalidTransaction
	}
	if variant.ID == "" {
		variant.ID = xid.New("var")
	}
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = time.Now().UTC()
	}
	variant.Status = domain.StatusActive

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO product_variants (
			id, product_id, referencia, cor, tamanho, preco_venda_cents,
			quantidade_loja, quantidade_estoque, status, created_at, updated_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,now())
	`, variant.ID, variant.ProductID, variant.Referencia, nullIfEmpty(variant.Cor),
		nullIfEmpty(variant.Tamanho), variant.PrecoVendaCents, variant.QuantidadeLoja,
		variant.QuantidadeEstoque, variant.Status, variant.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}

	created := variant
	return &created, nil
}

const variantColumns = `id, product_id, referencia, COALESCE(cor,''), COALESCE(tamanho,''),
	preco_venda_cents, quantidade_loja, quantidade_estoque, created_at`

func scanVariant(row interface{ Scan(...any) error }) (*domain.Variant, error) {
	v := domain.Variant{Status: domain.StatusActive}
	err := row.Scan(&v.ID, &v.ProductID, &v.Referencia, &v.Cor, &v.Tamanho,
		&v.PrecoVendaCents, &v.QuantidadeLoja, &v.QuantidadeEstoque, &v.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Store) GetVariantByID(ctx context.Context, id string) (*domain.Variant, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants
		WHERE id = $1 AND status = 'active'
	`, id)
	variant, err := scanVariant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return variant, nil
}

func (s *Store) ListVariantsByProduct(ctx context.Context, productID string) ([]domain.Variant, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants
		WHERE product_id = $1 AND status = 'active'
		ORDER BY referencia
	`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make([]domain.Variant, 0, 8)
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return variants, nil
}

func (s *Store) SearchVariantsByReferencia(ctx context.Context, referencia string, limit int) ([]domain.Variant, error) {
	if limit < 1 {
		limit = 20
	}
	pattern := "%" + strings.ToUpper(strings.TrimSpace(referencia)) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+variantColumns+`
		FROM product_variants
		WHERE status = 'active' AND upper(referencia) LIKE $1
		ORDER BY referencia
		LIMIT $2
	`, pattern, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	variants := make([]domain.Variant, 0, limit)
	for rows.Next() {
		v, err := scanVariant(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return variants, nil
}

func (s *Store) UpdateVariant(ctx context.Context, variant domain.Variant) (*domain.Variant, error) {
	if variant.PrecoVendaCents < 1 {
		return nil, store.ErrInvalidTransaction
	}

	// Quantities are deliberately absent: only ApplyStockDelta and
	// RegisterSaleTransaction mutate them.
	result, err := s.db.ExecContext(ctx, `
		UPDATE product_variants
		SET cor = $1, tamanho = $2, preco_venda_cents = $3, updated_at = now()
		WHERE id = $4 AND status = 'active'
	`, nullIfEmpty(variant.Cor), nullIfEmpty(variant.Tamanho), variant.PrecoVendaCents, variant.ID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetVariantByID(ctx, variant.ID)
}

func (s *Store) DeleteVariant(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE product_variants
		SET status = 'deleted', updated_at = now()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) GetStockQuantities(ctx context.Context, variantID string) (int, int, error) {
	var loja, estoque int
	err := s.db.QueryRowContext(ctx, `
		SELECT quantidade_loja, quantidade_estoque
		FROM product_variants
		WHERE id = $1 AND status = 'active'
	`, variantID).Scan(&loja, &estoque)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, store.ErrNotFound
		}
		return 0, 0, err
	}
	return loja, estoque, nil
}

func (s *Store) ApplyStockDelta(ctx context.Context, variantID string, lojaDelta int, estoqueDelta int) (int, int, error) {
	return applyStockDelta(ctx, s.db, variantID, lojaDelta, estoqueDelta)
}

// execer covers *sql.DB and *sql.Tx so the same conditional update runs
// standalone and inside a sale transaction.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// applyStockDelta is the single-statement check-and-apply: the WHERE clause
// refuses the update when either resulting quantity would go negative, so
// concurrent callers can never interleave a stale read with a write.
func applyStockDelta(ctx context.Context, db execer, variantID string, lojaDelta int, estoqueDelta int) (int, int, error) {
	var loja, estoque int
	err := db.QueryRowContext(ctx, `
		UPDATE product_variants
		SET quantidade_loja = quantidade_loja + $1,
		    quantidade_estoque = quantidade_estoque + $2,
		    updated_at = now()
		WHERE id = $3 AND status = 'active'
		  AND quantidade_loja + $1 >= 0
		  AND quantidade_estoque + $2 >= 0
		RETURNING quantidade_loja, quantidade_estoque
	`, lojaDelta, estoqueDelta, variantID).Scan(&loja, &estoque)
	if err == nil {
		return loja, estoque, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, 0, err
	}

	// Zero rows: either the variant is gone or the condition failed.
	var exists bool
	checkErr := db.QueryRowContext(ctx, `
		SELECT true FROM product_variants WHERE id = $1 AND status = 'active'
	`, variantID).Scan(&exists)
	if errors.Is(checkErr, sql.ErrNoRows) {
		return 0, 0, store.ErrNotFound
	}
	if checkErr != nil {
		return 0, 0, checkErr
	}
	return 0, 0, store.ErrInsufficientStock
}

func (s *Store) AppendMovement(ctx context.Context, movement domain.StockMovement) (string, error) {
	return appendMovement(ctx, s.db, movement)
}

func appendMovement(ctx context.Context, db execer, movement domain.StockMovement) (string, error) {
	if movement.VariantID == "" || movement.EmployeeID == "" || movement.Quantidade < 1 {
		return "", store.ErrInvalidTransaction
	}
	if movement.ID == "" {
		movement.ID = xid.New("mov")
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO stock_movements (
			id, variant_id, employee_id, tipo, quantidade,
			origem, destino, sale_id, observacoes, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, movement.ID, movement.VariantID, movement.EmployeeID, movement.Tipo, movement.Quantidade,
		nullIfEmpty(movement.Origem), nullIfEmpty(movement.Destino), nullIfEmpty(movement.SaleID),
		nullIfEmpty(movement.Observacoes), movement.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return "", store.ErrNotFound
		}
		return "", err
	}
	return movement.ID, nil
}

const movementColumns = `id, variant_id, employee_id, tipo, quantidade,
	COALESCE(origem,''), COALESCE(destino,''), COALESCE(sale_id,''), COALESCE(observacoes,''), created_at`

func scanMovement(row interface{ Scan(...any) error }) (*domain.StockMovement, error) {
	var m domain.StockMovement
	err := row.Scan(&m.ID, &m.VariantID, &m.EmployeeID, &m.Tipo, &m.Quantidade,
		&m.Origem, &m.Destino, &m.SaleID, &m.Observacoes, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *Store) ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movementColumns+`
		FROM stock_movements
		ORDER BY created_at DESC, id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, limit)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) ListMovementsBySale(ctx context.Context, saleID string) ([]domain.StockMovement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+movementColumns+`
		FROM stock_movements
		WHERE sale_id = $1
		ORDER BY created_at, id
	`, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0, 8)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, err
		}
		movements = append(movements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return movements, nil
}

func (s *Store) RegisterSaleTransaction(ctx context.Context, sale domain.Sale, items []store.ItemDelta) (*domain.Sale, error) {
	if sale.FaturaNumero == "" || len(items) == 0 {
		return nil, store.ErrInvalidTransaction
	}

	// READ COMMITTED so a conditional stock update that blocked on a
	// concurrent sale re-evaluates its WHERE clause once the winner commits,
	// failing with ErrInsufficientStock instead of a serialization abort.
	// The conditional update is the atomicity guard on its own.
	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	// Invoice uniqueness is checked before any stock mutation; the partial
	// unique index on active sales backs this up at commit time.
	var existingID string
	err = pgTx.QueryRowContext(ctx, `
		SELECT id FROM sales WHERE fatura_numero = $1 AND status = 'active'
	`, sale.FaturaNumero).Scan(&existingID)
	if err == nil {
		return nil, store.ErrDuplicateInvoice
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	sale.Status = domain.StatusActive

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO sales (
			id, fatura_numero, employee_id, tipo_transacao,
			desconto_percentual, total_venda_cents, original_sale_id, status, created_at
		)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`, sale.ID, sale.FaturaNumero, sale.EmployeeID, sale.TipoTransacao,
		sale.DescontoPercentual, sale.TotalVendaCents, nullIfEmpty(sale.OriginalSaleID),
		sale.Status, sale.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateInvoice
		}
		if isForeignKeyViolation(err) {
			return nil, store.ErrEmployeeInactive
		}
		return nil, err
	}

	// All deltas and movements ride the same transaction: any failure rolls
	// the whole unit back, including the sale row above.
	for _, item := range items {
		if item.LojaDelta != 0 || item.EstoqueDelta != 0 {
			if _, _, err := applyStockDelta(ctx, pgTx, item.VariantID, item.LojaDelta, item.EstoqueDelta); err != nil {
				return nil, err
			}
		}
		movement := item.Movement
		movement.SaleID = sale.ID
		if _, err := appendMovement(ctx, pgTx, movement); err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}

	created := sale
	return &created, nil
}

const saleColumns = `id, fatura_numero, employee_id, tipo_transacao,
	desconto_percentual, total_venda_cents, COALESCE(original_sale_id,''), created_at`

func scanSale(row interface{ Scan(...any) error }) (*domain.Sale, error) {
	sale := domain.Sale{Status: domain.StatusActive}
	err := row.Scan(&sale.ID, &sale.FaturaNumero, &sale.EmployeeID, &sale.TipoTransacao,
		&sale.DescontoPercentual, &sale.TotalVendaCents, &sale.OriginalSaleID, &sale.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (s *Store) FindSaleByID(ctx context.Context, id string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE id = $1 AND status = 'active'
	`, id)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *Store) FindSaleByInvoice(ctx context.Context, faturaNumero string) (*domain.Sale, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE fatura_numero = $1 AND status = 'active'
	`, faturaNumero)
	sale, err := scanSale(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return sale, nil
}

func (s *Store) ListSalesToday(ctx context.Context) ([]domain.Sale, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+saleColumns+`
		FROM sales
		WHERE status = 'active' AND created_at >= date_trunc('day', now() AT TIME ZONE 'utc')
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0, 32)
	for rows.Next() {
		sale, err := scanSale(rows)
		if err != nil {
			return nil, err
		}
		sales = append(sales, *sale)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sales, nil
}

func (s *Store) CreateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Nome == "" {
		return nil, store.ErrInvalidTransaction
	}
	if supplier.ID == "" {
		supplier.ID = xid.New("forn")
	}
	if supplier.CreatedAt.IsZero() {
		supplier.CreatedAt = time.Now().UTC()
	}
	supplier.Status = domain.StatusActive

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suppliers (id, nome, cnpj, telefone, email, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	`, supplier.ID, supplier.Nome, nullIfEmpty(supplier.CNPJ), nullIfEmpty(supplier.Telefone),
		nullIfEmpty(supplier.Email), supplier.Status, supplier.CreatedAt)
	if err != nil {
		return nil, err
	}
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, nome, COALESCE(cnpj,''), COALESCE(telefone,''), COALESCE(email,''), created_at
		FROM suppliers
		WHERE status = 'active'
		ORDER BY nome
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	suppliers := make([]domain.Supplier, 0, 32)
	for rows.Next() {
		sup := domain.Supplier{Status: domain.StatusActive}
		if err := rows.Scan(&sup.ID, &sup.Nome, &sup.CNPJ, &sup.Telefone, &sup.Email, &sup.CreatedAt); err != nil {
			return nil, err
		}
		suppliers = append(suppliers, sup)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *Store) UpdateSupplier(ctx context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	if supplier.Nome == "" {
		return nil, store.ErrInvalidTransaction
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET nome = $1, cnpj = $2, telefone = $3, email = $4, updated_at = now()
		WHERE id = $5 AND status = 'active'
	`, supplier.Nome, nullIfEmpty(supplier.CNPJ), nullIfEmpty(supplier.Telefone),
		nullIfEmpty(supplier.Email), supplier.ID)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	updated := supplier
	updated.Status = domain.StatusActive
	return &updated, nil
}

func (s *Store) DeleteSupplier(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE suppliers
		SET status = 'deleted', updated_at = now()
		WHERE id = $1 AND status = 'active'
	`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CreateEmployee(ctx context.Context, employee domain.Employee) (*domain.Employee, error) {
	if employee.Email == "" || employee.NomeCompleto == "" {
		return nil, store.ErrInvalidTransaction
	}
	if employee.ID == "" {
		employee.ID = xid.New("emp")
	}
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}
	if employee.Status == "" {
		employee.Status = domain.EmployeePendente
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, nome_completo, email, role, status, password_hash, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,now())
	`, employee.ID, employee.NomeCompleto, employee.Email, employee.Role,
		employee.Status, employee.PasswordHash, employee.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrInvalidTransaction
		}
		return nil, err
	}
	created := employee
	return &created, nil
}

const employeeColumns = `id, nome_completo, email, role, status, password_hash, created_at`

func scanEmployee(row interface{ Scan(...any) error }) (*domain.Employee, error) {
	var e domain.Employee
	err := row.Scan(&e.ID, &e.NomeCompleto, &e.Email, &e.Role, &e.Status, &e.PasswordHash, &e.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) GetEmployeeByID(ctx context.Context, id string) (*domain.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+` FROM employees WHERE id = $1
	`, id)
	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return employee, nil
}

func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+employeeColumns+` FROM employees WHERE email = $1
	`, email)
	employee, err := scanEmployee(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return employee, nil
}

func (s *Store) ListEmployees(ctx context.Context, status string) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY nome_completo`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	employees := make([]domain.Employee, 0, 16)
	for rows.Next() {
		employee, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, *employee)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return employees, nil
}

func (s *Store) UpdateEmployeeStatus(ctx context.Context, id string, status string) (*domain.Employee, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE employees SET status = $1, updated_at = now() WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetEmployeeByID(ctx, id)
}

func (s *Store) CountLowStockVariants(ctx context.Context, threshold int) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT count(*)
		FROM product_variants
		WHERE status = 'active' AND quantidade_loja + quantidade_estoque <= $1
	`, threshold).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func nullIfEmpty(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}
