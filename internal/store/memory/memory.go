package memory

import (
	"context"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"lojapos/backend/internal/domain"
	"lojapos/backend/internal/store"
	"lojapos/backend/internal/xid"
)

type Store struct {
	mu               sync.RWMutex
	products         map[string]domain.Product
	variants         map[string]domain.Variant
	variantByRef     map[string]string
	movements        []domain.StockMovement
	salesByID        map[string]domain.Sale
	saleIDByInvoice  map[string]string
	suppliersByID    map[string]domain.Supplier
	employeesByID    map[string]domain.Employee
	employeeByEmail  map[string]string
}

func New() *Store {
	return &Store{
		products:        make(map[string]domain.Product),
		variants:        make(map[string]domain.Variant),
		variantByRef:    make(map[string]string),
		movements:       make([]domain.StockMovement, 0, 256),
		salesByID:       make(map[string]domain.Sale),
		saleIDByInvoice: make(map[string]string),
		suppliersByID:   make(map[string]domain.Supplier),
		employeesByID:   make(map[string]domain.Employee),
		employeeByEmail: make(map[string]string),
	}
}

// seedEmployees builds the initial employee accounts for dev/demo mode.
// Credentials come from SEED_ADMIN_PASSWORD and SEED_VENDEDOR_PASSWORD; unset
// variables fall back to dev defaults with a warning. Production deployments
// use PostgreSQL (DATABASE_URL) and never touch this path.
func seedEmployees(s *Store) {
	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	vendedorPwd := envOr("SEED_VENDEDOR_PASSWORD", "vendedor123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" || os.Getenv("SEED_VENDEDOR_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev credentials. Set SEED_ADMIN_PASSWORD and SEED_VENDEDOR_PASSWORD to override.")
	}

	now := time.Now().UTC()
	for _, e := range []struct {
		id       string
		nome     string
		email    string
		password string
		role     string
		status   string
	}{
		{"emp-admin", "Administrador Loja", "admin@loja.local", adminPwd, domain.RoleAdmin, domain.EmployeeAtivo},
		{"emp-vendedor", "Vendedor Loja", "vendedor@loja.local", vendedorPwd, domain.RoleVendedor, domain.EmployeeAtivo},
		{"emp-pendente", "Cadastro Pendente", "pendente@loja.local", vendedorPwd, domain.RoleVendedor, domain.EmployeePendente},
	} {
		hash, err := bcrypt.GenerateFromPassword([]byte(e.password), bcrypt.DefaultCost)
		if err != nil {
			log.Fatalf("[memory-store] failed to hash seed password for %s: %v", e.email, err)
		}
		s.employeesByID[e.id] = domain.Employee{
			ID:           e.id,
			NomeCompleto: e.nome,
			Email:        e.email,
			Role:         e.role,
			Status:       e.status,
			PasswordHash: string(hash),
			CreatedAt:    now,
		}
		s.employeeByEmail[e.email] = e.id
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	products := []domain.Product{
		{ID: "prod-camiseta", Nome: "Camiseta Básica", Categoria: "camisetas", Status: domain.StatusActive, CreatedAt: now},
		{ID: "prod-calca", Nome: "Calça Jeans Slim", Categoria: "calcas", Status: domain.StatusActive, CreatedAt: now},
		{ID: "prod-vestido", Nome: "Vestido Midi", Categoria: "vestidos", Status: domain.StatusActive, CreatedAt: now},
	}
	variants := []domain.Variant{
		{ID: "var-cam-preta-m", ProductID: "prod-camiseta", Referencia: "CAM-PRETA-M", Cor: "preta", Tamanho: "M", PrecoVendaCents: 4990, QuantidadeLoja: 12, QuantidadeEstoque: 30, Status: domain.StatusActive, CreatedAt: now},
		{ID: "var-cam-branca-g", ProductID: "prod-camiseta", Referencia: "CAM-BRANCA-G", Cor: "branca", Tamanho: "G", PrecoVendaCents: 4990, QuantidadeLoja: 8, QuantidadeEstoque: 20, Status: domain.StatusActive, CreatedAt: now},
		{ID: "var-calca-azul-40", ProductID: "prod-calca", Referencia: "CALCA-AZUL-40", Cor: "azul", Tamanho: "40", PrecoVendaCents: 15990, QuantidadeLoja: 5, QuantidadeEstoque: 10, Status: domain.StatusActive, CreatedAt: now},
		{ID: "var-vest-vinho-p", ProductID: "prod-vestido", Referencia: "VEST-VINHO-P", Cor: "vinho", Tamanho: "P", PrecoVendaCents: 21990, QuantidadeLoja: 3, QuantidadeEstoque: 5, Status: domain.StatusActive, CreatedAt: now},
	}

	for _, p := range products {
		s.products[p.ID] = p
	}
	for _, v := range variants {
		s.variants[v.ID] = v
		s.variantByRef[v.Referencia] = v.ID
	}
	seedEmployees(s)

	s.suppliersByID["forn-tecidos"] = domain.Supplier{
		ID: "forn-tecidos", Nome: "Tecidos do Sul Ltda", CNPJ: "12.345.678/0001-90",
		Telefone: "+55 51 3333-0000", Email: "contato@tecidosdosul.com.br",
		Status: domain.StatusActive, CreatedAt: now,
	}

	return s
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	products := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.Status != domain.StatusActive {
			continue
		}
		products = append(products, p)
	}

	slices.SortFunc(products, func(a, b domain.Product) int {
		if a.Categoria == b.Categoria {
			return cmpString(a.Nome, b.Nome)
		}
		return cmpString(a.Categoria, b.Categoria)
	})

	return products, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	s.products[product.ID] = product
	created := product
	return &created, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, exists := s.products[id]
	if !exists || product.Status != domain.StatusActive {
		return nil, store.ErrNotFound
	}
	copyProduct := product
	return &copyProduct, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.products[product.ID]
	if !exists || existing.Status != domain.StatusActive {
		return nil, store.ErrNotFound
	}
	if product.Nome == "" || product.Categoria == "" {
		return nil, store.ErrInvalidTransaction
	}
	product.Status = existing.Status
	product.CreatedAt = existing.CreatedAt
	s.products[product.ID] = product
	updated := product
	return &updated, nil
}

func (s *Store) CreateVariant(_ context.Context, variant domain.Variant) (*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if variant.ProductID == "" || variant.Referencia == "" || variant.PrecoVendaCents < 1 {
		return nil, store.ErrInvalidTransaction
	}
	if variant.QuantidadeLoja < 0 || variant.QuantidadeEstoque < 0 {
		return nil, store.ErrInvalidTransaction
	}
	parent, exists := s.products[variant.ProductID]
	if !exists || parent.Status != domain.StatusActive {
		return nil, store.ErrNotFound
	}
	if _, taken := s.variantByRef[variant.Referencia]; taken {
		return nil, store.ErrInvalidTransaction
	}

	if variant.ID == "" {
		variant.ID = xid.New("var")
	}
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = time.Now().UTC()
	}
	variant.Status = domain.StatusActive
	s.variants[variant.ID] = variant
	s.variantByRef[variant.Referencia] = variant.ID
	created := variant
	return &created, nil
}

func (s *Store) GetVariantByID(_ context.Context, id string) (*domain.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getActiveVariantLocked(id)
}

func (s *Store) getActiveVariantLocked(id string) (*domain.Variant, error) {
	variant, exists := s.variants[id]
	if !exists || variant.Status != domain.StatusActive {
		return nil, store.ErrNotFound
	}
	copyVariant := variant
	return &copyVariant, nil
}

func (s *Store) ListVariantsByProduct(_ context.Context, productID string) ([]domain.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	variants := make([]domain.Variant, 0, 8)
	for _, v := range s.variants {
		if v.ProductID != productID || v.Status != domain.StatusActive {
			continue
		}
		variants = append(variants, v)
	}
	slices.SortFunc(variants, func(a, b domain.Variant) int {
		return cmpString(a.Referencia, b.Referencia)
	})
	return variants, nil
}

func (s *Store) SearchVariantsByReferencia(_ context.Context, referencia string, limit int) ([]domain.Variant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	needle := strings.ToUpper(strings.TrimSpace(referencia))
	matches := make([]domain.Variant, 0, 8)
	for _, v := range s.variants {
		if v.Status != domain.StatusActive {
			continue
		}
		if needle == "" || strings.Contains(strings.ToUpper(v.Referencia), needle) {
			matches = append(matches, v)
		}
	}
	slices.SortFunc(matches, func(a, b domain.Variant) int {
		return cmpString(a.Referencia, b.Referencia)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func (s *Store) UpdateVariant(_ context.Context, variant domain.Variant) (*domain.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.variants[variant.ID]
	if !exists || existing.Status != domain.StatusActive {
		return nil, store.ErrNotFound
	}
	if variant.PrecoVendaCents < 1 {
		return nil, store.ErrInvalidTransaction
	}

	// Quantities are owned by the stock store; catalog updates never touch them.
	variant.QuantidadeLoja = existing.QuantidadeLoja
	variant.QuantidadeEstoque = existing.QuantidadeEstoque
	variant.ProductID = existing.ProductID
	variant.Referencia = existing.Referencia
	variant.Status = existing.Status
	variant.CreatedAt = existing.CreatedAt
	s.variants[variant.ID] = variant
	updated := variant
	return &updated, nil
}

func (s *Store) DeleteVariant(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	variant, exists := s.variants[id]
	if !exists || variant.Status != domain.StatusActive {
		return store.ErrNotFound
	}
	variant.Status = domain.StatusDeleted
	s.variants[id] = variant
	delete(s.variantByRef, variant.Referencia)
	return nil
}

func (s *Store) GetStockQuantities(_ context.Context, variantID string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	variant, err := s.getActiveVariantLocked(variantID)
	if err != nil {
		return 0, 0, err
	}
	return variant.QuantidadeLoja, variant.QuantidadeEstoque, nil
}

func (s *Store) ApplyStockDelta(_ context.Context, variantID string, lojaDelta int, estoqueDelta int) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applyStockDeltaLocked(variantID, lojaDelta, estoqueDelta)
}

// applyStockDeltaLocked performs the check-and-apply in one critical section:
// both resulting quantities must stay non-negative or nothing changes.
func (s *Store) applyStockDeltaLocked(variantID string, lojaDelta int, estoqueDelta int) (int, int, error) {
	variant, exists := s.variants[variantID]
	if !exists || variant.Status != domain.StatusActive {
		return 0, 0, store.ErrNotFound
	}

	newLoja := variant.QuantidadeLoja + lojaDelta
	newEstoque := variant.QuantidadeEstoque + estoqueDelta
	if newLoja < 0 || newEstoque < 0 {
		return 0, 0, store.ErrInsufficientStock
	}

	variant.QuantidadeLoja = newLoja
	variant.QuantidadeEstoque = newEstoque
	s.variants[variantID] = variant
	return newLoja, newEstoque, nil
}

func (s *Store) AppendMovement(_ context.Context, movement domain.StockMovement) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendMovementLocked(movement)
}

func (s *Store) appendMovementLocked(movement domain.StockMovement) (string, error) {
	if movement.VariantID == "" || movement.EmployeeID == "" || movement.Quantidade < 1 {
		return "", store.ErrInvalidTransaction
	}
	if _, exists := s.variants[movement.VariantID]; !exists {
		return "", store.ErrNotFound
	}
	if _, exists := s.employeesByID[movement.EmployeeID]; !exists {
		return "", store.ErrNotFound
	}
	if movement.ID == "" {
		movement.ID = xid.New("mov")
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now().UTC()
	}
	s.movements = append(s.movements, movement)
	return movement.ID, nil
}

func (s *Store) ListMovements(_ context.Context, limit int) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockMovement, len(s.movements))
	copy(result, s.movements)
	slices.Reverse(result)
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *Store) ListMovementsBySale(_ context.Context, saleID string) ([]domain.StockMovement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StockMovement, 0, 8)
	for _, m := range s.movements {
		if m.SaleID == saleID {
			result = append(result, m)
		}
	}
	return result, nil
}

func (s *Store) RegisterSaleTransaction(_ context.Context, sale domain.Sale, items []store.ItemDelta) (*domain.Sale, error) {
	if len(items) == 0 {
		return nil, store.ErrInvalidTransaction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sale.FaturaNumero == "" {
		return nil, store.ErrInvalidTransaction
	}
	if _, taken := s.saleIDByInvoice[sale.FaturaNumero]; taken {
		return nil, store.ErrDuplicateInvoice
	}

	if sale.ID == "" {
		sale.ID = xid.New("sale")
	}
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now().UTC()
	}
	sale.Status = domain.StatusActive

	// Apply every item's delta; a mid-batch failure reverses the deltas already
	// applied so the whole transaction has no effect.
	applied := make([]store.ItemDelta, 0, len(items))
	for _, item := range items {
		if item.LojaDelta != 0 || item.EstoqueDelta != 0 {
			if _, _, err := s.applyStockDeltaLocked(item.VariantID, item.LojaDelta, item.EstoqueDelta); err != nil {
				for _, done := range applied {
					_, _, _ = s.applyStockDeltaLocked(done.VariantID, -done.LojaDelta, -done.EstoqueDelta)
				}
				return nil, err
			}
		}
		applied = append(applied, item)
	}

	for _, item := range items {
		movement := item.Movement
		movement.SaleID = sale.ID
		if _, err := s.appendMovementLocked(movement); err != nil {
			for _, done := range applied {
				_, _, _ = s.applyStockDeltaLocked(done.VariantID, -done.LojaDelta, -done.EstoqueDelta)
			}
			s.dropMovementsForSaleLocked(sale.ID)
			return nil, err
		}
	}

	s.salesByID[sale.ID] = sale
	s.saleIDByInvoice[sale.FaturaNumero] = sale.ID
	created := sale
	return &created, nil
}

// dropMovementsForSaleLocked removes movements written for a sale that failed
// to commit. This is the rollback of an uncommitted unit, not an edit of the
// ledger: the sale was never visible.
func (s *Store) dropMovementsForSaleLocked(saleID string) {
	kept := s.movements[:0]
	for _, m := range s.movements {
		if m.SaleID != saleID {
			kept = append(kept, m)
		}
	}
	s.movements = kept
}

func (s *Store) FindSaleByID(_ context.Context, id string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sale, exists := s.salesByID[id]
	if !exists || sale.Status != domain.StatusActive {
		return nil, store.ErrNotFound
	}
	copySale := sale
	return &copySale, nil
}

func (s *Store) FindSaleByInvoice(_ context.Context, faturaNumero string) (*domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.saleIDByInvoice[faturaNumero]
	if !exists {
		return nil, store.ErrNotFound
	}
	sale := s.salesByID[id]
	copySale := sale
	return &copySale, nil
}

func (s *Store) ListSalesToday(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	result := make([]domain.Sale, 0, 32)
	for _, sale := range s.salesByID {
		if sale.Status != domain.StatusActive || sale.CreatedAt.Before(dayStart) {
			continue
		}
		result = append(result, sale)
	}
	slices.SortFunc(result, func(a, b domain.Sale) int {
		if a.CreatedAt.Equal(b.CreatedAt) {
			return cmpString(a.ID, b.ID)
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		return 1
	})
	return result, nil
}

func (s *Store) CreateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

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
	s.suppliersByID[supplier.ID] = supplier
	created := supplier
	return &created, nil
}

func (s *Store) ListSuppliers(_ context.Context) ([]domain.Supplier, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	suppliers := make([]domain.Supplier, 0, len(s.suppliersByID))
	for _, sup := range s.suppliersByID {
		if sup.Status != domain.StatusActive {
			continue
		}
		suppliers = append(suppliers, sup)
	}
	slices.SortFunc(suppliers, func(a, b domain.Supplier) int {
		return cmpString(a.Nome, b.Nome)
	})
	return suppliers, nil
}

func (s *Store) UpdateSupplier(_ context.Context, supplier domain.Supplier) (*domain.Supplier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.suppliersByID[supplier.ID]
	if !exists || existing.Status != domain.StatusActive {
		return nil, store.ErrNotFound
	}
	if supplier.Nome == "" {
		return nil, store.ErrInvalidTransaction
	}
	supplier.Status = existing.Status
	supplier.CreatedAt = existing.CreatedAt
	s.suppliersByID[supplier.ID] = supplier
	updated := supplier
	return &updated, nil
}

func (s *Store) DeleteSupplier(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	supplier, exists := s.suppliersByID[id]
	if !exists || supplier.Status != domain.StatusActive {
		return store.ErrNotFound
	}
	supplier.Status = domain.StatusDeleted
	s.suppliersByID[id] = supplier
	return nil
}

func (s *Store) CreateEmployee(_ context.Context, employee domain.Employee) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if employee.Email == "" || employee.NomeCompleto == "" {
		return nil, store.ErrInvalidTransaction
	}
	if _, taken := s.employeeByEmail[employee.Email]; taken {
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
	s.employeesByID[employee.ID] = employee
	s.employeeByEmail[employee.Email] = employee.ID
	created := employee
	return &created, nil
}

func (s *Store) GetEmployeeByID(_ context.Context, id string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employee, exists := s.employeesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	copyEmployee := employee
	return &copyEmployee, nil
}

func (s *Store) GetEmployeeByEmail(_ context.Context, email string) (*domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.employeeByEmail[email]
	if !exists {
		return nil, store.ErrNotFound
	}
	employee := s.employeesByID[id]
	copyEmployee := employee
	return &copyEmployee, nil
}

func (s *Store) ListEmployees(_ context.Context, status string) ([]domain.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	employees := make([]domain.Employee, 0, len(s.employeesByID))
	for _, e := range s.employeesByID {
		if status != "" && e.Status != status {
			continue
		}
		employees = append(employees, e)
	}
	slices.SortFunc(employees, func(a, b domain.Employee) int {
		return cmpString(a.NomeCompleto, b.NomeCompleto)
	})
	return employees, nil
}

func (s *Store) UpdateEmployeeStatus(_ context.Context, id string, status string) (*domain.Employee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	employee, exists := s.employeesByID[id]
	if !exists {
		return nil, store.ErrNotFound
	}
	employee.Status = status
	s.employeesByID[id] = employee
	updated := employee
	return &updated, nil
}

func (s *Store) CountLowStockVariants(_ context.Context, threshold int) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, v := range s.variants {
		if v.Status != domain.StatusActive {
			continue
		}
		if v.QuantidadeLoja+v.QuantidadeEstoque <= threshold {
			count++
		}
	}
	return count, nil
}

func cmpString(a, b string) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}
