package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"strings"
	"time"

	"lojapos/backend/internal/domain"
	"lojapos/backend/internal/store"
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo              store.Repository
	lowStockThreshold int
}

func New(repo store.Repository, lowStockThreshold int) *Service {
	if lowStockThreshold < 1 {
		lowStockThreshold = 5
	}

	return &Service{
		repo:              repo,
		lowStockThreshold: lowStockThreshold,
	}
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	req.Nome = strings.TrimSpace(req.Nome)
	req.Categoria = strings.TrimSpace(req.Categoria)
	if req.Nome == "" || req.Categoria == "" {
		return domain.Product{}, store.ErrInvalidTransaction
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Nome:      req.Nome,
		Categoria: req.Categoria,
	})
	if err != nil {
		return domain.Product{}, err
	}
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Product{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetProductByID(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	updated := *existing
	if req.Nome != nil {
		nome := strings.TrimSpace(*req.Nome)
		if nome == "" {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Nome = nome
	}
	if req.Categoria != nil {
		categoria := strings.TrimSpace(*req.Categoria)
		if categoria == "" {
			return domain.Product{}, store.ErrInvalidTransaction
		}
		updated.Categoria = categoria
	}

	saved, err := s.repo.UpdateProduct(ctx, updated)
	if err != nil {
		return domain.Product{}, err
	}
	return *saved, nil
}

func (s *Service) ListVariants(ctx context.Context, productID string) ([]domain.Variant, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, store.ErrInvalidTransaction
	}
	return s.repo.ListVariantsByProduct(ctx, productID)
}

func (s *Service) GetVariant(ctx context.Context, variantID string) (domain.Variant, error) {
	variant, err := s.repo.GetVariantByID(ctx, variantID)
	if err != nil {
		return domain.Variant{}, err
	}
	return *variant, nil
}

func (s *Service) SearchVariants(ctx context.Context, referencia string, limit int) ([]domain.Variant, error) {
	if strings.TrimSpace(referencia) == "" {
		return nil, store.ErrInvalidTransaction
	}
	return s.repo.SearchVariantsByReferencia(ctx, referencia, limit)
}

func (s *Service) CreateVariant(ctx context.Context, productID string, req domain.VariantCreateRequest) (domain.Variant, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Variant{}, fmt.Errorf("admin role required")
	}

	req.Referencia = strings.ToUpper(strings.TrimSpace(req.Referencia))
	if req.Referencia == "" || req.PrecoVendaCents < 1 {
		return domain.Variant{}, store.ErrInvalidTransaction
	}
	if req.QuantidadeLoja < 0 || req.QuantidadeEstoque < 0 {
		return domain.Variant{}, store.ErrInvalidTransaction
	}

	created, err := s.repo.CreateVariant(ctx, domain.Variant{
		ProductID:         productID,
		Referencia:        req.Referencia,
		Cor:               strings.TrimSpace(req.Cor),
		Tamanho:           strings.TrimSpace(req.Tamanho),
		PrecoVendaCents:   req.PrecoVendaCents,
		QuantidadeLoja:    req.QuantidadeLoja,
		QuantidadeEstoque: req.QuantidadeEstoque,
	})
	if err != nil {
		return domain.Variant{}, err
	}
	return *created, nil
}

func (s *Service) UpdateVariant(ctx context.Context, variantID string, req domain.VariantUpdateRequest) (domain.Variant, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Variant{}, fmt.Errorf("admin role required")
	}

	existing, err := s.repo.GetVariantByID(ctx, variantID)
	if err != nil {
		return domain.Variant{}, err
	}

	updated := *existing
	if req.Cor != nil {
		updated.Cor = strings.TrimSpace(*req.Cor)
	}
	if req.Tamanho != nil {
		updated.Tamanho = strings.TrimSpace(*req.Tamanho)
	}
	if req.PrecoVendaCents != nil {
		if *req.PrecoVendaCents < 1 {
			return domain.Variant{}, store.ErrInvalidTransaction
		}
		updated.PrecoVendaCents = *req.PrecoVendaCents
	}

	saved, err := s.repo.UpdateVariant(ctx, updated)
	if err != nil {
		return domain.Variant{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteVariant(ctx context.Context, variantID string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}
	return s.repo.DeleteVariant(ctx, variantID)
}

// RegisterMovement records a manual stock adjustment: entrada, saida,
// transferencia or perda. The matching ledger entry is appended after the
// quantities change; a failed append rolls the delta back.
func (s *Service) RegisterMovement(ctx context.Context, req domain.MovementRequest) (domain.StockMovement, error) {
	actor, err := s.requireActiveActor(ctx)
	if err != nil {
		return domain.StockMovement{}, err
	}

	req.VariantID = strings.TrimSpace(req.VariantID)
	req.Tipo = strings.ToLower(strings.TrimSpace(req.Tipo))
	if req.VariantID == "" || req.Quantidade < 1 {
		return domain.StockMovement{}, store.ErrInvalidTransaction
	}

	var lojaDelta, estoqueDelta int
	switch req.Tipo {
	case domain.MovementEntrada:
		if req.Destino == "" {
			req.Destino = domain.LocationEstoque
		}
		switch req.Destino {
		case domain.LocationLoja:
			lojaDelta = req.Quantidade
		case domain.LocationEstoque:
			estoqueDelta = req.Quantidade
		default:
			return domain.StockMovement{}, store.ErrInvalidTransaction
		}
	case domain.MovementSaida, domain.MovementPerda:
		if req.Origem == "" {
			req.Origem = domain.LocationLoja
		}
		switch req.Origem {
		case domain.LocationLoja:
			lojaDelta = -req.Quantidade
		case domain.LocationEstoque:
			estoqueDelta = -req.Quantidade
		default:
			return domain.StockMovement{}, store.ErrInvalidTransaction
		}
	case domain.MovementVenda:
		// Manual sale adjustment outside the invoice flow: consumes store
		// stock first, then warehouse, like a regular sale line.
		loja, _, err := s.repo.GetStockQuantities(ctx, req.VariantID)
		if err != nil {
			return domain.StockMovement{}, err
		}
		fromLoja := req.Quantidade
		if fromLoja > loja {
			fromLoja = loja
		}
		lojaDelta = -fromLoja
		estoqueDelta = -(req.Quantidade - fromLoja)
		req.Origem = domain.LocationLoja
	case domain.MovementTransferencia:
		if req.Origem == "" {
			req.Origem = domain.LocationEstoque
		}
		if req.Destino == "" {
			req.Destino = domain.LocationLoja
		}
		if req.Origem == req.Destino {
			return domain.StockMovement{}, store.ErrInvalidTransaction
		}
		switch {
		case req.Origem == domain.LocationLoja && req.Destino == domain.LocationEstoque:
			lojaDelta = -req.Quantidade
			estoqueDelta = req.Quantidade
		case req.Origem == domain.LocationEstoque && req.Destino == domain.LocationLoja:
			lojaDelta = req.Quantidade
			estoqueDelta = -req.Quantidade
		default:
			return domain.StockMovement{}, store.ErrInvalidTransaction
		}
	default:
		return domain.StockMovement{}, store.ErrInvalidTransaction
	}

	if _, _, err := s.repo.ApplyStockDelta(ctx, req.VariantID, lojaDelta, estoqueDelta); err != nil {
		return domain.StockMovement{}, err
	}

	movement := domain.StockMovement{
		VariantID:   req.VariantID,
		EmployeeID:  actor.EmployeeID,
		Tipo:        req.Tipo,
		Quantidade:  req.Quantidade,
		Origem:      req.Origem,
		Destino:     req.Destino,
		Observacoes: strings.TrimSpace(req.Observacoes),
		CreatedAt:   time.Now().UTC(),
	}
	movementID, err := s.repo.AppendMovement(ctx, movement)
	if err != nil {
		if _, _, rbErr := s.repo.ApplyStockDelta(ctx, req.VariantID, -lojaDelta, -estoqueDelta); rbErr != nil {
			log.Printf("[service] WARN: failed to roll back stock delta variant=%s: %v", req.VariantID, rbErr)
		}
		return domain.StockMovement{}, err
	}
	movement.ID = movementID
	return movement, nil
}

func (s *Service) ListMovements(ctx context.Context, limit int) ([]domain.StockMovement, error) {
	if limit < 1 {
		limit = 100
	}
	return s.repo.ListMovements(ctx, limit)
}

// RegisterTransaction processes a VENDA, DEVOLUCAO or TROCA submission as one
// all-or-nothing unit. Validation runs entirely before any stock mutation;
// the repository then applies the sale, every delta and every ledger entry
// atomically.
func (s *Service) RegisterTransaction(ctx context.Context, req domain.TransactionRequest) (domain.TransactionResponse, error) {
	actor, err := s.requireActiveActor(ctx)
	if err != nil {
		return domain.TransactionResponse{}, err
	}

	req.FaturaNumero = strings.TrimSpace(req.FaturaNumero)
	req.TipoTransacao = strings.ToUpper(strings.TrimSpace(req.TipoTransacao))
	if req.FaturaNumero == "" {
		return domain.TransactionResponse{}, store.ErrInvalidTransaction
	}
	switch req.TipoTransacao {
	case domain.TransacaoVenda, domain.TransacaoDevolucao, domain.TransacaoTroca:
	default:
		return domain.TransactionResponse{}, store.ErrInvalidTransaction
	}

	items := aggregateItems(req.Itens)
	if len(items) == 0 {
		return domain.TransactionResponse{}, store.ErrInvalidTransaction
	}

	if req.DescontoPercentual < 0 {
		req.DescontoPercentual = 0
	}
	if req.DescontoPercentual > 100 {
		req.DescontoPercentual = 100
	}

	if _, err := s.repo.FindSaleByInvoice(ctx, req.FaturaNumero); err == nil {
		return domain.TransactionResponse{}, fmt.Errorf("%w: fatura %s", store.ErrDuplicateInvoice, req.FaturaNumero)
	} else if !errors.Is(err, store.ErrNotFound) {
		return domain.TransactionResponse{}, err
	}

	subtotal := int64(0)
	for _, item := range items {
		subtotal += int64(item.Quantidade) * item.PrecoUnitarioCents
	}
	desconto := int64(math.Round(float64(subtotal) * req.DescontoPercentual / 100))
	total := subtotal - desconto

	sale := domain.Sale{
		FaturaNumero:       req.FaturaNumero,
		EmployeeID:         actor.EmployeeID,
		TipoTransacao:      req.TipoTransacao,
		DescontoPercentual: req.DescontoPercentual,
		CreatedAt:          time.Now().UTC(),
	}

	var deltas []store.ItemDelta
	if req.TipoTransacao == domain.TransacaoVenda {
		sale.TotalVendaCents = total
		deltas, err = s.buildSaleDeltas(ctx, actor, req.FaturaNumero, items)
	} else {
		sale.TotalVendaCents = -total
		deltas, sale.OriginalSaleID, err = s.buildReturnDeltas(ctx, actor, req, items)
	}
	if err != nil {
		return domain.TransactionResponse{}, err
	}

	created, err := s.repo.RegisterSaleTransaction(ctx, sale, deltas)
	if err != nil {
		return domain.TransactionResponse{}, err
	}

	return domain.TransactionResponse{
		Success:    true,
		SaleID:     created.ID,
		TotalCents: created.TotalVendaCents,
		Message:    "Transação registrada com sucesso",
	}, nil
}

// buildSaleDeltas resolves each line against current stock, draining the
// store before the warehouse. The quantities read here are advisory; the
// repository re-checks them atomically when the transaction commits.
func (s *Service) buildSaleDeltas(ctx context.Context, actor domain.Actor, fatura string, items []domain.TransactionItem) ([]store.ItemDelta, error) {
	deltas := make([]store.ItemDelta, 0, len(items))
	for _, item := range items {
		loja, estoque, err := s.repo.GetStockQuantities(ctx, item.VariantID)
		if err != nil {
			return nil, err
		}
		if loja+estoque < item.Quantidade {
			return nil, fmt.Errorf("%w: variante %s tem %d disponivel, solicitado %d",
				store.ErrInsufficientStock, item.VariantID, loja+estoque, item.Quantidade)
		}

		fromLoja := item.Quantidade
		if fromLoja > loja {
			fromLoja = loja
		}
		fromEstoque := item.Quantidade - fromLoja

		deltas = append(deltas, store.ItemDelta{
			VariantID:    item.VariantID,
			LojaDelta:    -fromLoja,
			EstoqueDelta: -fromEstoque,
			Movement: domain.StockMovement{
				VariantID:   item.VariantID,
				EmployeeID:  actor.EmployeeID,
				Tipo:        domain.MovementVenda,
				Quantidade:  item.Quantidade,
				Origem:      domain.LocationLoja,
				Observacoes: "Venda - Fatura: " + fatura,
				CreatedAt:   time.Now().UTC(),
			},
		})
	}
	return deltas, nil
}

// buildReturnDeltas routes returned units to the requested destination: the
// store floor by default, the warehouse when asked, or back to the supplier,
// in which case no local counter changes and only the ledger records it.
func (s *Service) buildReturnDeltas(ctx context.Context, actor domain.Actor, req domain.TransactionRequest, items []domain.TransactionItem) ([]store.ItemDelta, string, error) {
	req.OriginalSaleID = strings.TrimSpace(req.OriginalSaleID)
	if req.OriginalSaleID == "" {
		return nil, "", store.ErrInvalidTransaction
	}
	original, err := s.repo.FindSaleByID(ctx, req.OriginalSaleID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", store.ErrOriginalSaleNotFound
		}
		return nil, "", err
	}

	destino := strings.ToUpper(strings.TrimSpace(req.DestinoDevolucao))
	if destino == "" {
		destino = domain.LocationLoja
	}

	var tipoMovimento string
	var lojaPerUnit, estoquePerUnit int
	switch destino {
	case domain.LocationLoja:
		tipoMovimento = domain.MovementDevolucao
		lojaPerUnit = 1
	case domain.LocationEstoque:
		tipoMovimento = domain.MovementDevolucao
		estoquePerUnit = 1
	case domain.LocationFornecedor:
		tipoMovimento = domain.MovementDevolucaoFornecedor
	default:
		return nil, "", store.ErrInvalidTransaction
	}
	if destino != domain.LocationFornecedor && req.TipoTransacao == domain.TransacaoTroca {
		tipoMovimento = domain.MovementTroca
	}

	observacoes := fmt.Sprintf("%s - Fatura: %s - Original: %s", req.TipoTransacao, req.FaturaNumero, original.FaturaNumero)

	deltas := make([]store.ItemDelta, 0, len(items))
	for _, item := range items {
		if _, err := s.repo.GetVariantByID(ctx, item.VariantID); err != nil {
			return nil, "", err
		}
		deltas = append(deltas, store.ItemDelta{
			VariantID:    item.VariantID,
			LojaDelta:    item.Quantidade * lojaPerUnit,
			EstoqueDelta: item.Quantidade * estoquePerUnit,
			Movement: domain.StockMovement{
				VariantID:   item.VariantID,
				EmployeeID:  actor.EmployeeID,
				Tipo:        tipoMovimento,
				Quantidade:  item.Quantidade,
				Destino:     destino,
				Observacoes: observacoes,
				CreatedAt:   time.Now().UTC(),
			},
		})
	}
	return deltas, original.ID, nil
}

// LookupSaleByInvoice reconstructs a sale's line items from its ledger
// entries. Unit prices come from the current variant catalog.
func (s *Service) LookupSaleByInvoice(ctx context.Context, faturaNumero string) (domain.SaleLookupResponse, error) {
	faturaNumero = strings.TrimSpace(faturaNumero)
	if faturaNumero == "" {
		return domain.SaleLookupResponse{}, store.ErrInvalidTransaction
	}

	sale, err := s.repo.FindSaleByInvoice(ctx, faturaNumero)
	if err != nil {
		return domain.SaleLookupResponse{}, err
	}
	movements, err := s.repo.ListMovementsBySale(ctx, sale.ID)
	if err != nil {
		return domain.SaleLookupResponse{}, err
	}

	itens := make([]domain.SaleItem, 0, len(movements))
	for _, movement := range movements {
		item := domain.SaleItem{
			MovementID: movement.ID,
			VariantID:  movement.VariantID,
			Quantidade: movement.Quantidade,
		}
		variant, err := s.repo.GetVariantByID(ctx, movement.VariantID)
		if err == nil {
			item.Referencia = variant.Referencia
			item.Cor = variant.Cor
			item.Tamanho = variant.Tamanho
			item.PrecoUnitarioCents = variant.PrecoVendaCents
			if product, perr := s.repo.GetProductByID(ctx, variant.ProductID); perr == nil {
				item.ProdutoNome = product.Nome
			}
		}
		itens = append(itens, item)
	}

	return domain.SaleLookupResponse{Sale: *sale, Itens: itens}, nil
}

func (s *Service) CreateSupplier(ctx context.Context, req domain.SupplierCreateRequest) (domain.Supplier, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Supplier{}, fmt.Errorf("admin role required")
	}

	req.Nome = strings.TrimSpace(req.Nome)
	if req.Nome == "" {
		return domain.Supplier{}, store.ErrInvalidTransaction
	}

	created, err := s.repo.CreateSupplier(ctx, domain.Supplier{
		Nome:     req.Nome,
		CNPJ:     strings.TrimSpace(req.CNPJ),
		Telefone: strings.TrimSpace(req.Telefone),
		Email:    strings.TrimSpace(req.Email),
	})
	if err != nil {
		return domain.Supplier{}, err
	}
	return *created, nil
}

func (s *Service) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	return s.repo.ListSuppliers(ctx)
}

func (s *Service) UpdateSupplier(ctx context.Context, id string, req domain.SupplierUpdateRequest) (domain.Supplier, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Supplier{}, fmt.Errorf("admin role required")
	}

	suppliers, err := s.repo.ListSuppliers(ctx)
	if err != nil {
		return domain.Supplier{}, err
	}
	var existing *domain.Supplier
	for i := range suppliers {
		if suppliers[i].ID == id {
			existing = &suppliers[i]
			break
		}
	}
	if existing == nil {
		return domain.Supplier{}, store.ErrNotFound
	}

	updated := *existing
	if req.Nome != nil {
		nome := strings.TrimSpace(*req.Nome)
		if nome == "" {
			return domain.Supplier{}, store.ErrInvalidTransaction
		}
		updated.Nome = nome
	}
	if req.CNPJ != nil {
		updated.CNPJ = strings.TrimSpace(*req.CNPJ)
	}
	if req.Telefone != nil {
		updated.Telefone = strings.TrimSpace(*req.Telefone)
	}
	if req.Email != nil {
		updated.Email = strings.TrimSpace(*req.Email)
	}

	saved, err := s.repo.UpdateSupplier(ctx, updated)
	if err != nil {
		return domain.Supplier{}, err
	}
	return *saved, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id string) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return fmt.Errorf("admin role required")
	}
	return s.repo.DeleteSupplier(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context, status string) ([]domain.Employee, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return nil, fmt.Errorf("admin role required")
	}
	return s.repo.ListEmployees(ctx, strings.ToLower(strings.TrimSpace(status)))
}

func (s *Service) UpdateEmployeeStatus(ctx context.Context, id string, status string) (domain.Employee, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return domain.Employee{}, fmt.Errorf("admin role required")
	}

	status = strings.ToLower(strings.TrimSpace(status))
	switch status {
	case domain.EmployeeAtivo, domain.EmployeePendente, domain.EmployeeInativo:
	default:
		return domain.Employee{}, store.ErrInvalidTransaction
	}
	if id == actor.EmployeeID && status != domain.EmployeeAtivo {
		return domain.Employee{}, store.ErrInvalidTransaction
	}

	updated, err := s.repo.UpdateEmployeeStatus(ctx, id, status)
	if err != nil {
		return domain.Employee{}, err
	}
	return *updated, nil
}

func (s *Service) Dashboard(ctx context.Context) (domain.DashboardReport, error) {
	sales, err := s.repo.ListSalesToday(ctx)
	if err != nil {
		return domain.DashboardReport{}, err
	}

	report := domain.DashboardReport{
		Date: time.Now().UTC().Format("2006-01-02"),
	}
	for _, sale := range sales {
		if sale.TipoTransacao == domain.TransacaoVenda {
			report.VendasHoje++
		} else {
			report.DevolucoesHoje++
		}
		report.TotalVendidoCents += sale.TotalVendaCents
	}

	lowStock, err := s.repo.CountLowStockVariants(ctx, s.lowStockThreshold)
	if err != nil {
		return domain.DashboardReport{}, err
	}
	report.VariantesEstoqueBaixo = lowStock

	movements, err := s.repo.ListMovements(ctx, 10)
	if err != nil {
		return domain.DashboardReport{}, err
	}
	report.UltimasMovimentacoes = movements

	return report, nil
}

// requireActiveActor resolves the context actor against the employee store
// and refuses anyone whose status is not ativo. Tokens outlive status
// changes, so the check runs on every mutating operation.
func (s *Service) requireActiveActor(ctx context.Context) (domain.Actor, error) {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.EmployeeID == "" {
		return domain.Actor{}, store.ErrEmployeeInactive
	}
	employee, err := s.repo.GetEmployeeByID(ctx, actor.EmployeeID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Actor{}, store.ErrEmployeeInactive
		}
		return domain.Actor{}, err
	}
	if employee.Status != domain.EmployeeAtivo {
		return domain.Actor{}, store.ErrEmployeeInactive
	}
	return actor, nil
}

// aggregateItems merges duplicate variant lines, keeping the first line's
// unit price. Lines without a variant, a positive quantity or a
// non-negative price are rejected by returning nil. A zero price is a valid
// promotional line.
func aggregateItems(items []domain.TransactionItem) []domain.TransactionItem {
	order := make([]string, 0, len(items))
	agg := make(map[string]domain.TransactionItem, len(items))
	for _, item := range items {
		item.VariantID = strings.TrimSpace(item.VariantID)
		if item.VariantID == "" || item.Quantidade < 1 || item.PrecoUnitarioCents < 0 {
			return nil
		}
		existing, seen := agg[item.VariantID]
		if !seen {
			order = append(order, item.VariantID)
			agg[item.VariantID] = item
			continue
		}
		existing.Quantidade += item.Quantidade
		agg[item.VariantID] = existing
	}

	merged := make([]domain.TransactionItem, 0, len(order))
	for _, id := range order {
		merged = append(merged, agg[id])
	}
	return merged
}
