package cart

import (
	"context"
	"log"
	"math"
	"strings"
	"sync"
	"time"

	"lojapos/backend/internal/cache"
	"lojapos/backend/internal/domain"
	"lojapos/backend/internal/store"
)

// Manager stages per-terminal carts before submission. A cart is advisory
// staging state only: the quantity ceiling it enforces comes from the stock
// snapshot taken when each variant was added, and the transaction engine
// re-validates everything server-side.
type Manager struct {
	mu        sync.Mutex
	carts     map[string]*domain.CartSnapshot
	repo      store.Repository
	cartStore cache.CartStore
	ttl       time.Duration
}

func NewManager(repo store.Repository, cartStore cache.CartStore, ttl time.Duration) *Manager {
	if ttl < time.Minute {
		ttl = 12 * time.Hour
	}
	return &Manager{
		carts:     make(map[string]*domain.CartSnapshot),
		repo:      repo,
		cartStore: cartStore,
		ttl:       ttl,
	}
}

func (m *Manager) Get(ctx context.Context, terminal string) (domain.CartSnapshot, error) {
	terminal = strings.TrimSpace(terminal)
	if terminal == "" {
		return domain.CartSnapshot{}, store.ErrInvalidTransaction
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, err := m.loadLocked(ctx, terminal)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	return *snapshot, nil
}

// AddItem puts one more unit of the variant in the terminal's cart. Adding
// past the stock observed at lookup time is refused early so the cashier sees
// the problem before checkout.
func (m *Manager) AddItem(ctx context.Context, terminal string, variantID string) (domain.CartSnapshot, error) {
	terminal = strings.TrimSpace(terminal)
	variantID = strings.TrimSpace(variantID)
	if terminal == "" || variantID == "" {
		return domain.CartSnapshot{}, store.ErrInvalidTransaction
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, err := m.loadLocked(ctx, terminal)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	for i := range snapshot.Itens {
		item := &snapshot.Itens[i]
		if item.VariantID != variantID {
			continue
		}
		if item.Quantidade+1 > item.QuantidadeLoja+item.QuantidadeEstoque {
			return domain.CartSnapshot{}, store.ErrInsufficientStock
		}
		item.Quantidade++
		m.recomputeLocked(snapshot)
		m.persistLocked(ctx, terminal, snapshot)
		return *snapshot, nil
	}

	variant, err := m.repo.GetVariantByID(ctx, variantID)
	if err != nil {
		return domain.CartSnapshot{}, err
	}
	if variant.QuantidadeLoja+variant.QuantidadeEstoque < 1 {
		return domain.CartSnapshot{}, store.ErrInsufficientStock
	}

	produtoNome := ""
	if product, err := m.repo.GetProductByID(ctx, variant.ProductID); err == nil {
		produtoNome = product.Nome
	}

	snapshot.Itens = append(snapshot.Itens, domain.CartItem{
		VariantID:         variant.ID,
		Referencia:        variant.Referencia,
		ProdutoNome:       produtoNome,
		PrecoCents:        variant.PrecoVendaCents,
		Quantidade:        1,
		QuantidadeLoja:    variant.QuantidadeLoja,
		QuantidadeEstoque: variant.QuantidadeEstoque,
	})
	m.recomputeLocked(snapshot)
	m.persistLocked(ctx, terminal, snapshot)
	return *snapshot, nil
}

// UpdateQuantity sets a line's quantity directly. Zero or negative removes
// the line.
func (m *Manager) UpdateQuantity(ctx context.Context, terminal string, req domain.CartQuantityRequest) (domain.CartSnapshot, error) {
	terminal = strings.TrimSpace(terminal)
	req.VariantID = strings.TrimSpace(req.VariantID)
	if terminal == "" || req.VariantID == "" {
		return domain.CartSnapshot{}, store.ErrInvalidTransaction
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot, err := m.loadLocked(ctx, terminal)
	if err != nil {
		return domain.CartSnapshot{}, err
	}

	for i := range snapshot.Itens {
		item := &snapshot.Itens[i]
		if item.VariantID != req.VariantID {
			continue
		}
		if req.Quantidade <= 0 {
			snapshot.Itens = append(snapshot.Itens[:i], snapshot.Itens[i+1:]...)
		} else {
			if req.Quantidade > item.QuantidadeLoja+item.QuantidadeEstoque {
				return domain.CartSnapshot{}, store.ErrInsufficientStock
			}
			item.Quantidade = req.Quantidade
		}
		m.recomputeLocked(snapshot)
		m.persistLocked(ctx, terminal, snapshot)
		return *snapshot, nil
	}
	return domain.CartSnapshot{}, store.ErrNotFound
}

func (m *Manager) RemoveItem(ctx context.Context, terminal string, variantID string) (domain.CartSnapshot, error) {
	return m.UpdateQuantity(ctx, terminal, domain.CartQuantityRequest{VariantID: variantID, Quantidade: 0})
}

func (m *Manager) Clear(ctx context.Context, terminal string) error {
	terminal = strings.TrimSpace(terminal)
	if terminal == "" {
		return store.ErrInvalidTransaction
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.carts, terminal)
	if err := m.cartStore.Delete(ctx, terminal); err != nil {
		log.Printf("[cart] WARN: failed to delete persisted cart terminal=%s: %v", terminal, err)
	}
	return nil
}

// Total applies a discount percentage, clamped to [0, 100], to the snapshot
// subtotal. The discount amount is rounded to the cent and subtracted, the
// same arithmetic the transaction processor uses for the final total.
func Total(snapshot domain.CartSnapshot, descontoPercentual float64) int64 {
	if descontoPercentual < 0 {
		descontoPercentual = 0
	}
	if descontoPercentual > 100 {
		descontoPercentual = 100
	}
	desconto := int64(math.Round(float64(snapshot.SubtotalCents) * descontoPercentual / 100))
	return snapshot.SubtotalCents - desconto
}

func (m *Manager) loadLocked(ctx context.Context, terminal string) (*domain.CartSnapshot, error) {
	if snapshot, ok := m.carts[terminal]; ok {
		return snapshot, nil
	}

	persisted, found, err := m.cartStore.Get(ctx, terminal)
	if err != nil {
		log.Printf("[cart] WARN: failed to load persisted cart terminal=%s: %v", terminal, err)
	}
	if found && persisted != nil {
		m.carts[terminal] = persisted
		return persisted, nil
	}

	snapshot := &domain.CartSnapshot{Terminal: terminal, Itens: []domain.CartItem{}}
	m.carts[terminal] = snapshot
	return snapshot, nil
}

func (m *Manager) recomputeLocked(snapshot *domain.CartSnapshot) {
	subtotal := int64(0)
	for i := range snapshot.Itens {
		item := &snapshot.Itens[i]
		item.SubtotalCents = item.PrecoCents * int64(item.Quantidade)
		subtotal += item.SubtotalCents
	}
	snapshot.SubtotalCents = subtotal
	snapshot.UpdatedAt = time.Now().UTC()
}

func (m *Manager) persistLocked(ctx context.Context, terminal string, snapshot *domain.CartSnapshot) {
	if err := m.cartStore.Set(ctx, terminal, snapshot, m.ttl); err != nil {
		log.Printf("[cart] WARN: failed to persist cart terminal=%s: %v", terminal, err)
	}
}
