package cache

import (
	"context"
	"time"

	"lojapos/backend/internal/domain"
)

// CartStore persists terminal cart snapshots so a cart survives a page reload
// or terminal restart. Snapshots are advisory staging state; the transaction
// engine never trusts them.
type CartStore interface {
	Get(ctx context.Context, terminal string) (*domain.CartSnapshot, bool, error)
	Set(ctx context.Context, terminal string, snapshot *domain.CartSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, terminal string) error
}

type NoopCartStore struct{}

func (NoopCartStore) Get(_ context.Context, _ string) (*domain.CartSnapshot, bool, error) {
	return nil, false, nil
}

func (NoopCartStore) Set(_ context.Context, _ string, _ *domain.CartSnapshot, _ time.Duration) error {
	return nil
}

func (NoopCartStore) Delete(_ context.Context, _ string) error {
	return nil
}
