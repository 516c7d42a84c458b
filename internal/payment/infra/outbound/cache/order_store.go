package cache

import (
	"context"
	"time"

	"github.com/davicafu/scandrink/internal/payment/domain"
	sharedCache "github.com/davicafu/scandrink/internal/shared/infra/platform/cache"
)

// OrderStore implementa domain.OrderStore sobre la caché compartida
// (Redis o memoria). El TTL acota el crecimiento del mapa pedido→producto
// cuando una notificación nunca llega; TTL 0 conserva las entradas hasta
// la limpieza terminal.
type OrderStore struct {
	cache sharedCache.Cache
	ttl   time.Duration
}

// Verificación estática
var _ domain.OrderStore = (*OrderStore)(nil)

func NewOrderStore(cache sharedCache.Cache, ttl time.Duration) *OrderStore {
	return &OrderStore{cache: cache, ttl: ttl}
}

func (s *OrderStore) Put(ctx context.Context, orderID, itemName string) error {
	return s.cache.Set(ctx, domain.OrderKey(orderID), itemName, int(s.ttl.Seconds()))
}

func (s *OrderStore) Get(ctx context.Context, orderID string) (string, bool) {
	var itemName string
	ok, err := s.cache.Get(ctx, domain.OrderKey(orderID), &itemName)
	if err != nil || !ok {
		return "", false
	}
	return itemName, true
}

func (s *OrderStore) Delete(ctx context.Context, orderID string) error {
	return s.cache.Delete(ctx, domain.OrderKey(orderID))
}
