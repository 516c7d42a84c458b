package mocks

import (
	"context"
	"errors"
	"sync"

	actuatorDomain "github.com/davicafu/scandrink/internal/actuator/domain"
	paymentDomain "github.com/davicafu/scandrink/internal/payment/domain"
	sharedDomain "github.com/davicafu/scandrink/internal/shared/domain"
)

// InMemoryTransactionRepo simula TransactionRepository con outbox incluido.
type InMemoryTransactionRepo struct {
	Transactions map[string]*paymentDomain.Transaction
	Outbox       []sharedDomain.OutboxEvent
	// FailAll hace fallar todas las operaciones (persistencia caída).
	FailAll bool
	mu      sync.Mutex
}

func NewInMemoryTransactionRepo() *InMemoryTransactionRepo {
	return &InMemoryTransactionRepo{
		Transactions: make(map[string]*paymentDomain.Transaction),
		Outbox:       []sharedDomain.OutboxEvent{},
	}
}

func (r *InMemoryTransactionRepo) Save(ctx context.Context, t *paymentDomain.Transaction, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAll {
		return errors.New("persistence unavailable")
	}
	r.Transactions[t.OrderID] = t
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryTransactionRepo) UpdateStatus(ctx context.Context, orderID string, status paymentDomain.TransactionStatus, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAll {
		return errors.New("persistence unavailable")
	}
	t, ok := r.Transactions[orderID]
	if !ok {
		return paymentDomain.ErrTransactionNotFound
	}
	t.Status = status
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryTransactionRepo) List(ctx context.Context) ([]*paymentDomain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailAll {
		return nil, errors.New("persistence unavailable")
	}
	var txs []*paymentDomain.Transaction
	for _, t := range r.Transactions {
		txs = append(txs, t)
	}
	return txs, nil
}

// InMemoryOrderStore simula el store pedido→producto.
type InMemoryOrderStore struct {
	Orders map[string]string
	mu     sync.Mutex
}

func NewInMemoryOrderStore() *InMemoryOrderStore {
	return &InMemoryOrderStore{Orders: make(map[string]string)}
}

func (s *InMemoryOrderStore) Put(ctx context.Context, orderID, itemName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Orders[orderID] = itemName
	return nil
}

func (s *InMemoryOrderStore) Get(ctx context.Context, orderID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	item, ok := s.Orders[orderID]
	return item, ok
}

func (s *InMemoryOrderStore) Delete(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.Orders, orderID)
	return nil
}

// DummyGateway simula la pasarela de pago.
type DummyGateway struct {
	Token string
	Err   error
}

func (g *DummyGateway) CreateToken(ctx context.Context, orderID string, grossAmount int64, customer paymentDomain.CustomerDetails) (string, error) {
	if g.Err != nil {
		return "", g.Err
	}
	if g.Token != "" {
		return g.Token, nil
	}
	return "snap-token-" + orderID, nil
}

// CapturingDispatcher acumula los comandos encolados sin publicarlos.
type CapturingDispatcher struct {
	mu       sync.Mutex
	Commands []actuatorDomain.Command
}

func (d *CapturingDispatcher) Enqueue(cmd actuatorDomain.Command) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.Commands = append(d.Commands, cmd)
}

func (d *CapturingDispatcher) Enqueued() []actuatorDomain.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]actuatorDomain.Command, len(d.Commands))
	copy(out, d.Commands)
	return out
}
