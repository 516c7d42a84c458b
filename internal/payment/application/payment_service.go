package application

import (
	"context"
	"fmt"
	"strconv"
	"time"

	actuatorDomain "github.com/davicafu/scandrink/internal/actuator/domain"
	"github.com/davicafu/scandrink/internal/payment/domain"
	sharedDomain "github.com/davicafu/scandrink/internal/shared/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService define los casos de uso del pago: crear la transacción en
// la pasarela y traducir su notificación en comandos de relé.
type PaymentService struct {
	repo       domain.TransactionRepository
	orders     domain.OrderStore
	gateway    domain.PaymentGateway
	catalog    *domain.Catalog
	dispatcher actuatorDomain.CommandDispatcher
	serverKey  string
	// allowTestNotification acepta sin verificar firma las notificaciones
	// de pedidos desconocidos (pings de modo test). Ver config.
	allowTestNotification bool
	log                   *zap.Logger
}

// NewPaymentService constructor
func NewPaymentService(
	repo domain.TransactionRepository,
	orders domain.OrderStore,
	gateway domain.PaymentGateway,
	catalog *domain.Catalog,
	dispatcher actuatorDomain.CommandDispatcher,
	serverKey string,
	allowTestNotification bool,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		repo:                  repo,
		orders:                orders,
		gateway:               gateway,
		catalog:               catalog,
		dispatcher:            dispatcher,
		serverKey:             serverKey,
		allowTestNotification: allowTestNotification,
		log:                   log,
	}
}

// CreateTransaction valida el pedido, crea el token Snap y deja la
// transacción persistida como pendiente (best effort).
func (s *PaymentService) CreateTransaction(ctx context.Context, itemName string, quantity int, customer domain.CustomerDetails) (token, orderID string, err error) {
	item, ok := s.catalog.Resolve(itemName)
	if !ok {
		return "", "", domain.ErrItemNotFound
	}
	if quantity < 1 || quantity > 10 {
		return "", "", domain.ErrInvalidQuantity
	}

	orderID = fmt.Sprintf("ORDER-%d", time.Now().UnixMilli())
	gross := item.Price * int64(quantity)

	token, err = s.gateway.CreateToken(ctx, orderID, gross, customer)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", domain.ErrGatewayUnavailable, err)
	}

	// El store de pedidos es lo que permitirá resolver la notificación;
	// si falla, la notificación se tratará como pedido desconocido.
	if err := s.orders.Put(ctx, orderID, itemName); err != nil {
		s.log.Warn("⚠️ No se pudo guardar el pedido en el store", zap.String("order_id", orderID), zap.Error(err))
	}

	tx := &domain.Transaction{
		OrderID:   orderID,
		ItemName:  itemName,
		Price:     gross,
		Status:    domain.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	evt := newOutboxEvent(domain.PaymentCreated, tx)
	if err := s.repo.Save(ctx, tx, evt); err != nil {
		// La persistencia nunca bloquea el camino del pago.
		s.log.Warn("⚠️ No se pudo persistir la transacción pendiente", zap.String("order_id", orderID), zap.Error(err))
	}

	return token, orderID, nil
}

// HandleNotification es la máquina de estados sobre el desenlace del pago.
// Devuelve ErrInvalidSignature si la firma no cuadra; cualquier fallo de
// persistencia o de publicación se contiene aquí y no llega al caller.
func (s *PaymentService) HandleNotification(ctx context.Context, n domain.Notification) error {
	itemName, known := s.orders.Get(ctx, n.OrderID)
	if !known {
		itemName = domain.TestItemName
		if s.allowTestNotification {
			// Comportamiento original: ping de test aceptado sin verificar
			// firma y sin tocar el actuador.
			s.log.Info("Notificación de pedido desconocido aceptada como test",
				zap.String("order_id", n.OrderID),
				zap.String("transaction_status", n.TransactionStatus),
			)
			return nil
		}
	}

	if !domain.VerifySignature(n, s.serverKey) {
		s.log.Warn("Firma de notificación inválida", zap.String("order_id", n.OrderID))
		return domain.ErrInvalidSignature
	}

	switch {
	case n.IsPaid():
		if item, ok := s.catalog.Resolve(itemName); ok {
			s.dispatcher.Enqueue(actuatorDomain.Command{
				OrderID: n.OrderID,
				Status:  actuatorDomain.RelayOn,
				Relay:   item.Relay,
			})
		} else {
			s.log.Warn("Pago liquidado sin relé asociado", zap.String("order_id", n.OrderID), zap.String("item", itemName))
		}
		s.recordOutcome(ctx, n, itemName, domain.StatusSuccess, domain.PaymentSettled)

	case n.IsFailed():
		// Apagado incondicional de todos los relés conocidos: un "on"
		// atascado no debe sobrevivir a un pago fallido.
		for _, relay := range s.catalog.Relays() {
			s.dispatcher.Enqueue(actuatorDomain.Command{
				OrderID: n.OrderID,
				Status:  actuatorDomain.RelayOff,
				Relay:   relay,
			})
		}
		s.recordOutcome(ctx, n, itemName, domain.StatusFailed, domain.PaymentFailed)

	default:
		// pending y similares: sin acción sobre el actuador. La fila ya
		// está como "pending" desde CreateTransaction.
		s.log.Info("Notificación sin acción de actuador",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_status", n.TransactionStatus),
		)
	}

	if n.IsTerminal() {
		if err := s.orders.Delete(ctx, n.OrderID); err != nil {
			s.log.Warn("⚠️ No se pudo limpiar el pedido del store", zap.String("order_id", n.OrderID), zap.Error(err))
		}
	}

	return nil
}

// ListTransactions devuelve todas las transacciones persistidas.
func (s *PaymentService) ListTransactions(ctx context.Context) ([]*domain.Transaction, error) {
	return s.repo.List(ctx)
}

// recordOutcome persiste el estado terminal junto con su evento outbox.
// Best effort: los fallos se registran y se tragan.
func (s *PaymentService) recordOutcome(ctx context.Context, n domain.Notification, itemName string, status domain.TransactionStatus, eventType string) {
	tx := &domain.Transaction{
		OrderID:   n.OrderID,
		ItemName:  itemName,
		Price:     parseGross(n.GrossAmount),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	evt := newOutboxEvent(eventType, tx)
	if err := s.repo.UpdateStatus(ctx, n.OrderID, status, evt); err != nil {
		s.log.Warn("⚠️ No se pudo persistir el desenlace de la transacción",
			zap.String("order_id", n.OrderID),
			zap.String("status", string(status)),
			zap.Error(err),
		)
	}
}

func newOutboxEvent(eventType string, tx *domain.Transaction) sharedDomain.OutboxEvent {
	return sharedDomain.OutboxEvent{
		ID:            uuid.New(),
		AggregateType: "payment",
		AggregateID:   tx.OrderID,
		EventType:     eventType,
		Payload:       tx,
		CreatedAt:     time.Now().UTC(),
		Processed:     false,
	}
}

func parseGross(gross string) int64 {
	v, err := strconv.ParseFloat(gross, 64)
	if err != nil {
		return 0
	}
	return int64(v)
}
