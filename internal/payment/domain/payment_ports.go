package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	sharedDomain "github.com/davicafu/scandrink/internal/shared/domain"
)

// ---------- Errores de dominio ----------
var (
	ErrItemNotFound        = errors.New("item not found in catalog")
	ErrInvalidQuantity     = errors.New("quantity must be between 1 and 10")
	ErrInvalidSignature    = errors.New("invalid notification signature")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrGatewayUnavailable  = errors.New("payment gateway unavailable")
)

// ---------- Interfaces (Ports) ----------

// TransactionRepository define la persistencia de transacciones.
// Todos los fallos de este puerto se tratan como "best effort": se
// registran y nunca bloquean el camino del pago ni del actuador.
type TransactionRepository interface {
	// Save inserta la transacción pendiente junto con su evento outbox,
	// en la misma transacción de base de datos.
	Save(ctx context.Context, t *Transaction, evt sharedDomain.OutboxEvent) error

	// UpdateStatus pasa la transacción a su estado terminal junto con su
	// evento outbox. Debe devolver ErrTransactionNotFound si no existe.
	UpdateStatus(ctx context.Context, orderID string, status TransactionStatus, evt sharedDomain.OutboxEvent) error

	// List devuelve todas las transacciones, las más recientes primero.
	List(ctx context.Context) ([]*Transaction, error)
}

// OrderStore guarda la relación pedido→producto entre la creación de la
// transacción y la llegada de su notificación.
type OrderStore interface {
	Put(ctx context.Context, orderID, itemName string) error
	// Get devuelve (item, true) si el pedido es conocido.
	Get(ctx context.Context, orderID string) (string, bool)
	Delete(ctx context.Context, orderID string) error
}

// PaymentGateway crea el token de pago en la pasarela (Midtrans Snap).
type PaymentGateway interface {
	CreateToken(ctx context.Context, orderID string, grossAmount int64, customer CustomerDetails) (string, error)
}

// SalesAnalytics es el sumidero analítico de ventas (ClickHouse).
type SalesAnalytics interface {
	LogSale(ctx context.Context, t *Transaction) error
	GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailySalesTrend, error)
}

// DailySalesTrend es una fila de la tendencia diaria de ventas.
type DailySalesTrend struct {
	Day     time.Time `json:"day"`
	Orders  uint64    `json:"orders"`
	Revenue int64     `json:"revenue"`
}

// ---------- Helpers comunes (cache keys, etc.) ----------

// OrderKey forma una key consistente para el store de pedidos.
func OrderKey(orderID string) string {
	return fmt.Sprintf("order:item:%s", orderID)
}
