package domain

import (
	"time"

	sharedBus "github.com/davicafu/scandrink/internal/shared/infra/platform/bus"
)

// TransactionStatus es el estado persistido de una transacción.
type TransactionStatus string

const (
	StatusPending TransactionStatus = "pending"
	StatusSuccess TransactionStatus = "success"
	StatusFailed  TransactionStatus = "failed"
)

// Transaction representa el estado de un pago en la máquina.
type Transaction struct {
	OrderID   string            `json:"order_id"`
	ItemName  string            `json:"item_name"`
	Price     int64             `json:"price"`
	Status    TransactionStatus `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}

func (t *Transaction) PartitionKey() string {
	return t.OrderID
}

// Verificación estática para asegurar que Transaction implementa la interfaz
var _ sharedBus.Keyer = (*Transaction)(nil)

// CustomerDetails son los datos del comprador que pide Midtrans.
type CustomerDetails struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}
