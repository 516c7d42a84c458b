package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCatalog_Resolve(t *testing.T) {
	catalog := DefaultCatalog()

	item, ok := catalog.Resolve("Air Putih")
	assert.True(t, ok)
	assert.Equal(t, int64(100), item.Price)
	assert.Equal(t, 1, item.Relay)

	item, ok = catalog.Resolve("Teh")
	assert.True(t, ok)
	assert.Equal(t, 2, item.Relay)

	_, ok = catalog.Resolve("Cerveza")
	assert.False(t, ok)
}

func TestCatalog_Relays(t *testing.T) {
	assert.Equal(t, []int{1, 2}, DefaultCatalog().Relays())

	// Relés duplicados se devuelven una sola vez.
	c := NewCatalog(
		Item{Name: "A", Price: 10, Relay: 3},
		Item{Name: "B", Price: 20, Relay: 3},
		Item{Name: "C", Price: 30, Relay: 1},
	)
	assert.Equal(t, []int{1, 3}, c.Relays())
}

func TestNotification_Outcomes(t *testing.T) {
	assert.True(t, Notification{TransactionStatus: TxSettlement}.IsPaid())
	assert.True(t, Notification{TransactionStatus: TxCapture, FraudStatus: FraudAccept}.IsPaid())
	assert.False(t, Notification{TransactionStatus: TxCapture, FraudStatus: "challenge"}.IsPaid())
	assert.False(t, Notification{TransactionStatus: TxPending}.IsPaid())

	assert.True(t, Notification{TransactionStatus: TxDeny}.IsFailed())
	assert.True(t, Notification{TransactionStatus: TxCancel}.IsFailed())
	assert.True(t, Notification{TransactionStatus: TxExpire}.IsFailed())
	assert.False(t, Notification{TransactionStatus: TxSettlement}.IsFailed())

	assert.True(t, Notification{TransactionStatus: TxSettlement}.IsTerminal())
	assert.True(t, Notification{TransactionStatus: TxExpire}.IsTerminal())
	assert.True(t, Notification{TransactionStatus: TxCancel}.IsTerminal())
	assert.False(t, Notification{TransactionStatus: TxCapture}.IsTerminal())
	assert.False(t, Notification{TransactionStatus: TxPending}.IsTerminal())
}
