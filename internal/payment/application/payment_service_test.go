package application

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	actuatorDomain "github.com/davicafu/scandrink/internal/actuator/domain"
	"github.com/davicafu/scandrink/internal/payment/domain"
	"github.com/davicafu/scandrink/tests/mocks"
)

const testServerKey = "SB-Mid-server-testkey"

type serviceFixture struct {
	repo       *mocks.InMemoryTransactionRepo
	orders     *mocks.InMemoryOrderStore
	gateway    *mocks.DummyGateway
	dispatcher *mocks.CapturingDispatcher
	service    *PaymentService
}

func newFixture(allowTest bool) *serviceFixture {
	f := &serviceFixture{
		repo:       mocks.NewInMemoryTransactionRepo(),
		orders:     mocks.NewInMemoryOrderStore(),
		gateway:    &mocks.DummyGateway{},
		dispatcher: &mocks.CapturingDispatcher{},
	}
	f.service = NewPaymentService(
		f.repo, f.orders, f.gateway, domain.DefaultCatalog(), f.dispatcher,
		testServerKey, allowTest, zap.NewNop(),
	)
	return f
}

func signNotification(n domain.Notification, serverKey string) domain.Notification {
	raw := n.OrderID + n.StatusCode + domain.NormalizeGrossAmount(n.GrossAmount) + serverKey
	sum := sha512.Sum512([]byte(raw))
	n.SignatureKey = hex.EncodeToString(sum[:])
	return n
}

// -------------------- CreateTransaction --------------------

func TestCreateTransaction_Success(t *testing.T) {
	f := newFixture(true)

	token, orderID, err := f.service.CreateTransaction(context.Background(), "Air Putih", 2, domain.CustomerDetails{
		FirstName: "Pepe", Email: "pepe@example.com",
	})
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Regexp(t, regexp.MustCompile(`^ORDER-\d+$`), orderID)

	// El pedido queda en el store para resolver la notificación.
	item, ok := f.orders.Get(context.Background(), orderID)
	assert.True(t, ok)
	assert.Equal(t, "Air Putih", item)

	// Transacción pendiente con el importe total (100 x 2).
	tx := f.repo.Transactions[orderID]
	assert.NotNil(t, tx)
	assert.Equal(t, int64(200), tx.Price)
	assert.Equal(t, domain.StatusPending, tx.Status)

	// ✅ Verificar que se creó un evento Outbox
	assert.Len(t, f.repo.Outbox, 1)
	assert.Equal(t, domain.PaymentCreated, f.repo.Outbox[0].EventType)
	assert.Equal(t, orderID, f.repo.Outbox[0].AggregateID)
}

func TestCreateTransaction_UnknownItem(t *testing.T) {
	f := newFixture(true)

	_, _, err := f.service.CreateTransaction(context.Background(), "Cerveza", 1, domain.CustomerDetails{})
	assert.ErrorIs(t, err, domain.ErrItemNotFound)
	assert.Empty(t, f.repo.Transactions)
}

func TestCreateTransaction_InvalidQuantity(t *testing.T) {
	f := newFixture(true)

	for _, qty := range []int{0, -1, 11} {
		_, _, err := f.service.CreateTransaction(context.Background(), "Teh", qty, domain.CustomerDetails{})
		assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
	}
}

func TestCreateTransaction_GatewayFailure(t *testing.T) {
	f := newFixture(true)
	f.gateway.Err = assert.AnError

	_, _, err := f.service.CreateTransaction(context.Background(), "Teh", 1, domain.CustomerDetails{})
	assert.ErrorIs(t, err, domain.ErrGatewayUnavailable)

	// Sin token no hay transacción registrada ni pedido en el store.
	assert.Empty(t, f.repo.Transactions)
	assert.Empty(t, f.orders.Orders)
}

func TestCreateTransaction_PersistenceFailureDoesNotBlock(t *testing.T) {
	f := newFixture(true)
	f.repo.FailAll = true

	token, orderID, err := f.service.CreateTransaction(context.Background(), "Teh", 1, domain.CustomerDetails{})
	assert.NoError(t, err) // best effort: el pago sigue adelante
	assert.NotEmpty(t, token)

	_, ok := f.orders.Get(context.Background(), orderID)
	assert.True(t, ok)
}

// -------------------- HandleNotification --------------------

func seedOrder(f *serviceFixture, orderID, item string, price int64) {
	_ = f.orders.Put(context.Background(), orderID, item)
	f.repo.Transactions[orderID] = &domain.Transaction{
		OrderID: orderID, ItemName: item, Price: price, Status: domain.StatusPending,
	}
}

func TestHandleNotification_SettlementEnqueuesOn(t *testing.T) {
	f := newFixture(true)
	seedOrder(f, "ORDER-1", "Teh", 150)

	n := signNotification(domain.Notification{
		OrderID:           "ORDER-1",
		TransactionStatus: domain.TxSettlement,
		FraudStatus:       domain.FraudAccept,
		StatusCode:        "200",
		GrossAmount:       "150.00",
	}, testServerKey)

	err := f.service.HandleNotification(context.Background(), n)
	assert.NoError(t, err)

	// Exactamente un comando "on" hacia el relé del Teh.
	cmds := f.dispatcher.Enqueued()
	assert.Len(t, cmds, 1)
	assert.Equal(t, actuatorDomain.Command{OrderID: "ORDER-1", Status: actuatorDomain.RelayOn, Relay: 2}, cmds[0])

	// Limpieza terminal del pedido.
	_, ok := f.orders.Get(context.Background(), "ORDER-1")
	assert.False(t, ok)

	// Estado persistido y evento outbox.
	assert.Equal(t, domain.StatusSuccess, f.repo.Transactions["ORDER-1"].Status)
	assert.Len(t, f.repo.Outbox, 1)
	assert.Equal(t, domain.PaymentSettled, f.repo.Outbox[0].EventType)
}

func TestHandleNotification_ExpireEnqueuesBothOff(t *testing.T) {
	f := newFixture(true)
	seedOrder(f, "ORDER-2", "Air Putih", 100)

	n := signNotification(domain.Notification{
		OrderID:           "ORDER-2",
		TransactionStatus: domain.TxExpire,
		StatusCode:        "407",
		GrossAmount:       "100.00",
	}, testServerKey)

	err := f.service.HandleNotification(context.Background(), n)
	assert.NoError(t, err)

	// Apagado incondicional de ambos relés, sin importar el producto.
	cmds := f.dispatcher.Enqueued()
	assert.Len(t, cmds, 2)
	assert.Equal(t, actuatorDomain.Command{OrderID: "ORDER-2", Status: actuatorDomain.RelayOff, Relay: 1}, cmds[0])
	assert.Equal(t, actuatorDomain.Command{OrderID: "ORDER-2", Status: actuatorDomain.RelayOff, Relay: 2}, cmds[1])

	_, ok := f.orders.Get(context.Background(), "ORDER-2")
	assert.False(t, ok)
	assert.Equal(t, domain.StatusFailed, f.repo.Transactions["ORDER-2"].Status)
}

func TestHandleNotification_TamperedSignature(t *testing.T) {
	f := newFixture(true)
	seedOrder(f, "ORDER-3", "Teh", 150)

	n := signNotification(domain.Notification{
		OrderID:           "ORDER-3",
		TransactionStatus: domain.TxSettlement,
		StatusCode:        "200",
		GrossAmount:       "150.00",
	}, testServerKey)
	n.SignatureKey = "0000" + n.SignatureKey[4:] // manipulada

	err := f.service.HandleNotification(context.Background(), n)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)

	// Cola intacta, pedido intacto, estado intacto.
	assert.Empty(t, f.dispatcher.Enqueued())
	_, ok := f.orders.Get(context.Background(), "ORDER-3")
	assert.True(t, ok)
	assert.Equal(t, domain.StatusPending, f.repo.Transactions["ORDER-3"].Status)
}

func TestHandleNotification_UnknownOrderTestMode(t *testing.T) {
	f := newFixture(true)

	// Pedido desconocido con firma basura: se acepta sin verificar.
	n := domain.Notification{
		OrderID:           "ORDER-NUNCA-VISTO",
		TransactionStatus: domain.TxSettlement,
		StatusCode:        "200",
		GrossAmount:       "100.00",
		SignatureKey:      "garbage",
	}

	err := f.service.HandleNotification(context.Background(), n)
	assert.NoError(t, err)
	assert.Empty(t, f.dispatcher.Enqueued())
	assert.Empty(t, f.repo.Outbox)
}

func TestHandleNotification_UnknownOrderStrictMode(t *testing.T) {
	f := newFixture(false)

	n := domain.Notification{
		OrderID:           "ORDER-NUNCA-VISTO",
		TransactionStatus: domain.TxSettlement,
		StatusCode:        "200",
		GrossAmount:       "100.00",
		SignatureKey:      "garbage",
	}

	// Con el modo test desactivado la firma se verifica y falla.
	err := f.service.HandleNotification(context.Background(), n)
	assert.ErrorIs(t, err, domain.ErrInvalidSignature)
	assert.Empty(t, f.dispatcher.Enqueued())
}

func TestHandleNotification_PendingNoActuatorAction(t *testing.T) {
	f := newFixture(true)
	seedOrder(f, "ORDER-4", "Teh", 150)

	n := signNotification(domain.Notification{
		OrderID:           "ORDER-4",
		TransactionStatus: domain.TxPending,
		StatusCode:        "201",
		GrossAmount:       "150.00",
	}, testServerKey)

	err := f.service.HandleNotification(context.Background(), n)
	assert.NoError(t, err)

	assert.Empty(t, f.dispatcher.Enqueued())
	// pending no es terminal: el pedido sigue en el store.
	_, ok := f.orders.Get(context.Background(), "ORDER-4")
	assert.True(t, ok)
	assert.Equal(t, domain.StatusPending, f.repo.Transactions["ORDER-4"].Status)
}

func TestHandleNotification_PersistenceFailureSwallowed(t *testing.T) {
	f := newFixture(true)
	seedOrder(f, "ORDER-5", "Teh", 150)
	f.repo.FailAll = true

	n := signNotification(domain.Notification{
		OrderID:           "ORDER-5",
		TransactionStatus: domain.TxSettlement,
		FraudStatus:       domain.FraudAccept,
		StatusCode:        "200",
		GrossAmount:       "150.00",
	}, testServerKey)

	// La persistencia caída nunca bloquea el camino del actuador.
	err := f.service.HandleNotification(context.Background(), n)
	assert.NoError(t, err)
	assert.Len(t, f.dispatcher.Enqueued(), 1)
}

func TestHandleNotification_CaptureChallengeNoAction(t *testing.T) {
	f := newFixture(true)
	seedOrder(f, "ORDER-6", "Teh", 150)

	n := signNotification(domain.Notification{
		OrderID:           "ORDER-6",
		TransactionStatus: domain.TxCapture,
		FraudStatus:       "challenge",
		StatusCode:        "200",
		GrossAmount:       "150.00",
	}, testServerKey)

	err := f.service.HandleNotification(context.Background(), n)
	assert.NoError(t, err)
	// capture+challenge no enciende ni apaga nada.
	assert.Empty(t, f.dispatcher.Enqueued())
}
