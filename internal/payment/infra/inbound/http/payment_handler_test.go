package http

import (
	"bytes"
	"context"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/davicafu/scandrink/internal/payment/application"
	"github.com/davicafu/scandrink/internal/payment/domain"
	"github.com/davicafu/scandrink/tests/mocks"
)

const (
	testServerKey = "SB-Mid-server-testkey"
	testAdmin     = "super-secreto"
)

func setupRouter(t *testing.T) (*gin.Engine, *mocks.InMemoryOrderStore, *mocks.CapturingDispatcher) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := mocks.NewInMemoryTransactionRepo()
	orders := mocks.NewInMemoryOrderStore()
	dispatcher := &mocks.CapturingDispatcher{}
	service := application.NewPaymentService(
		repo, orders, &mocks.DummyGateway{}, domain.DefaultCatalog(), dispatcher,
		testServerKey, true, zap.NewNop(),
	)

	handler := NewPaymentHandler(service, nil, testAdmin)
	router := gin.New()
	RegisterPaymentRoutes(router, handler)
	return router, orders, dispatcher
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTransactionEndpoint_Success(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := doJSON(router, http.MethodPost, "/create-transaction", gin.H{
		"item_name": "Air Putih",
		"quantity":  2,
		"customer_details": gin.H{
			"first_name": "Pepe",
			"email":      "pepe@example.com",
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Token   string `json:"token"`
		OrderID string `json:"order_id"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)
	assert.Regexp(t, `^ORDER-\d+$`, resp.OrderID)
}

func TestCreateTransactionEndpoint_BadRequests(t *testing.T) {
	router, _, _ := setupRouter(t)

	// Item fuera de catálogo
	w := doJSON(router, http.MethodPost, "/create-transaction", gin.H{
		"item_name": "Cerveza", "quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Cantidad fuera de rango
	w = doJSON(router, http.MethodPost, "/create-transaction", gin.H{
		"item_name": "Teh", "quantity": 11,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Campos obligatorios ausentes
	w = doJSON(router, http.MethodPost, "/create-transaction", gin.H{
		"quantity": 1,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNotificationEndpoint_Settlement(t *testing.T) {
	router, orders, dispatcher := setupRouter(t)
	_ = orders.Put(context.Background(), "ORDER-10", "Teh")

	n := domain.Notification{
		OrderID:           "ORDER-10",
		TransactionStatus: domain.TxSettlement,
		FraudStatus:       domain.FraudAccept,
		StatusCode:        "200",
		GrossAmount:       "150.00",
	}
	raw := n.OrderID + n.StatusCode + domain.NormalizeGrossAmount(n.GrossAmount) + testServerKey
	sum := sha512.Sum512([]byte(raw))
	n.SignatureKey = hex.EncodeToString(sum[:])

	w := doJSON(router, http.MethodPost, "/midtrans-notification", n)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Len(t, dispatcher.Enqueued(), 1)
}

func TestNotificationEndpoint_TamperedSignature(t *testing.T) {
	router, orders, dispatcher := setupRouter(t)
	_ = orders.Put(context.Background(), "ORDER-11", "Teh")

	n := domain.Notification{
		OrderID:           "ORDER-11",
		TransactionStatus: domain.TxSettlement,
		StatusCode:        "200",
		GrossAmount:       "150.00",
		SignatureKey:      "manipulada",
	}

	w := doJSON(router, http.MethodPost, "/midtrans-notification", n)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, dispatcher.Enqueued())
}

func TestTransactionsEndpoint_AdminToken(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/transactions?admin_token=incorrecto", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(router, http.MethodGet, "/transactions?admin_token="+testAdmin, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var txs []*domain.Transaction
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &txs))
	assert.Empty(t, txs) // array vacío, nunca null
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestSalesTrendEndpoint_NotConfigured(t *testing.T) {
	router, _, _ := setupRouter(t)

	w := doJSON(router, http.MethodGet, "/analytics/sales?admin_token="+testAdmin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
