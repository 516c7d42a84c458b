package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/scandrink/internal/payment/application"
	"github.com/davicafu/scandrink/internal/payment/domain"
	"github.com/davicafu/scandrink/pkg/utils"
)

// PaymentHandler encapsula los endpoints HTTP del bridge de pagos.
type PaymentHandler struct {
	service    *application.PaymentService
	analytics  domain.SalesAnalytics // nil si la analítica no está configurada
	adminToken string
}

// NewPaymentHandler crea un nuevo PaymentHandler
func NewPaymentHandler(service *application.PaymentService, analytics domain.SalesAnalytics, adminToken string) *PaymentHandler {
	return &PaymentHandler{
		service:    service,
		analytics:  analytics,
		adminToken: adminToken,
	}
}

// ---------------- Handlers ----------------

// CreateTransaction endpoint POST /create-transaction
func (h *PaymentHandler) CreateTransaction(c *gin.Context) {
	var req struct {
		ItemName        string                 `json:"item_name" binding:"required"`
		Quantity        int                    `json:"quantity" binding:"required"`
		CustomerDetails domain.CustomerDetails `json:"customer_details"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	token, orderID, err := h.service.CreateTransaction(c.Request.Context(), req.ItemName, req.Quantity, req.CustomerDetails)
	if err != nil {
		if errors.Is(err, domain.ErrItemNotFound) || errors.Is(err, domain.ErrInvalidQuantity) {
			utils.SendBadRequest(c, err.Error())
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"order_id": orderID,
	})
}

// Notification endpoint POST /midtrans-notification
func (h *PaymentHandler) Notification(c *gin.Context) {
	var n domain.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		utils.SendBadRequest(c, err.Error())
		return
	}

	if err := h.service.HandleNotification(c.Request.Context(), n); err != nil {
		if errors.Is(err, domain.ErrInvalidSignature) {
			utils.SendBadRequest(c, err.Error())
			return
		}
		utils.SendInternalServerError(c, err.Error())
		return
	}

	// La pasarela solo necesita un 200; el desenlace hacia el actuador
	// nunca se refleja en esta respuesta.
	c.String(http.StatusOK, "OK")
}

// ListTransactions endpoint GET /transactions
func (h *PaymentHandler) ListTransactions(c *gin.Context) {
	if c.Query("admin_token") != h.adminToken {
		utils.SendUnauthorized(c, "invalid admin token")
		return
	}

	txs, err := h.service.ListTransactions(c.Request.Context())
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}
	if txs == nil {
		txs = []*domain.Transaction{}
	}

	c.JSON(http.StatusOK, txs)
}

// SalesTrend endpoint GET /analytics/sales
func (h *PaymentHandler) SalesTrend(c *gin.Context) {
	if c.Query("admin_token") != h.adminToken {
		utils.SendUnauthorized(c, "invalid admin token")
		return
	}

	if h.analytics == nil {
		utils.SendError(c, http.StatusServiceUnavailable, "analytics not configured")
		return
	}

	end := time.Now().UTC()
	start := end.AddDate(0, 0, -30)
	trend, err := h.analytics.GetDailyTrend(c.Request.Context(), start, end)
	if err != nil {
		utils.SendInternalServerError(c, err.Error())
		return
	}

	utils.SendSuccess(c, http.StatusOK, trend)
}
