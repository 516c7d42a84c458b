package http

import "github.com/gin-gonic/gin"

func RegisterPaymentRoutes(r *gin.Engine, handler *PaymentHandler) {
	r.POST("/create-transaction", handler.CreateTransaction)
	r.POST("/midtrans-notification", handler.Notification)
	r.GET("/transactions", handler.ListTransactions)
	r.GET("/analytics/sales", handler.SalesTrend)
}
