package events

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/davicafu/scandrink/internal/payment/domain"
	sharedEvents "github.com/davicafu/scandrink/internal/shared/domain/events"
	sharedUtils "github.com/davicafu/scandrink/internal/shared/infra/utils"
)

// SalesConsumer alimenta el sumidero analítico con los eventos de pago
// que llegan por el bus. Solo le interesan los desenlaces terminales.
type SalesConsumer struct {
	analytics domain.SalesAnalytics
	log       *zap.Logger
}

func NewSalesConsumer(analytics domain.SalesAnalytics, logger *zap.Logger) *SalesConsumer {
	return &SalesConsumer{
		analytics: analytics,
		log:       logger,
	}
}

func (c *SalesConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case domain.PaymentSettled, domain.PaymentFailed:
		sharedUtils.UnmarshalAndHandle[domain.Transaction](c.log, base.Data, func(tx domain.Transaction) {
			if err := c.analytics.LogSale(ctx, &tx); err != nil {
				c.log.Warn("⚠️ No se pudo registrar la venta en analítica",
					zap.String("order_id", tx.OrderID),
					zap.Error(err),
				)
				return
			}
			c.log.Debug("Venta registrada en analítica", zap.String("order_id", tx.OrderID))
		})
	default:
		// payment.created y demás no aportan al log de ventas.
	}
}

// BackgroundConsumerChan consume eventos del bus en memoria.
func BackgroundConsumerChan(ctx context.Context, ch <-chan interface{}, consumer *SalesConsumer) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case raw, ok := <-ch:
				if !ok {
					return
				}
				payload, ok := raw.([]byte)
				if !ok {
					continue
				}
				consumer.HandleMessage(ctx, "", payload)
			}
		}
	}()
}
