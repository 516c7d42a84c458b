package gateway

import (
	"context"
	"fmt"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"go.uber.org/zap"

	"github.com/davicafu/scandrink/internal/payment/domain"
)

// MidtransGateway implementa PaymentGateway contra la API Snap de Midtrans.
type MidtransGateway struct {
	client snap.Client
	log    *zap.Logger
}

// Verificación estática
var _ domain.PaymentGateway = (*MidtransGateway)(nil)

func NewMidtransGateway(serverKey string, production bool, log *zap.Logger) *MidtransGateway {
	env := midtrans.Sandbox
	if production {
		env = midtrans.Production
	}

	var client snap.Client
	client.New(serverKey, env)

	return &MidtransGateway{client: client, log: log}
}

// CreateToken crea la transacción Snap y devuelve el token de checkout.
func (g *MidtransGateway) CreateToken(ctx context.Context, orderID string, grossAmount int64, customer domain.CustomerDetails) (string, error) {
	req := &snap.Request{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:  orderID,
			GrossAmt: grossAmount,
		},
		CustomerDetail: &midtrans.CustomerDetails{
			FName: customer.FirstName,
			LName: customer.LastName,
			Email: customer.Email,
			Phone: customer.Phone,
		},
	}

	resp, err := g.client.CreateTransaction(req)
	if err != nil {
		g.log.Error("Fallo al crear transacción en Midtrans", zap.String("order_id", orderID), zap.Error(err))
		return "", fmt.Errorf("snap create transaction: %w", err)
	}

	g.log.Info("✅ Token Snap creado", zap.String("order_id", orderID))
	return resp.Token, nil
}
