package domain

// Notification es el cuerpo del webhook que envía Midtrans.
// Solo se mapean los campos que el bridge necesita; el resto del JSON
// se ignora al decodificar.
type Notification struct {
	OrderID           string `json:"order_id"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
}

// Estados terminales de Midtrans.
const (
	TxCapture    = "capture"
	TxSettlement = "settlement"
	TxDeny       = "deny"
	TxCancel     = "cancel"
	TxExpire     = "expire"
	TxPending    = "pending"

	FraudAccept = "accept"
)

// IsPaid indica que el pago se capturó y pasó el control de fraude.
func (n Notification) IsPaid() bool {
	if n.TransactionStatus != TxCapture && n.TransactionStatus != TxSettlement {
		return false
	}
	return n.FraudStatus == "" || n.FraudStatus == FraudAccept
}

// IsFailed indica un desenlace fallido que debe apagar los relés.
func (n Notification) IsFailed() bool {
	switch n.TransactionStatus {
	case TxDeny, TxCancel, TxExpire:
		return true
	}
	return false
}

// IsTerminal indica que el pedido ya no recibirá más notificaciones y su
// entrada orden→producto puede limpiarse.
func (n Notification) IsTerminal() bool {
	switch n.TransactionStatus {
	case TxSettlement, TxExpire, TxCancel:
		return true
	}
	return false
}
