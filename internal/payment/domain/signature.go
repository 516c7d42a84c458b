package domain

import (
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"strconv"
)

// VerifySignature valida la autenticidad de una notificación de Midtrans:
// sha512(order_id + status_code + gross_amount + serverKey) comparado en
// tiempo constante contra signature_key. Cualquier campo requerido vacío
// hace fallar la verificación (fail closed). Sin efectos secundarios.
func VerifySignature(n Notification, serverKey string) bool {
	if n.OrderID == "" || n.StatusCode == "" || n.GrossAmount == "" || n.SignatureKey == "" || serverKey == "" {
		return false
	}

	raw := n.OrderID + n.StatusCode + NormalizeGrossAmount(n.GrossAmount) + serverKey
	sum := sha512.Sum512([]byte(raw))
	expected := hex.EncodeToString(sum[:])

	return subtle.ConstantTimeCompare([]byte(expected), []byte(n.SignatureKey)) == 1
}

// NormalizeGrossAmount formatea el importe con exactamente dos decimales,
// como lo concatena Midtrans al firmar ("200" -> "200.00"). Si el valor no
// es numérico se devuelve tal cual; la verificación fallará con él.
func NormalizeGrossAmount(gross string) string {
	v, err := strconv.ParseFloat(gross, 64)
	if err != nil {
		return gross
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}
