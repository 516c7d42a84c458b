package domain

import (
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
)

const testServerKey = "SB-Mid-server-testkey"

func signedNotification(orderID, statusCode, grossAmount, serverKey string) Notification {
	raw := orderID + statusCode + NormalizeGrossAmount(grossAmount) + serverKey
	sum := sha512.Sum512([]byte(raw))
	return Notification{
		OrderID:      orderID,
		StatusCode:   statusCode,
		GrossAmount:  grossAmount,
		SignatureKey: hex.EncodeToString(sum[:]),
	}
}

func TestVerifySignature_Valid(t *testing.T) {
	n := signedNotification("ORDER-1724231234567", "200", "200.00", testServerKey)
	assert.True(t, VerifySignature(n, testServerKey))
}

func TestVerifySignature_Deterministic(t *testing.T) {
	n := signedNotification("ORDER-1", "200", "150.00", testServerKey)
	first := VerifySignature(n, testServerKey)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, VerifySignature(n, testServerKey))
	}
}

func TestVerifySignature_AnyFieldFlipInvalidates(t *testing.T) {
	valid := signedNotification("ORDER-1", "200", "200.00", testServerKey)
	assert.True(t, VerifySignature(valid, testServerKey))

	tests := []struct {
		name   string
		mutate func(n Notification) (Notification, string)
	}{
		{"order_id", func(n Notification) (Notification, string) {
			n.OrderID = "ORDER-2"
			return n, testServerKey
		}},
		{"status_code", func(n Notification) (Notification, string) {
			n.StatusCode = "201"
			return n, testServerKey
		}},
		{"gross_amount", func(n Notification) (Notification, string) {
			n.GrossAmount = "300.00"
			return n, testServerKey
		}},
		{"server_key", func(n Notification) (Notification, string) {
			return n, "otro-server-key"
		}},
		{"signature_key", func(n Notification) (Notification, string) {
			n.SignatureKey = "deadbeef"
			return n, testServerKey
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			n, key := tc.mutate(valid)
			assert.False(t, VerifySignature(n, key))
		})
	}
}

func TestVerifySignature_MissingFieldsFailClosed(t *testing.T) {
	valid := signedNotification("ORDER-1", "200", "200.00", testServerKey)

	empty := valid
	empty.OrderID = ""
	assert.False(t, VerifySignature(empty, testServerKey))

	empty = valid
	empty.StatusCode = ""
	assert.False(t, VerifySignature(empty, testServerKey))

	empty = valid
	empty.GrossAmount = ""
	assert.False(t, VerifySignature(empty, testServerKey))

	empty = valid
	empty.SignatureKey = ""
	assert.False(t, VerifySignature(empty, testServerKey))

	assert.False(t, VerifySignature(valid, ""))
}

func TestVerifySignature_GrossAmountNormalization(t *testing.T) {
	// Firmado con "200.00" pero recibido como "200": debe cuadrar.
	n := signedNotification("ORDER-1", "200", "200.00", testServerKey)
	n.GrossAmount = "200"
	assert.True(t, VerifySignature(n, testServerKey))
}

func TestNormalizeGrossAmount(t *testing.T) {
	assert.Equal(t, "200.00", NormalizeGrossAmount("200"))
	assert.Equal(t, "200.00", NormalizeGrossAmount("200.00"))
	assert.Equal(t, "200.50", NormalizeGrossAmount("200.5"))
	assert.Equal(t, "0.00", NormalizeGrossAmount("0"))
	assert.Equal(t, "no-numerico", NormalizeGrossAmount("no-numerico"))
}
