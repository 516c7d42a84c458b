package domain

import (
	"reflect"

	sharedEvents "github.com/davicafu/scandrink/internal/shared/domain/events"
)

// Las constantes de los tipos de evento se definen aquí, como valores string.
const (
	PaymentCreated = "payment.created"
	PaymentSettled = "payment.settled"
	PaymentFailed  = "payment.failed"
)

const PaymentTopic = "payments"

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		PaymentCreated: {
			Type:  reflect.TypeOf(Transaction{}),
			Topic: PaymentTopic,
		},
		PaymentSettled: {
			Type:  reflect.TypeOf(Transaction{}),
			Topic: PaymentTopic,
		},
		PaymentFailed: {
			Type:  reflect.TypeOf(Transaction{}),
			Topic: PaymentTopic,
		},
	}
}
