package domain

import "errors"

// ---------- Errores de dominio ----------
var (
	ErrNotConnected   = errors.New("broker not connected")
	ErrPublishTimeout = errors.New("publish ack timeout")
)

// ConnState es el estado de la conexión con el broker MQTT.
// Solo los callbacks del cliente lo mutan; el dispatcher lo lee.
type ConnState int32

const (
	Disconnected ConnState = iota
	Connecting
	Connected
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// ---------- Interfaces (Ports) ----------

// BrokerConnection abstrae la conexión de publicación hacia el broker.
type BrokerConnection interface {
	// IsConnected indica si hay conexión activa con el broker.
	IsConnected() bool

	// State devuelve el estado actual de la conexión.
	State() ConnState

	// Publish envía el payload al topic con el QoS indicado.
	// Devuelve ErrNotConnected si no hay conexión, o el error del
	// transporte si el broker rechaza la publicación.
	Publish(topic string, payload []byte, qos byte) error
}

// CommandDispatcher es el puerto que los productores de comandos usan
// para entregar órdenes de relé. Enqueue nunca bloquea ni falla.
type CommandDispatcher interface {
	Enqueue(cmd Command)
}
