package mocks

import (
	"sync"
	"sync/atomic"

	actuatorDomain "github.com/davicafu/scandrink/internal/actuator/domain"
)

// PublishedMessage guarda una publicación observada por el broker falso.
type PublishedMessage struct {
	Topic   string
	Payload []byte
	QoS     byte
}

// FakeBroker simula la conexión MQTT con estado controlable e inyección
// de fallos. Además vigila que nunca haya dos publicaciones en vuelo.
type FakeBroker struct {
	mu        sync.Mutex
	connected bool
	published []PublishedMessage

	// FailNext hace fallar las próximas N publicaciones.
	FailNext int

	inFlight    int32
	maxInFlight int32
}

// Verificación estática
var _ actuatorDomain.BrokerConnection = (*FakeBroker)(nil)

func NewFakeBroker(connected bool) *FakeBroker {
	return &FakeBroker{connected: connected}
}

func (b *FakeBroker) SetConnected(connected bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connected = connected
}

func (b *FakeBroker) IsConnected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connected
}

func (b *FakeBroker) State() actuatorDomain.ConnState {
	if b.IsConnected() {
		return actuatorDomain.Connected
	}
	return actuatorDomain.Disconnected
}

func (b *FakeBroker) Publish(topic string, payload []byte, qos byte) error {
	// Contabiliza publicaciones concurrentes antes de tocar el mutex.
	cur := atomic.AddInt32(&b.inFlight, 1)
	defer atomic.AddInt32(&b.inFlight, -1)
	for {
		max := atomic.LoadInt32(&b.maxInFlight)
		if cur <= max || atomic.CompareAndSwapInt32(&b.maxInFlight, max, cur) {
			break
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.connected {
		return actuatorDomain.ErrNotConnected
	}
	if b.FailNext > 0 {
		b.FailNext--
		return actuatorDomain.ErrPublishTimeout
	}

	b.published = append(b.published, PublishedMessage{Topic: topic, Payload: payload, QoS: qos})
	return nil
}

// Published devuelve una copia de las publicaciones aceptadas.
func (b *FakeBroker) Published() []PublishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]PublishedMessage, len(b.published))
	copy(out, b.published)
	return out
}

// MaxInFlight devuelve el máximo de publicaciones simultáneas observado.
func (b *FakeBroker) MaxInFlight() int {
	return int(atomic.LoadInt32(&b.maxInFlight))
}
