package application

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/davicafu/scandrink/internal/actuator/domain"
	"go.uber.org/zap"
)

// Dispatcher mantiene la cola FIFO en memoria de comandos de relé y la
// drena contra el broker con una única goroutine consumidora: nunca hay
// más de una publicación en vuelo.
//
// Política de reintentos: ilimitada. Un comando nunca se descarta mientras
// el proceso viva. Si una publicación falla, el comando vuelve a la COLA
// (no a la cabeza), así que el orden FIFO es aproximado tras un fallo.
// La cola no se persiste: se pierde si el proceso muere.
type Dispatcher struct {
	broker domain.BrokerConnection

	mu    sync.Mutex
	queue []domain.Command
	wake  chan struct{} // buffer 1: señal de "hay trabajo"

	retryDelay time.Duration // espera cuando el broker no está conectado
	log        *zap.Logger
}

// Verificación estática
var _ domain.CommandDispatcher = (*Dispatcher)(nil)

func NewDispatcher(broker domain.BrokerConnection, retryDelay time.Duration, log *zap.Logger) *Dispatcher {
	if retryDelay <= 0 {
		retryDelay = 1 * time.Second
	}
	return &Dispatcher{
		broker:     broker,
		queue:      make([]domain.Command, 0),
		wake:       make(chan struct{}, 1),
		retryDelay: retryDelay,
		log:        log,
	}
}

// Enqueue añade un comando a la cola y despierta al consumidor.
// Nunca bloquea y nunca falla; la cola solo está limitada por memoria.
func (d *Dispatcher) Enqueue(cmd domain.Command) {
	d.mu.Lock()
	d.queue = append(d.queue, cmd)
	n := len(d.queue)
	d.mu.Unlock()

	d.log.Debug("Comando encolado",
		zap.String("order_id", cmd.OrderID),
		zap.String("status", string(cmd.Status)),
		zap.Int("relay", cmd.Relay),
		zap.Int("queue_len", n),
	)

	select {
	case d.wake <- struct{}{}:
	default: // el consumidor ya tiene una señal pendiente
	}
}

// Len devuelve el número de comandos pendientes.
func (d *Dispatcher) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queue)
}

// Run es el bucle consumidor. Debe ejecutarse en una única goroutine;
// bloquea hasta que el contexto se cancele.
func (d *Dispatcher) Run(ctx context.Context) {
	d.log.Info("🚀 Dispatcher de comandos iniciado", zap.Duration("retry_delay", d.retryDelay))

	for {
		if !d.waitForWork(ctx) {
			d.log.Info("🛑 Dispatcher detenido.", zap.Int("pending", d.Len()))
			return
		}

		// Sin conexión no se desencola: el comando en cabeza espera intacto.
		if !d.broker.IsConnected() {
			select {
			case <-ctx.Done():
				d.log.Info("🛑 Dispatcher detenido.", zap.Int("pending", d.Len()))
				return
			case <-time.After(d.retryDelay):
			}
			continue
		}

		cmd, ok := d.pop()
		if !ok {
			continue
		}

		d.deliver(cmd)
	}
}

// waitForWork bloquea hasta que haya al menos un comando en cola.
// Devuelve false si el contexto se canceló.
func (d *Dispatcher) waitForWork(ctx context.Context) bool {
	for {
		d.mu.Lock()
		n := len(d.queue)
		d.mu.Unlock()
		if n > 0 {
			return true
		}

		select {
		case <-ctx.Done():
			return false
		case <-d.wake:
		}
	}
}

func (d *Dispatcher) pop() (domain.Command, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return domain.Command{}, false
	}
	cmd := d.queue[0]
	d.queue = d.queue[1:]
	return cmd, true
}

func (d *Dispatcher) deliver(cmd domain.Command) {
	payload, err := json.Marshal(cmd)
	if err != nil {
		// No debería ocurrir con un Command; lo registramos y descartamos
		// porque reintentar una serialización rota sería un bucle infinito.
		d.log.Error("No se pudo serializar comando", zap.String("order_id", cmd.OrderID), zap.Error(err))
		return
	}

	if err := d.broker.Publish(domain.ControlTopic, payload, domain.QoSAtLeastOnce); err != nil {
		d.log.Warn("⚠️ Fallo al publicar comando, se re-encola",
			zap.String("order_id", cmd.OrderID),
			zap.Int("relay", cmd.Relay),
			zap.Error(err),
		)
		d.mu.Lock()
		d.queue = append(d.queue, cmd) // a la cola, no a la cabeza
		d.mu.Unlock()
		return
	}

	d.log.Info("✅ Comando publicado",
		zap.String("order_id", cmd.OrderID),
		zap.String("status", string(cmd.Status)),
		zap.Int("relay", cmd.Relay),
	)
}
