package mqtt

import (
	"fmt"
	"sync/atomic"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/davicafu/scandrink/internal/actuator/domain"
)

// Options agrupa la configuración de conexión al broker.
type Options struct {
	BrokerURL         string
	ClientID          string
	Username          string
	Password          string
	ReconnectInterval time.Duration // 5s si no se indica
	PublishTimeout    time.Duration // espera máxima del ack QoS 1
}

// Client implementa domain.BrokerConnection sobre paho, con seguimiento
// explícito del estado de conexión y reconexión automática.
//
// Los handlers OnConnect/OnConnectionLost se registran una sola vez en las
// opciones, así ciclos repetidos de conexión no duplican suscripciones.
type Client struct {
	cli     pahomqtt.Client
	state   atomic.Int32 // domain.ConnState
	timeout time.Duration
	log     *zap.Logger
}

// Verificación estática
var _ domain.BrokerConnection = (*Client)(nil)

func NewClient(opts Options, log *zap.Logger) *Client {
	if opts.ReconnectInterval <= 0 {
		opts.ReconnectInterval = 5 * time.Second
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 10 * time.Second
	}

	c := &Client{
		timeout: opts.PublishTimeout,
		log:     log,
	}
	c.state.Store(int32(domain.Disconnected))

	pahoOpts := pahomqtt.NewClientOptions().
		AddBroker(opts.BrokerURL).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(opts.ReconnectInterval).
		SetMaxReconnectInterval(opts.ReconnectInterval)

	if opts.Username != "" {
		pahoOpts.SetUsername(opts.Username)
		pahoOpts.SetPassword(opts.Password)
	}

	pahoOpts.SetOnConnectHandler(func(cli pahomqtt.Client) {
		c.state.Store(int32(domain.Connected))
		c.log.Info("✅ Conectado al broker MQTT", zap.String("broker", opts.BrokerURL))

		// Re-suscripción en cada (re)conexión: los dispositivos reportan su
		// estado por aquí; solo se registra, no se actúa sobre ello.
		token := cli.Subscribe(domain.StatusTopic, domain.QoSAtLeastOnce, c.onStatusMessage)
		if token.WaitTimeout(c.timeout) && token.Error() != nil {
			c.log.Warn("⚠️ No se pudo suscribir al topic de estado", zap.Error(token.Error()))
		}
	})

	pahoOpts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		c.state.Store(int32(domain.Connecting))
		c.log.Warn("⚠️ Conexión MQTT perdida, reconectando...", zap.Error(err))
	})

	pahoOpts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		c.state.Store(int32(domain.Connecting))
	})

	c.cli = pahomqtt.NewClient(pahoOpts)
	return c
}

// Connect arranca la conexión en segundo plano. No bloquea: el estado pasa
// a connecting y paho sigue reintentando hasta conseguir conexión.
func (c *Client) Connect() {
	c.state.Store(int32(domain.Connecting))
	c.cli.Connect() // el token se resuelve vía OnConnect
}

// Close cierra la conexión de forma ordenada.
func (c *Client) Close() {
	c.cli.Disconnect(250)
	c.state.Store(int32(domain.Disconnected))
}

func (c *Client) IsConnected() bool {
	return c.State() == domain.Connected
}

func (c *Client) State() domain.ConnState {
	return domain.ConnState(c.state.Load())
}

// Publish envía el payload y espera el ack (QoS 1) con timeout acotado.
func (c *Client) Publish(topic string, payload []byte, qos byte) error {
	if !c.IsConnected() {
		return domain.ErrNotConnected
	}

	token := c.cli.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(c.timeout) {
		return domain.ErrPublishTimeout
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	return nil
}

func (c *Client) onStatusMessage(_ pahomqtt.Client, msg pahomqtt.Message) {
	c.log.Info("📟 Estado reportado por dispositivo",
		zap.String("topic", msg.Topic()),
		zap.ByteString("payload", msg.Payload()),
	)
}
