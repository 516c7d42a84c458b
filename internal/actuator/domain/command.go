package domain

// Topics MQTT del canal de relés.
const (
	ControlTopic = "/scandrink/relay/control"
	StatusTopic  = "/scandrink/relay/status"
)

// QoSAtLeastOnce es el nivel de entrega usado para comandos de relé.
const QoSAtLeastOnce byte = 1

// RelayStatus es el estado que se ordena a un relé.
type RelayStatus string

const (
	RelayOn  RelayStatus = "on"
	RelayOff RelayStatus = "off"
)

// Command es la orden que se publica hacia un relé físico.
// Inmutable una vez creado; un fallo de publicación lo re-encola tal cual.
type Command struct {
	OrderID string      `json:"order_id"`
	Status  RelayStatus `json:"status"`
	Relay   int         `json:"relay"`
}
