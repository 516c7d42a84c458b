package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// Base de todos los eventos de integración
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data"` // contenido específico del evento

	// Key se usa como clave de partición al publicar; no viaja en el payload.
	Key string `json:"-"`
}

// PartitionKey permite que el publisher enrute por agregado.
func (e IntegrationEvent) PartitionKey() string {
	return e.Key
}

type EventMetadata struct {
	Type  reflect.Type
	Topic string
}
