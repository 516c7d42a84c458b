package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	HTTPPort      string
	AllowedOrigin string
	AdminToken    string

	// Midtrans
	MidtransServerKey  string
	MidtransProduction bool
	// AllowTestNotification mantiene el comportamiento original: una
	// notificación de un pedido desconocido se acepta sin verificar la
	// firma (ping de modo test). Desactivar para verificación estricta.
	AllowTestNotification bool

	// MQTT
	MQTTBrokerURL     string
	MQTTClientID      string
	MQTTUsername      string
	MQTTPassword      string
	ReconnectInterval time.Duration
	DispatchRetry     time.Duration

	// Persistencia
	DBDriver    string // "sqlite" | "postgres" | "mongo"
	SQLitePath  string
	PostgresDSN string
	MongoURI    string
	MongoDB     string

	// Cache de pedidos
	RedisAddr string
	OrderTTL  time.Duration

	// Eventos
	UseKafka          bool
	KafkaBrokers      []string
	KafkaTopicPayment string
	OutboxPeriod      time.Duration
	OutboxLimit       int

	// Analítica (opcional)
	ClickHouseAddr string
	ClickHouseDB   string
}

func LoadConfig() *Config {
	getEnv := func(key, fallback string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return fallback
	}

	getBool := func(key string, fallback bool) bool {
		if v := os.Getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err == nil {
				return b
			}
		}
		return fallback
	}

	getInt := func(key string, fallback int) int {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err == nil {
				return n
			}
		}
		return fallback
	}

	getDuration := func(key string, fallback time.Duration) time.Duration {
		if v := os.Getenv(key); v != "" {
			d, err := time.ParseDuration(v)
			if err == nil {
				return d
			}
		}
		return fallback
	}

	kafkaBrokers := strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ",")

	return &Config{
		HTTPPort:      getEnv("HTTP_PORT", "8080"),
		AllowedOrigin: getEnv("ALLOWED_ORIGIN", "*"),
		AdminToken:    getEnv("ADMIN_TOKEN", ""),

		MidtransServerKey:     getEnv("MIDTRANS_SERVER_KEY", ""),
		MidtransProduction:    getBool("MIDTRANS_PRODUCTION", false),
		AllowTestNotification: getBool("ALLOW_TEST_NOTIFICATION", true),

		MQTTBrokerURL:     getEnv("MQTT_BROKER_URL", "tcp://localhost:1883"),
		MQTTClientID:      getEnv("MQTT_CLIENT_ID", "scandrink-server"),
		MQTTUsername:      getEnv("MQTT_USERNAME", ""),
		MQTTPassword:      getEnv("MQTT_PASSWORD", ""),
		ReconnectInterval: getDuration("MQTT_RECONNECT_INTERVAL", 5*time.Second),
		DispatchRetry:     getDuration("DISPATCH_RETRY_INTERVAL", 1*time.Second),

		DBDriver:    getEnv("DB_DRIVER", "sqlite"),
		SQLitePath:  getEnv("SQLITE_PATH", "./scandrink.db"),
		PostgresDSN: getEnv("POSTGRES_DSN", ""),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGO_DB", "scandrink"),

		RedisAddr: getEnv("REDIS_ADDR", "localhost:6379"),
		OrderTTL:  getDuration("ORDER_TTL", 24*time.Hour),

		UseKafka:          getBool("USE_KAFKA", false),
		KafkaBrokers:      kafkaBrokers,
		KafkaTopicPayment: getEnv("KAFKA_TOPIC", "payments"),
		OutboxPeriod:      getDuration("OUTBOX_PERIOD", 1*time.Second),
		OutboxLimit:       getInt("OUTBOX_LIMIT", 10),

		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "scandrink"),
	}
}
