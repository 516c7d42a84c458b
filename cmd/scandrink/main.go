package main

import (
	"context"
	"database/sql"

	actuatorApp "github.com/davicafu/scandrink/internal/actuator/application"
	actuatorMqtt "github.com/davicafu/scandrink/internal/actuator/infra/outbound/mqtt"
	config "github.com/davicafu/scandrink/internal/config"
	paymentApp "github.com/davicafu/scandrink/internal/payment/application"
	paymentDomain "github.com/davicafu/scandrink/internal/payment/domain"
	paymentEvents "github.com/davicafu/scandrink/internal/payment/infra/inbound/events"
	paymentHttp "github.com/davicafu/scandrink/internal/payment/infra/inbound/http"
	chAnalytics "github.com/davicafu/scandrink/internal/payment/infra/outbound/analytics/clickhouse"
	paymentCache "github.com/davicafu/scandrink/internal/payment/infra/outbound/cache"
	mongoRepo "github.com/davicafu/scandrink/internal/payment/infra/outbound/db/mongodb"
	postgreRepo "github.com/davicafu/scandrink/internal/payment/infra/outbound/db/postgre"
	sqliteRepo "github.com/davicafu/scandrink/internal/payment/infra/outbound/db/sqlite"
	"github.com/davicafu/scandrink/internal/payment/infra/outbound/gateway"
	sharedDomain "github.com/davicafu/scandrink/internal/shared/domain"
	infraEvents "github.com/davicafu/scandrink/internal/shared/infra/events"
	infraRelayer "github.com/davicafu/scandrink/internal/shared/infra/relayer"
	sharedBus "github.com/davicafu/scandrink/internal/shared/infra/platform/bus"
	sharedCache "github.com/davicafu/scandrink/internal/shared/infra/platform/cache"
	"github.com/davicafu/scandrink/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/segmentio/kafka-go"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// ---------------- Main ----------------
func main() {
	logger.Init()          // inicializa zap
	log := logger.Logger() // obtiene logger estructurado
	defer log.Sync()       // flush buffers al salir

	ctx := context.Background()
	cfg := config.LoadConfig()

	// ---------------- DB ----------------
	// El mismo repositorio sirve las transacciones y la tabla outbox.
	var txRepo paymentDomain.TransactionRepository
	var outboxRepo sharedDomain.OutboxRepository

	switch cfg.DBDriver {
	case "postgres":
		db, err := sql.Open("pgx", cfg.PostgresDSN)
		if err != nil {
			log.Fatal("failed to open Postgres", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping Postgres", zap.Error(err))
		}
		if err := postgreRepo.InitPostgres(db); err != nil {
			log.Fatal("failed to initialize Postgres", zap.Error(err))
		}
		repo := postgreRepo.NewTransactionRepoPostgres(db)
		txRepo, outboxRepo = repo, repo

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			log.Fatal("failed to connect MongoDB", zap.Error(err))
		}
		defer client.Disconnect(ctx)
		repo, err := mongoRepo.NewTransactionRepoMongoDB(ctx, client, cfg.MongoDB)
		if err != nil {
			log.Fatal("failed to initialize MongoDB", zap.Error(err))
		}
		txRepo, outboxRepo = repo, repo

	default: // sqlite
		db, err := sql.Open("sqlite", cfg.SQLitePath)
		if err != nil {
			log.Fatal("failed to open SQLite", zap.Error(err))
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Fatal("failed to ping SQLite", zap.Error(err))
		}
		if err := sqliteRepo.InitSQLite(db); err != nil {
			log.Fatal("failed to initialize SQLite", zap.Error(err))
		}
		repo := sqliteRepo.NewTransactionRepoSQLite(db)
		txRepo, outboxRepo = repo, repo
	}

	// ---------------- Cache ----------------
	var cacheInstance sharedCache.Cache
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Warn("⚠️ Redis no disponible, store de pedidos en memoria:", zap.Error(err))
		cacheInstance = paymentCache.NewInMemoryCache(cfg.OrderTTL, 3*cfg.OrderTTL)
	} else {
		cacheInstance = paymentCache.NewRedisCache(rdb, cfg.OrderTTL)
		log.Info("✅ Redis conectado, store de pedidos habilitado")
	}
	orderStore := paymentCache.NewOrderStore(cacheInstance, cfg.OrderTTL)

	// ---------------- MQTT ----------------
	broker := actuatorMqtt.NewClient(actuatorMqtt.Options{
		BrokerURL:         cfg.MQTTBrokerURL,
		ClientID:          cfg.MQTTClientID,
		Username:          cfg.MQTTUsername,
		Password:          cfg.MQTTPassword,
		ReconnectInterval: cfg.ReconnectInterval,
	}, log)
	broker.Connect()
	defer broker.Close()

	// -------------- Dispatcher -------------
	dispatcher := actuatorApp.NewDispatcher(broker, cfg.DispatchRetry, log)
	go dispatcher.Run(ctx)

	// --------------- Servicio --------------
	midtransGateway := gateway.NewMidtransGateway(cfg.MidtransServerKey, cfg.MidtransProduction, log)
	catalog := paymentDomain.DefaultCatalog()
	paymentService := paymentApp.NewPaymentService(
		txRepo, orderStore, midtransGateway, catalog, dispatcher,
		cfg.MidtransServerKey, cfg.AllowTestNotification, log,
	)

	// -------------- Analítica --------------
	var analytics paymentDomain.SalesAnalytics
	if cfg.ClickHouseAddr != "" {
		salesRepo, err := chAnalytics.NewSalesRepo(ctx, cfg.ClickHouseAddr, cfg.ClickHouseDB)
		if err != nil {
			log.Warn("⚠️ ClickHouse no disponible, analítica desactivada", zap.Error(err))
		} else {
			analytics = salesRepo
			log.Info("✅ ClickHouse conectado, analítica habilitada")
		}
	}

	// ---------------- Events ---------------
	var eventPublisher sharedBus.EventBus

	if cfg.UseKafka {
		log.Info("🚀 Usando Kafka como bus de eventos")

		writer := kafka.NewWriter(kafka.WriterConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopicPayment,
		})
		defer writer.Close()

		eventPublisher = infraEvents.NewKafkaPublisher(writer, log)

		if analytics != nil {
			reader := kafka.NewReader(kafka.ReaderConfig{
				Brokers:  cfg.KafkaBrokers,
				Topic:    cfg.KafkaTopicPayment,
				GroupID:  "scandrink-analytics",
				MinBytes: 10e3, // 10KB
				MaxBytes: 10e6, // 10MB
			})
			defer reader.Close()

			salesConsumer := paymentEvents.NewSalesConsumer(analytics, log)
			consumerAdapter := infraEvents.NewConsumerAdapter(reader, salesConsumer, log)
			consumerAdapter.Start(ctx)
		}
	} else {
		log.Info("⚡️Usando bus de eventos en memoria (canales de Go)")

		inMemoryBus := infraEvents.NewInMemoryEventBus(paymentDomain.PaymentTopic)
		eventPublisher = inMemoryBus

		if analytics != nil {
			salesConsumer := paymentEvents.NewSalesConsumer(analytics, log)
			eventsChannel := inMemoryBus.Subscribe(10)

			log.Info("🎧 Iniciando listener en memoria para eventos de pago")
			paymentEvents.BackgroundConsumerChan(ctx, eventsChannel, salesConsumer)
		}
	}

	// ------------ Outbox Worker ------------
	eventRegistry := paymentDomain.NewEventRegistry()
	outboxWorker := infraRelayer.NewOutboxWorker(outboxRepo, eventPublisher, eventRegistry, cfg.OutboxPeriod, cfg.OutboxLimit, log)
	go outboxWorker.Start(ctx)

	// ---------------- HTTP ----------------
	paymentHandler := paymentHttp.NewPaymentHandler(paymentService, analytics, cfg.AdminToken)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	if cfg.AllowedOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.AllowedOrigin}
	}
	router.Use(cors.New(corsConfig))

	paymentHttp.RegisterPaymentRoutes(router, paymentHandler)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"broker": broker.State().String(),
			"queue":  dispatcher.Len(),
		})
	})

	log.Info("🚀 Server running",
		zap.String("url", "http://localhost:"+cfg.HTTPPort),
	)
	if err := router.Run(":" + cfg.HTTPPort); err != nil {
		log.Fatal("failed to start server", zap.Error(err))
	}
}
