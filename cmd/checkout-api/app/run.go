package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/re-trade/checkout-api/configs"
	"github.com/re-trade/checkout-api/internal/adapter/backend"
	"github.com/re-trade/checkout-api/internal/adapter/cache"
	httpadapter "github.com/re-trade/checkout-api/internal/adapter/http"
	"github.com/re-trade/checkout-api/internal/adapter/http/middleware"
	"github.com/re-trade/checkout-api/internal/adapter/kafka"
	"github.com/re-trade/checkout-api/internal/adapter/queue"
	"github.com/re-trade/checkout-api/internal/adapter/repo"
	"github.com/re-trade/checkout-api/internal/logging"
	"github.com/re-trade/checkout-api/internal/security"
	"github.com/re-trade/checkout-api/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	log := logging.Init(cfg.App.Name, cfg.App.LogFile, cfg.App.LogLevel)
	log.Info("checkout-api: starting up")

	// database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, nil, fmt.Errorf("mysql ping: %w", err)
	}

	// redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, nil, fmt.Errorf("redis ping: %w", err)
	}

	// rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbit dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("rabbit channel: %w", err)
	}

	// callback signature material
	verifier, err := security.NewSignatureVerifier([]byte(cfg.Crypto.RSAPubPEM))
	if err != nil {
		return nil, nil, fmt.Errorf("load crypto material: %w", err)
	}

	// backend clients
	orders := backend.NewOrderClient(backend.NewClient(cfg.Backend.OrderBaseURL, cfg.Backend.CallTimeout))
	payments := backend.NewPaymentClient(backend.NewClient(cfg.Backend.PaymentBaseURL, cfg.Backend.CallTimeout))
	sellers := backend.NewSellerClient(backend.NewClient(cfg.Backend.SellerBaseURL, cfg.Backend.CallTimeout))
	media := backend.NewMediaClient(backend.NewClient(cfg.Backend.MediaBaseURL, cfg.Backend.CallTimeout))
	location := backend.NewLocationClient(backend.NewClient(cfg.Backend.LocationBaseURL, cfg.Backend.CallTimeout))

	// infra
	attemptStore := cache.NewRedisAttemptStore(rdb, cfg.Checkout.AttemptTTL)
	orderGuard := cache.NewRedisOrderGuard(rdb, cfg.Checkout.AttemptTTL)
	statusCache := cache.NewRedisStatusCache(rdb, 24*time.Hour)
	journal := repo.NewMySQLAttemptJournal(db)

	producer, err := queue.NewRabbitProducer(ch, cfg.Rabbit.Exchange)
	if err != nil {
		return nil, nil, fmt.Errorf("rabbit producer: %w", err)
	}
	if err := producer.DeclareCallbackQueue(cfg.Rabbit.CallbackQueue); err != nil {
		return nil, nil, fmt.Errorf("declare callback queue: %w", err)
	}

	// use cases
	timings := usecase.Timings{
		ProcessingDelay: cfg.Checkout.ProcessingDelay,
		RedirectTimeout: cfg.Checkout.RedirectTimeout,
		ProcessTimeout:  cfg.Checkout.ProcessTimeout,
	}
	checkoutUC := usecase.NewCheckout(orders, payments, attemptStore, journal, orderGuard, producer, timings)
	buyNowUC := usecase.NewBuyNow(orders, payments)
	registrationUC := usecase.NewRegistration(sellers, media, location, producer)
	settleUC := usecase.NewSettleCallback(journal, statusCache)

	// queue consumer for gateway callbacks
	setupCallbackConsumer(ch, cfg.Rabbit.CallbackQueue, settleUC, verifier)

	// kafka consumer for settled order statuses
	kafkaCancel := setupStatusFeed(cfg, journal, statusCache)

	// handlers + router
	chh := httpadapter.NewCheckoutHandler(checkoutUC, buyNowUC, statusCache)
	rh := httpadapter.NewRegistrationHandler(registrationUC)
	ph := httpadapter.NewPaymentHandler(payments, settleUC)
	th := httpadapter.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(chh, rh, ph, th, authz, verifier)

	cleanup := func() {
		kafkaCancel()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}
	return &App{Router: router}, cleanup, nil
}

func setupCallbackConsumer(ch *amqp091.Channel, queueName string, settle *usecase.SettleCallback, verifier queue.Verifier) {
	h := queue.NewPaymentCallbackHandler(settle, verifier)

	router := queue.NewRouter(ch, queue.WithPrefetch(50))
	router.Register(queueName, queue.JSONHandler[usecase.PaymentCallbackMsg]{HandleFunc: h.HandleCallback})

	if err := router.Start(); err != nil {
		panic(err)
	}
}

func setupStatusFeed(cfg configs.Config, journal *repo.MySQLAttemptJournal, statusCache *cache.RedisStatusCache) context.CancelFunc {
	ctx, cancel := context.WithCancel(context.Background())
	if len(cfg.Kafka.Brokers) == 0 {
		return cancel
	}

	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		cancel()
		panic(err)
	}

	h := kafka.NewOrderStatusChangedHandler(journal, statusCache)
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.TopicOrders}, h.Handle, logging.New("kafka"))

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logging.New("kafka").Error("status feed stopped", "error", err)
		}
	}()
	return cancel
}
