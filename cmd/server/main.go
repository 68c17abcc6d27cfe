package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/Surajit-Basak/sundaraah-checkout/internal/cart"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/catalog"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/checkout"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/order"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/payment"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/server"
	"github.com/Surajit-Basak/sundaraah-checkout/internal/settings"
)

type Config struct {
	HTTPPort string

	MongoURI   string
	MongoDB    string
	RedisAddr  string
	RedisPass  string
	CatalogDB  string
	CatalogMig string

	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string
	CheckoutDBName   string
	CheckoutMig      string
	OrdersDBName     string
	OrdersMig        string

	KafkaBrokers []string

	SettingsURL      string
	PaymentURL       string
	PaymentPublicKey string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		MongoURI:   getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:    getEnv("MONGODB_DATABASE", "sundaraah"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPass:  getEnv("REDIS_PASSWORD", ""),
		CatalogDB:  getEnv("CATALOG_DB_PATH", "catalog.db"),
		CatalogMig: getEnv("CATALOG_MIGRATIONS_PATH", "migrations/catalog"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),
		CheckoutDBName:   getEnv("CHECKOUT_DB_NAME", "checkout"),
		CheckoutMig:      getEnv("CHECKOUT_MIGRATIONS_PATH", "migrations/checkout"),
		OrdersDBName:     getEnv("ORDERS_DB_NAME", "orders"),
		OrdersMig:        getEnv("ORDERS_MIGRATIONS_PATH", "migrations/orders"),

		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),

		SettingsURL:      getEnv("SETTINGS_URL", "http://localhost:8090"),
		PaymentURL:       getEnv("PAYMENT_GATEWAY_URL", "http://localhost:8091"),
		PaymentPublicKey: getEnv("PAYMENT_PUBLIC_KEY", ""),

		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
		log.Printf("invalid value for %s, using default %d", key, defaultValue)
	}
	return defaultValue
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}

	cfg := loadConfig()
	ctx := context.Background()

	// Cart store: Mongo primary, Redis read cache
	mongoDB, err := cart.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		log.Fatalf("failed to connect to MongoDB: %v", err)
	}
	if err := cart.EnsureIndexes(ctx, mongoDB); err != nil {
		log.Fatalf("failed to create cart indexes: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPass,
	})
	defer redisClient.Close()

	// Product catalog (SQLite read store)
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDB)
	if err != nil {
		log.Fatalf("failed to open catalog: %v", err)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMig); err != nil {
		log.Fatalf("failed to run catalog migrations: %v", err)
	}

	cartService := cart.NewService(
		cart.NewMongoRepository(mongoDB),
		cart.NewRedisCache(redisClient),
		catalogRepo,
	)

	// Checkout sessions (Postgres)
	checkoutCred := &checkout.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.CheckoutDBName,
		MigrationsDirPath: cfg.CheckoutMig,
	}
	checkoutRepo, err := checkout.NewRepository(checkoutCred)
	if err != nil {
		log.Fatalf("failed to connect to checkout database: %v", err)
	}
	defer checkoutRepo.Close()
	if err := checkoutRepo.RunMigrations(checkoutCred); err != nil {
		log.Fatalf("failed to run checkout migrations: %v", err)
	}

	// Orders (Postgres, with transactional outbox)
	ordersCred := &order.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.OrdersDBName,
		MigrationsDirPath: cfg.OrdersMig,
	}
	ordersRepo, err := order.NewRepository(ordersCred)
	if err != nil {
		log.Fatalf("failed to connect to orders database: %v", err)
	}
	defer ordersRepo.Close()
	if err := ordersRepo.RunMigrations(ordersCred); err != nil {
		log.Fatalf("failed to run orders migrations: %v", err)
	}

	settingsProvider := settings.NewProvider(cfg.SettingsURL, cfg.RequestTimeout)
	paymentGateway := payment.NewHTTPGateway(cfg.PaymentURL, cfg.PaymentPublicKey, cfg.RequestTimeout)

	checkoutService := checkout.NewService(checkoutRepo, cartService, settingsProvider, paymentGateway, ordersRepo)

	// Outbox poller publishes order events to Kafka in the background
	pollerCtx, stopPoller := context.WithCancel(ctx)
	defer stopPoller()
	poller := order.NewOutboxPoller(ordersRepo, cfg.KafkaBrokers...)
	go poller.Run(pollerCtx)

	registry := prometheus.NewRegistry()
	metrics := server.NewMetrics(registry)

	router := server.NewRouter(server.RouterDeps{
		Cart:     server.NewCartHandler(cartService, settingsProvider, cfg.RequestTimeout),
		Checkout: server.NewCheckoutHandler(checkoutService, metrics, cfg.RequestTimeout),
		Orders:   server.NewOrdersHandler(ordersRepo, cfg.RequestTimeout),
		Products: server.NewProductsHandler(catalogRepo, cfg.RequestTimeout),
		Settings: server.NewSettingsHandler(settingsProvider, cfg.RequestTimeout),
		Registry: registry,
		Timeout:  cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("storefront server starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPoller()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
