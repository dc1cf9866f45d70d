package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	accountsrepo "github.com/pushpak01/pushtoys-render/internal/accounts/repository"
	accountssvc "github.com/pushpak01/pushtoys-render/internal/accounts/service"
	catalogcache "github.com/pushpak01/pushtoys-render/internal/catalog/cache"
	catalogrepo "github.com/pushpak01/pushtoys-render/internal/catalog/repository"
	catalogsvc "github.com/pushpak01/pushtoys-render/internal/catalog/service"
	"github.com/pushpak01/pushtoys-render/internal/checkout"
	h "github.com/pushpak01/pushtoys-render/internal/http"
	ordersrepo "github.com/pushpak01/pushtoys-render/internal/orders/repository"
	"github.com/pushpak01/pushtoys-render/internal/orders/publisher"
	"github.com/pushpak01/pushtoys-render/internal/session"
	"github.com/pushpak01/pushtoys-render/internal/storage"
	"github.com/pushpak01/pushtoys-render/internal/tax"
	"github.com/pushpak01/pushtoys-render/pkg/logger"
)

type Config struct {
	HTTPPort        string
	RedisAddr       string
	KafkaBrokers    []string
	Storage         *storage.Credentials
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		dbPort = 5432
	}

	return &Config{
		HTTPPort:     getEnv("HTTP_PORT", "8080"),
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		Storage: &storage.Credentials{
			Driver:            getEnv("DB_DRIVER", storage.DriverSQLite),
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              dbPort,
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", "postgres"),
			DBName:            getEnv("DB_NAME", "pushtoys"),
			SQLitePath:        getEnv("SQLITE_PATH", "./pushtoys.db"),
			MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/storage/migrations"),
		},
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

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	log, err := logger.New("storefront")
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Database
	db, err := storage.Open(cfg.Storage)
	if err != nil {
		log.Fatalw("failed to connect to database", "err", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db, cfg.Storage.Driver, cfg.Storage.MigrationsDirPath); err != nil {
		log.Fatalw("failed to run migrations", "err", err)
	}
	log.Infow("database migrations completed", "driver", cfg.Storage.Driver)

	// Redis backs both the session store and the product cache
	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	sessionStore := session.NewRedisStore(redisClient)

	// Services
	taxes := tax.NewCalculator(tax.DefaultRates())

	catalogService := catalogsvc.NewCatalogService(
		catalogrepo.NewRepository(db),
		catalogcache.NewRedisCache(redisClient),
		log,
	)

	orderRepository := ordersrepo.NewRepository(db)
	checkoutService := checkout.NewService(orderRepository, taxes, log)
	accountsService := accountssvc.NewAccountsService(accountsrepo.NewRepository(db), log)

	// Outbox poller publishes order events to Kafka
	poller := publisher.NewOutboxPoller(orderRepository, log, cfg.KafkaBrokers...)
	pollerCtx, pollerCancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Run(pollerCtx)
	}()

	// Handlers
	productHandler := h.NewProductHandler(catalogService, cfg.RequestTimeout)
	cartHandler := h.NewCartHandler(catalogService, taxes, cfg.RequestTimeout)
	checkoutHandler := h.NewCheckoutHandler(checkoutService, catalogService, taxes, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(checkoutService, cfg.RequestTimeout)
	accountsHandler := h.NewAccountsHandler(accountsService, cfg.RequestTimeout)

	// Setup router
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(h.RequestIDMiddleware)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(h.SessionMiddleware(sessionStore, log))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", productHandler.List)
			r.Post("/", productHandler.Create)
			r.Get("/{id}", productHandler.Get)
			r.Put("/{id}", productHandler.Update)
		})
		r.Get("/categories", productHandler.Categories)

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{product_id}", cartHandler.RemoveItem)
		})

		r.Post("/checkout", checkoutHandler.PlaceOrder)

		r.With(h.RequireUser).Get("/orders", ordersHandler.History)

		r.Route("/accounts", func(r chi.Router) {
			r.Post("/register", accountsHandler.Register)
			r.Post("/login", accountsHandler.Login)
			r.Post("/logout", accountsHandler.Logout)
			r.With(h.RequireUser).Get("/profile", accountsHandler.Profile)
			r.With(h.RequireUser).Put("/profile", accountsHandler.UpdateProfile)
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("storefront starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server error", "err", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorw("server forced to shutdown", "err", err)
	}

	// the poller gets its own grace period so a slow HTTP drain cannot
	// starve it before Close
	pollerCancel()
	drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer drainCancel()
	doneChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(doneChan)
	}()
	select {
	case <-doneChan:
		log.Infow("outbox poller stopped cleanly")
	case <-drainCtx.Done():
		log.Warnw("outbox poller didn't stop in time")
	}
	poller.Close()

	log.Infow("server exited")
}
