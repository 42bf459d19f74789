package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/laundrypay/backend/docs"
	"github.com/laundrypay/backend/internal/audit"
	"github.com/laundrypay/backend/internal/config"
	"github.com/laundrypay/backend/internal/database"
	"github.com/laundrypay/backend/internal/handlers"
	"github.com/laundrypay/backend/internal/services"
	"github.com/laundrypay/backend/internal/store"
	"github.com/spf13/viper"
)

// @title Laundry Wadiah Backend API
// @version 1.0
// @description Student wadiah balances, rounding and checkout for the school laundry
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	loadConfig()

	// Initialize Swagger docs
	docs.SwaggerInfo.Host = viper.GetString("server.public_host")

	ctx := context.Background()

	checkoutCfg, err := config.LoadCheckoutConfig()
	if err != nil {
		log.Fatalf("Invalid checkout configuration: %v", err)
	}
	midtransCfg := config.LoadMidtransConfig()

	// Initialize storage
	var (
		ledgerStore store.LedgerStore
		billStore   store.BillStore
	)
	switch driver := config.StorageDriver(); driver {
	case "memory":
		log.Println("Using in-memory ledger store, balances are lost on restart")
		mem := store.NewMemoryStore()
		ledgerStore, billStore = mem, mem
	case "postgres":
		db, err := database.InitDB(ctx, database.GetConfig())
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer db.Close()
		pg := store.NewPostgresStore(db)
		ledgerStore, billStore = pg, pg
	default:
		log.Fatalf("Unknown storage driver %q", driver)
	}

	redisClient := database.InitRedis(ctx)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize services
	auditLogger := audit.NewLogger()
	ledgerService := services.NewLedgerService(ledgerStore, auditLogger)
	reconciliationQueue := services.NewReconciliationQueue(redisClient, checkoutCfg, auditLogger)
	checkoutService := services.NewCheckoutService(ledgerService, billStore, checkoutCfg.Rounding, reconciliationQueue, auditLogger)

	var gateway services.PaymentGateway
	if midtransCfg.ServerKey != "" {
		gateway = services.NewMidtransGateway(midtransCfg)
	} else {
		log.Println("MIDTRANS_SERVER_KEY not set, online payments disabled")
	}
	gatewayService := services.NewGatewayService(checkoutService, gateway, redisClient, reconciliationQueue, midtransCfg, auditLogger)

	r := newRouter(routes{
		wadiah:     handlers.NewWadiahHandler(ledgerService),
		checkout:   handlers.NewCheckoutHandler(checkoutService, reconciliationQueue),
		gateway:    handlers.NewGatewayHandler(gatewayService),
		swaggerURL: "http://" + docs.SwaggerInfo.Host + "/swagger/doc.json",
	})

	port := viper.GetString("server.port")

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s (rounding multiple %d, policy %s)",
			port, checkoutCfg.Rounding.Multiple, checkoutCfg.Rounding.DefaultPolicy)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}

func loadConfig() {
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.public_host", "PUBLIC_HOST")

	viper.BindEnv("storage.driver", "STORAGE_DRIVER")

	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")
	viper.BindEnv("database.auto_migrate", "DATABASE_AUTO_MIGRATE")

	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")

	viper.BindEnv("rounding.multiple", "ROUNDING_MULTIPLE")
	viper.BindEnv("rounding.default_policy", "ROUNDING_DEFAULT_POLICY")
	viper.BindEnv("reconciliation.key", "RECONCILIATION_KEY")

	viper.BindEnv("midtrans.server_key", "MIDTRANS_SERVER_KEY")
	viper.BindEnv("midtrans.production", "MIDTRANS_PRODUCTION")
	viper.BindEnv("midtrans.order_prefix", "MIDTRANS_ORDER_PREFIX")

	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.public_host", "localhost:8080")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}

	if viper.GetString("jwt.secret_key") == "" {
		log.Fatal("JWT_SECRET_KEY must be set")
	}
}
