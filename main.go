package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"commerce-sim/config"
	"commerce-sim/consumers"
	"commerce-sim/controllers"
	"commerce-sim/database"
	"commerce-sim/logger"
	"commerce-sim/middlewares"
	"commerce-sim/rabbitmq"
	"commerce-sim/services"
	"commerce-sim/store"
)

func main() {
	cfg := config.LoadConfig()
	logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Environment})
	gin.SetMode(cfg.GinMode)

	st, closeStore := openStore(cfg)
	defer closeStore()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	var events services.EventPublisher = services.NopPublisher{}
	paymentCheckDelay := cfg.PaymentCheckDelay
	var rmq *rabbitmq.RabbitMQ
	if cfg.RabbitMQURL != "" {
		var err error
		rmq, err = rabbitmq.NewRabbitMQ(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("RabbitMQ initialization failed")
		}
		defer rmq.Close()

		if err := rmq.SetupQueues(); err != nil {
			log.Fatal().Err(err).Msg("Failed to setup RabbitMQ queues")
		}
		if !rmq.DelaySupported() {
			paymentCheckDelay = 0
		}
		events = rmq
	} else {
		log.Warn().Msg("RABBITMQ_URL not set, order events are disabled")
	}

	orders := services.NewOrderService(st, events, paymentCheckDelay,
		services.WithFinancialObserver(middlewares.RecordFinancialTransition))
	customers := services.NewCustomerService(st, cfg.SearchDefaultLimit, cfg.SearchMaxLimit)

	if rmq != nil {
		if err := consumers.StartOrderConsumer(ctx, rmq.Channel, cfg, orders); err != nil {
			log.Fatal().Err(err).Msg("Failed to start order consumer")
		}
	}

	r := gin.New()
	r.Use(middlewares.RequestLogger(), middlewares.Recover(), middlewares.PrometheusMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.POST("/dead-letter", controllers.HandleDeadLetter)

	api := r.Group("/api")
	api.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	controllers.RegisterRoutes(api, controllers.NewOrderController(orders), controllers.NewCustomerController(customers))

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Str("store", cfg.StoreDriver).Msg("Commerce simulator listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
}

// openStore returns the configured store and its cleanup.
func openStore(cfg *config.Config) (store.Store, func()) {
	switch cfg.StoreDriver {
	case "mysql":
		if err := database.InitDB(cfg); err != nil {
			log.Fatal().Err(err).Msg("Database initialization failed")
		}
		return store.NewMySQLStore(database.DB), database.CloseDB
	case "memory", "":
		st := store.NewMemoryStore()
		if cfg.FixturePath != "" {
			if err := st.LoadFile(cfg.FixturePath); err != nil {
				log.Fatal().Err(err).Str("path", cfg.FixturePath).Msg("Failed to load fixture")
			}
			log.Info().Str("path", cfg.FixturePath).Msg("Loaded fixture")
		}
		return st, func() {}
	default:
		log.Fatal().Str("driver", cfg.StoreDriver).Msg("Unknown STORE_DRIVER, expected memory or mysql")
		return nil, nil
	}
}
