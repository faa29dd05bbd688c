package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/repair-planner/internal/auth"
	"github.com/ukydev/repair-planner/internal/config"
	"github.com/ukydev/repair-planner/internal/db"
	"github.com/ukydev/repair-planner/internal/generator"
	"github.com/ukydev/repair-planner/internal/handlers"
	"github.com/ukydev/repair-planner/internal/intake"
	"github.com/ukydev/repair-planner/internal/knowledge"
	"github.com/ukydev/repair-planner/internal/planner"
)

const shutdownTimeout = 15 * time.Second

func main() {
	log.SetFormatter(&log.JSONFormatter{})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.WithError(err).Fatal("Repair planner stopped")
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	cfg.ConfigureLogging()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("connect to MongoDB: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	store := db.NewStore(client, cfg.MongoDB)
	if err := store.EnsureIndexes(ctx); err != nil {
		return err
	}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return err
	}

	gen, err := generator.NewClient(cfg.Generator.Endpoint, cfg.Generator.APIKey, cfg.Generator.Model, cfg.Generator.Timeout)
	if err != nil {
		return err
	}

	registry := newRegistry()
	repairPlanner := planner.New(
		knowledge.Default(),
		store.Technicians,
		store.Parts,
		gen,
		store.WorkOrders,
		planner.WithMetrics(planner.NewMetrics(registry)),
	)

	if cfg.MQTT.Broker != "" {
		mqttClient, err := intake.Connect(cfg.MQTT)
		if err != nil {
			return err
		}
		subscriber := intake.NewSubscriber(mqttClient, repairPlanner, cfg.MQTT, 2*cfg.Generator.Timeout)
		if err := subscriber.Start(ctx); err != nil {
			mqttClient.Disconnect(250)
			return err
		}
		defer subscriber.Stop()
	} else {
		log.Info("MQTT broker not configured, fault intake disabled")
	}

	router := handlers.Router(handlers.RouterOptions{
		Auth:       authService,
		Users:      store.Users,
		Planner:    repairPlanner,
		WorkOrders: store.WorkOrders,
		Gatherer:   registry,
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, nil)
		},
		PlanRateLimit: cfg.PlanRateLimit,
	})

	return serve(ctx, newServer(cfg.Port, router, cfg.Generator.Timeout))
}

func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// newServer builds the HTTP server. The write timeout leaves room for a full
// generator round trip on the plan route.
func newServer(port string, handler http.Handler, generatorTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      generatorTimeout + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}
}

// serve runs server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}
