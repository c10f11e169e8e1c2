package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/autoserve/internal/auth"
	"github.com/ukydev/autoserve/internal/config"
	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/events"
	"github.com/ukydev/autoserve/internal/handlers"
	"github.com/ukydev/autoserve/internal/inventory"
	"github.com/ukydev/autoserve/internal/jobcard"
	"github.com/ukydev/autoserve/internal/middleware"
	"github.com/ukydev/autoserve/internal/notification"
	"github.com/ukydev/autoserve/internal/server"
	"github.com/ukydev/autoserve/internal/telemetry"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.WithError(err).Fatal("Server exited")
	}
}

func run(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "setup telemetry")
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to flush telemetry")
		}
	}()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return errors.Wrap(err, "connect to MongoDB")
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to disconnect from MongoDB")
		}
	}()
	log.WithField("database", cfg.MongoDB).Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		return errors.Wrap(err, "ensure indexes")
	}

	users := &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)}
	cards := &db.MongoJobCardCollection{Collection: database.Collection(db.JobCardsCollection)}
	items := &db.MongoInventoryCollection{Collection: database.Collection(db.InventoryCollectionName)}
	notes := &db.MongoNotificationCollection{Collection: database.Collection(db.NotificationsCollection)}

	publisher, err := events.New(cfg)
	if err != nil {
		return errors.Wrap(err, "create event publisher")
	}
	defer publisher.Close()

	jobCards, err := jobcard.NewService(cards, users, notification.NewNotifier(notes), publisher, int64(cfg.NodeID))
	if err != nil {
		return err
	}

	lookup, err := buildInventory(cfg)
	if err != nil {
		return err
	}

	limiter, err := middleware.NewLimiter(cfg.RedisURL, cfg.RateLimitRequests, cfg.RateLimitWindow)
	if err != nil {
		return errors.Wrap(err, "create rate limiter")
	}

	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	gin.SetMode(gin.ReleaseMode)
	router := server.New(cfg, middleware.NewAuthMiddleware(authService), limiter, server.Handlers{
		Auth:          handlers.NewAuthHandler(authService, users),
		JobCards:      handlers.NewJobCardHandler(jobCards),
		Inventory:     handlers.NewInventoryHandler(lookup, inventory.NewStore(items)),
		Notifications: handlers.NewNotificationHandler(notification.NewService(notes, cards)),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return serve(ctx, srv)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	return srv.Shutdown(shutdownCtx)
}

// buildInventory selects the lookup policy from INVENTORY_API_MODE. The remote
// catalog is only configured when ODOO_URL is set.
func buildInventory(cfg config.Config) (*inventory.Service, error) {
	local, err := inventory.NewLocalCatalog()
	if err != nil {
		return nil, errors.Wrap(err, "load local catalog")
	}

	var remote inventory.Catalog
	if cfg.OdooURL != "" {
		odoo, err := inventory.NewOdooCatalog(inventory.OdooConfig{
			URL:      cfg.OdooURL,
			DB:       cfg.OdooDB,
			Username: cfg.OdooUsername,
			APIKey:   cfg.OdooAPIKey,
			Timeout:  cfg.InventoryTimeout,
		})
		if err != nil {
			return nil, errors.Wrap(err, "create odoo catalog")
		}
		remote = odoo
	}

	policy := inventory.PolicyForMode(cfg.InventoryMode)
	svc, err := inventory.NewService(local, remote, policy)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"mode":   cfg.InventoryMode,
		"policy": svc.Policy().String(),
	}).Info("Inventory lookup configured")
	return svc, nil
}

