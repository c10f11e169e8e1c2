// Command seed creates the initial admin account and loads the local parts
// catalog into the inventoryitems collection. It is safe to run repeatedly.
package main

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/autoserve/internal/auth"
	"github.com/ukydev/autoserve/internal/config"
	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/inventory"
	"github.com/ukydev/autoserve/internal/models"
)

const (
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
	adminName            = "Admin User"
)

// Seeder writes the seed data through the collection interfaces.
type Seeder struct {
	Users db.UserCollection
	Items db.InventoryCollection
	Auth  *auth.Service
}

// EnsureAdmin creates the manager account unless the email is already registered.
// It reports whether a user was created.
func (s *Seeder) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := s.Users.FindUserByEmail(ctx, email); err == nil {
		log.WithField("email", email).Info("Admin user already exists")
		return false, nil
	} else if !errors.Is(err, db.ErrNotFound) {
		return false, errors.Wrap(err, "look up admin")
	}

	hash, err := s.Auth.HashPassword(password)
	if err != nil {
		return false, err
	}
	user := &models.User{
		Name:         adminName,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleManager,
	}
	if err := s.Users.InsertUser(ctx, user); err != nil {
		return false, errors.Wrap(err, "insert admin")
	}
	log.WithFields(log.Fields{"email": email, "role": user.Role}).Info("Admin user created")
	return true, nil
}

// LoadCatalog upserts every part as an active inventory item and returns the count.
func (s *Seeder) LoadCatalog(ctx context.Context, parts []inventory.Part) (int, error) {
	for i, p := range parts {
		item := &models.InventoryItem{
			PartNumber:  p.PartNumber,
			Name:        p.Name,
			Category:    p.Category,
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			MinStock:    p.MinStock,
			Unit:        p.Unit,
			IsActive:    true,
		}
		if err := s.Items.UpsertItem(ctx, item); err != nil {
			return i, errors.Wrapf(err, "upsert %s", p.PartNumber)
		}
	}
	return len(parts), nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	cfg := config.Load()
	cfg.ConfigureLogging()
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}

	catalog, err := inventory.NewLocalCatalog()
	if err != nil {
		log.WithError(err).Fatal("Failed to load catalog")
	}

	seeder := &Seeder{
		Users: &db.MongoUserCollection{Collection: database.Collection(db.UsersCollection)},
		Items: &db.MongoInventoryCollection{Collection: database.Collection(db.InventoryCollectionName)},
		Auth:  auth.NewService(cfg.JWTSecret, cfg.JWTExpiry),
	}

	if _, err := seeder.EnsureAdmin(ctx,
		getEnv("SEED_ADMIN_EMAIL", defaultAdminEmail),
		getEnv("SEED_ADMIN_PASSWORD", defaultAdminPassword)); err != nil {
		log.WithError(err).Fatal("Failed to seed admin user")
	}

	n, err := seeder.LoadCatalog(ctx, catalog.Parts())
	if err != nil {
		log.WithError(err).Fatal("Failed to seed inventory")
	}
	log.WithField("items", n).Info("Seeding completed")
}
