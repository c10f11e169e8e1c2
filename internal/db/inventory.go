package db

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ukydev/autoserve/internal/models"
)

// InventoryCollection defines the interface for stored inventory items.
// Part numbers are stored uppercased so lookups are case-insensitive.
type InventoryCollection interface {
	FindActiveItems(ctx context.Context) ([]models.InventoryItem, error)
	FindItemByID(ctx context.Context, id string) (*models.InventoryItem, error)
	FindItemByPartNumber(ctx context.Context, partNumber string) (*models.InventoryItem, error)
	InsertItem(ctx context.Context, item *models.InventoryItem) error
	SaveItem(ctx context.Context, item *models.InventoryItem) error
	UpsertItem(ctx context.Context, item *models.InventoryItem) error
}

// MongoInventoryCollection implements InventoryCollection for MongoDB.
type MongoInventoryCollection struct {
	Collection *mongo.Collection
}

// FindActiveItems lists active items sorted by name.
func (c *MongoInventoryCollection) FindActiveItems(ctx context.Context) ([]models.InventoryItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	cursor, err := c.Collection.Find(ctx, bson.M{"isActive": true}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	items := []models.InventoryItem{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// FindItemByID finds an item by its ID regardless of active state.
func (c *MongoInventoryCollection) FindItemByID(ctx context.Context, id string) (*models.InventoryItem, error) {
	objectID, err := ParseID(id)
	if err != nil {
		return nil, err
	}
	return c.findOne(ctx, bson.M{"_id": objectID})
}

// FindItemByPartNumber finds an active item by part number, ignoring case.
func (c *MongoInventoryCollection) FindItemByPartNumber(ctx context.Context, partNumber string) (*models.InventoryItem, error) {
	return c.findOne(ctx, bson.M{"partNumber": NormalizePartNumber(partNumber), "isActive": true})
}

// InsertItem stores a new active item. A taken part number yields ErrDuplicate.
func (c *MongoInventoryCollection) InsertItem(ctx context.Context, item *models.InventoryItem) error {
	now := time.Now()
	item.ID = primitive.NewObjectID()
	item.PartNumber = NormalizePartNumber(item.PartNumber)
	item.IsActive = true
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := c.Collection.InsertOne(ctx, item)
	return translate(err)
}

// SaveItem replaces a stored item.
func (c *MongoInventoryCollection) SaveItem(ctx context.Context, item *models.InventoryItem) error {
	item.PartNumber = NormalizePartNumber(item.PartNumber)
	item.UpdatedAt = time.Now()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return translate(err)
	}
	if result.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// UpsertItem writes item keyed by part number, creating it if absent.
func (c *MongoInventoryCollection) UpsertItem(ctx context.Context, item *models.InventoryItem) error {
	now := time.Now()
	item.PartNumber = NormalizePartNumber(item.PartNumber)
	update := bson.M{
		"$set": bson.M{
			"name":        item.Name,
			"category":    item.Category,
			"price":       item.Price,
			"stock":       item.Stock,
			"minStock":    item.MinStock,
			"unit":        item.Unit,
			"description": item.Description,
			"supplier":    item.Supplier,
			"isActive":    true,
			"updatedAt":   now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	_, err := c.Collection.UpdateOne(ctx, bson.M{"partNumber": item.PartNumber}, update, options.Update().SetUpsert(true))
	return translate(err)
}

func (c *MongoInventoryCollection) findOne(ctx context.Context, filter bson.M) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := c.Collection.FindOne(ctx, filter).Decode(&item); err != nil {
		return nil, translate(err)
	}
	return &item, nil
}

// NormalizePartNumber trims and uppercases a part number.
func NormalizePartNumber(partNumber string) string {
	return strings.ToUpper(strings.TrimSpace(partNumber))
}
