package db

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukydev/autoserve/internal/models"
)

func TestMongoInventoryCollection_PartNumberIsCaseInsensitive(t *testing.T) {
	database := testDatabase(t)
	items := &MongoInventoryCollection{Collection: database.Collection(InventoryCollectionName)}
	ctx := context.Background()

	item := &models.InventoryItem{PartNumber: "bp-001", Name: "Brake Pads - Front", Category: "Brakes", Price: 2500, Stock: 15, MinStock: 5, Unit: "set"}
	require.NoError(t, items.InsertItem(ctx, item))
	assert.Equal(t, "BP-001", item.PartNumber)

	lower, err := items.FindItemByPartNumber(ctx, "bp-001")
	require.NoError(t, err)
	upper, err := items.FindItemByPartNumber(ctx, "BP-001")
	require.NoError(t, err)
	assert.Equal(t, lower.ID, upper.ID)

	dup := &models.InventoryItem{PartNumber: "BP-001", Name: "Copy", Category: "Brakes", Unit: "set"}
	assert.ErrorIs(t, items.InsertItem(ctx, dup), ErrDuplicate)
}

func TestMongoInventoryCollection_SoftDeleteHidesItem(t *testing.T) {
	database := testDatabase(t)
	items := &MongoInventoryCollection{Collection: database.Collection(InventoryCollectionName)}
	ctx := context.Background()

	for _, name := range []string{"Oil Filter", "Air Filter"} {
		item := &models.InventoryItem{PartNumber: name[:3], Name: name, Category: "Filters", Unit: "piece", MinStock: 5}
		require.NoError(t, items.InsertItem(ctx, item))
	}

	active, err := items.FindActiveItems(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Air Filter", active[0].Name)

	active[0].IsActive = false
	require.NoError(t, items.SaveItem(ctx, &active[0]))

	active, err = items.FindActiveItems(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	_, err = items.FindItemByPartNumber(ctx, "AIR")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMongoInventoryCollection_Upsert(t *testing.T) {
	database := testDatabase(t)
	items := &MongoInventoryCollection{Collection: database.Collection(InventoryCollectionName)}
	ctx := context.Background()

	item := &models.InventoryItem{PartNumber: "EO-001", Name: "Engine Oil", Category: "Lubricants", Price: 850, Stock: 50, MinStock: 10, Unit: "liter"}
	require.NoError(t, items.UpsertItem(ctx, item))
	item.Stock = 40
	require.NoError(t, items.UpsertItem(ctx, item))

	found, err := items.FindItemByPartNumber(ctx, "eo-001")
	require.NoError(t, err)
	assert.Equal(t, 40, found.Stock)
	assert.True(t, found.IsActive)
}
