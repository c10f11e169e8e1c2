package models

import (
	"encoding/json"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Stock status labels shared by stored items and catalog lookups.
const (
	StockIn  = "In Stock"
	StockLow = "Low Stock"
	StockOut = "Out of Stock"
)

// DefaultMinStock is the reorder threshold used when none is given.
const DefaultMinStock = 5

// Categories lists the accepted inventory categories.
var Categories = []string{
	"Brakes", "Lubricants", "Filters", "Electrical", "Tires",
	"AC System", "Ignition", "Suspension", "Other",
}

// Units lists the accepted inventory units.
var Units = []string{"piece", "set", "liter", "can", "kg", "meter"}

// IsValidCategory checks if a category is accepted.
func IsValidCategory(c string) bool {
	return contains(Categories, c)
}

// IsValidUnit checks if a unit is accepted.
func IsValidUnit(u string) bool {
	return contains(Units, u)
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// InventoryItem is a stored stock-keeping record.
type InventoryItem struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	PartNumber  string             `bson:"partNumber" json:"partNumber"`
	Name        string             `bson:"name" json:"name"`
	Category    string             `bson:"category" json:"category"`
	Price       float64            `bson:"price" json:"price"`
	Stock       int                `bson:"stock" json:"stock"`
	MinStock    int                `bson:"minStock" json:"minStock"`
	Unit        string             `bson:"unit" json:"unit"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Supplier    string             `bson:"supplier,omitempty" json:"supplier,omitempty"`
	IsActive    bool               `bson:"isActive" json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// StockStatus classifies a stored item against its own reorder threshold:
// zero is out, at or below minStock is low, anything above is in stock.
func (i InventoryItem) StockStatus() string {
	switch {
	case i.Stock <= 0:
		return StockOut
	case i.Stock <= i.MinStock:
		return StockLow
	default:
		return StockIn
	}
}

// MarshalJSON adds the derived stockStatus field.
func (i InventoryItem) MarshalJSON() ([]byte, error) {
	type plain InventoryItem
	return json.Marshal(struct {
		plain
		StockStatus string `json:"stockStatus"`
	}{plain: plain(i), StockStatus: i.StockStatus()})
}
