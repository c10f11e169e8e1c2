package inventory

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/autoserve/internal/db"
	"github.com/ukydev/autoserve/internal/models"
)

// ErrDuplicatePart is returned when creating an item whose part number is taken,
// including by a soft-deleted item.
var ErrDuplicatePart = errors.New("Part number already exists")

// ValidationError reports unacceptable item input.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func invalid(msg string) error { return &ValidationError{Msg: msg} }

// Stock operations accepted by AdjustStock. Any other value sets the stock directly.
const (
	StockAdd      = "add"
	StockSubtract = "subtract"
)

// ItemInput is the body of an item create request.
type ItemInput struct {
	PartNumber  string  `json:"partNumber"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Unit        string  `json:"unit"`
	MinStock    *int    `json:"minStock"`
	Supplier    string  `json:"supplier"`
}

// ItemPatch is the body of an item update. Nil or empty fields are left unchanged.
type ItemPatch struct {
	Name        string   `json:"name"`
	Category    string   `json:"category"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Unit        string   `json:"unit"`
	MinStock    *int     `json:"minStock"`
	Supplier    *string  `json:"supplier"`
}

// StockInput is the body of a stock adjustment.
type StockInput struct {
	Quantity  int    `json:"quantity"`
	Operation string `json:"operation"`
}

// Store manages the inventoryitems collection.
type Store struct {
	items db.InventoryCollection
}

// NewStore returns a Store over items.
func NewStore(items db.InventoryCollection) *Store {
	return &Store{items: items}
}

// Items lists active items sorted by name.
func (s *Store) Items(ctx context.Context) ([]models.InventoryItem, error) {
	return s.items.FindActiveItems(ctx)
}

// ItemByPartNumber finds an active item, ignoring case.
func (s *Store) ItemByPartNumber(ctx context.Context, partNumber string) (*models.InventoryItem, error) {
	item, err := s.items.FindItemByPartNumber(ctx, partNumber)
	if err != nil {
		return nil, errors.Wrap(err, "find item by part number")
	}
	return item, nil
}

// Create validates and stores a new active item.
func (s *Store) Create(ctx context.Context, in ItemInput) (*models.InventoryItem, error) {
	if strings.TrimSpace(in.PartNumber) == "" || strings.TrimSpace(in.Name) == "" {
		return nil, invalid("Part number and name are required")
	}
	if in.Category == "" {
		in.Category = "Other"
	}
	if in.Unit == "" {
		in.Unit = "piece"
	}
	minStock := models.DefaultMinStock
	if in.MinStock != nil {
		minStock = *in.MinStock
	}
	item := &models.InventoryItem{
		PartNumber:  in.PartNumber,
		Name:        in.Name,
		Category:    in.Category,
		Description: in.Description,
		Price:       in.Price,
		Stock:       in.Stock,
		MinStock:    minStock,
		Unit:        in.Unit,
		Supplier:    in.Supplier,
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}

	if err := s.items.InsertItem(ctx, item); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return nil, ErrDuplicatePart
		}
		return nil, errors.Wrap(err, "insert item")
	}
	log.WithFields(log.Fields{"part_number": item.PartNumber, "stock": item.Stock}).Info("Inventory item created")
	return item, nil
}

// Update applies a partial change to an item.
func (s *Store) Update(ctx context.Context, id string, p ItemPatch) (*models.InventoryItem, error) {
	item, err := s.items.FindItemByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "find item")
	}

	if p.Name != "" {
		item.Name = p.Name
	}
	if p.Category != "" {
		item.Category = p.Category
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.Price != nil {
		item.Price = *p.Price
	}
	if p.Stock != nil {
		item.Stock = *p.Stock
	}
	if p.Unit != "" {
		item.Unit = p.Unit
	}
	if p.MinStock != nil {
		item.MinStock = *p.MinStock
	}
	if p.Supplier != nil {
		item.Supplier = *p.Supplier
	}
	if err := validateItem(item); err != nil {
		return nil, err
	}

	if err := s.items.SaveItem(ctx, item); err != nil {
		return nil, errors.Wrap(err, "save item")
	}
	return item, nil
}

// Delete marks an item inactive.
func (s *Store) Delete(ctx context.Context, id string) error {
	item, err := s.items.FindItemByID(ctx, id)
	if err != nil {
		return errors.Wrap(err, "find item")
	}
	item.IsActive = false
	if err := s.items.SaveItem(ctx, item); err != nil {
		return errors.Wrap(err, "deactivate item")
	}
	log.WithField("part_number", item.PartNumber).Info("Inventory item deactivated")
	return nil
}

// AdjustStock adds, subtracts (never below zero) or sets the stock level.
func (s *Store) AdjustStock(ctx context.Context, id string, in StockInput) (*models.InventoryItem, error) {
	if in.Quantity < 0 {
		return nil, invalid("Quantity cannot be negative")
	}
	item, err := s.items.FindItemByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "find item")
	}

	switch in.Operation {
	case StockAdd:
		item.Stock += in.Quantity
	case StockSubtract:
		item.Stock -= in.Quantity
		if item.Stock < 0 {
			item.Stock = 0
		}
	default:
		item.Stock = in.Quantity
	}

	if err := s.items.SaveItem(ctx, item); err != nil {
		return nil, errors.Wrap(err, "save stock")
	}
	log.WithFields(log.Fields{
		"part_number": item.PartNumber,
		"operation":   in.Operation,
		"stock":       item.Stock,
	}).Info("Stock updated")
	return item, nil
}

func validateItem(item *models.InventoryItem) error {
	switch {
	case !models.IsValidCategory(item.Category):
		return invalid("Invalid category")
	case !models.IsValidUnit(item.Unit):
		return invalid("Invalid unit")
	case item.Price < 0:
		return invalid("Price cannot be negative")
	case item.Stock < 0:
		return invalid("Stock cannot be negative")
	case item.MinStock < 0:
		return invalid("Minimum stock cannot be negative")
	}
	return nil
}
