package handlers

import (
	"errors"
	"net/http"

	"github.com/ukydev/autoserve/internal/inventory"
)

const (
	partNotFound = "Part not found"
	itemNotFound = "Item not found"
)

// InventoryHandler serves catalog lookups and stored inventory items.
type InventoryHandler struct {
	lookup *inventory.Service
	store  *inventory.Store
}

// NewInventoryHandler creates a new inventory handler
func NewInventoryHandler(lookup *inventory.Service, store *inventory.Store) *InventoryHandler {
	return &InventoryHandler{lookup: lookup, store: store}
}

// Search finds catalog parts matching the q parameter.
func (h *InventoryHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	parts, err := h.lookup.Search(r.Context(), q)
	if err != nil {
		if errors.Is(err, inventory.ErrQueryTooShort) {
			writeMsg(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, err, partNotFound, "Error searching parts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":   q,
		"count":   len(parts),
		"results": parts,
	})
}

// Part returns a catalog part.
func (h *InventoryHandler) Part(w http.ResponseWriter, r *http.Request) {
	part, err := h.lookup.Part(r.Context(), r.PathValue("partNumber"))
	if err != nil {
		writeServiceError(w, r, err, partNotFound, "Error fetching part details")
		return
	}
	writeJSON(w, http.StatusOK, part)
}

// Stock reports the availability of a catalog part.
func (h *InventoryHandler) Stock(w http.ResponseWriter, r *http.Request) {
	stock, err := h.lookup.Stock(r.Context(), r.PathValue("partNumber"))
	if err != nil {
		writeServiceError(w, r, err, partNotFound, "Error checking stock")
		return
	}
	writeJSON(w, http.StatusOK, stock)
}

// Price reports the list price of a catalog part.
func (h *InventoryHandler) Price(w http.ResponseWriter, r *http.Request) {
	price, err := h.lookup.Price(r.Context(), r.PathValue("partNumber"))
	if err != nil {
		writeServiceError(w, r, err, partNotFound, "Error fetching price")
		return
	}
	writeJSON(w, http.StatusOK, price)
}

// Categories lists the catalog categories.
func (h *InventoryHandler) Categories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.lookup.Categories(r.Context())
	if err != nil {
		writeServiceError(w, r, err, partNotFound, "Error fetching categories")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"categories": cats})
}

// PartsByCategory lists the catalog parts of one category.
func (h *InventoryHandler) PartsByCategory(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	parts, err := h.lookup.PartsByCategory(r.Context(), category)
	if err != nil {
		writeServiceError(w, r, err, partNotFound, "Error fetching parts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"category": category,
		"count":    len(parts),
		"parts":    parts,
	})
}

// Items lists active stored items.
func (h *InventoryHandler) Items(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.Items(r.Context())
	if err != nil {
		writeServiceError(w, r, err, itemNotFound, "Error fetching inventory items")
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ItemByPartNumber returns an active stored item.
func (h *InventoryHandler) ItemByPartNumber(w http.ResponseWriter, r *http.Request) {
	item, err := h.store.ItemByPartNumber(r.Context(), r.PathValue("partNumber"))
	if err != nil {
		writeServiceError(w, r, err, partNotFound, "Error fetching part")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// CreateItem stores a new item.
func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var in inventory.ItemInput
	if err := readJSON(r, &in); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	item, err := h.store.Create(r.Context(), in)
	if err != nil {
		if errors.Is(err, inventory.ErrDuplicatePart) {
			writeMsg(w, http.StatusBadRequest, err.Error())
			return
		}
		writeServiceError(w, r, err, itemNotFound, "Error creating item")
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// UpdateItem applies a partial update to an item.
func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var in inventory.ItemPatch
	if err := readJSON(r, &in); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	item, err := h.store.Update(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err, itemNotFound, "Error updating item")
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem deactivates an item.
func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeServiceError(w, r, err, itemNotFound, "Error deleting item")
		return
	}
	writeMsg(w, http.StatusOK, "Item deleted successfully")
}

// UpdateStock adds to, subtracts from or sets an item's stock.
func (h *InventoryHandler) UpdateStock(w http.ResponseWriter, r *http.Request) {
	var in inventory.StockInput
	if err := readJSON(r, &in); err != nil {
		writeMsg(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	item, err := h.store.AdjustStock(r.Context(), r.PathValue("id"), in)
	if err != nil {
		writeServiceError(w, r, err, itemNotFound, "Error updating stock")
		return
	}
	writeJSON(w, http.StatusOK, item)
}
