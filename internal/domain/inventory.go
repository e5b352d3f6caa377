package domain

import (
	"time"
)

type InventoryItem struct {
	ID          int64      `json:"id"`
	ClinicID    int64      `json:"clinic_id"`
	Name        string     `json:"name"`
	SKU         *string    `json:"sku,omitempty"`
	Unit        string     `json:"unit"`
	Quantity    int        `json:"quantity"`
	MinQuantity int        `json:"min_quantity"`
	UnitCost    *float64   `json:"unit_cost,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (i *InventoryItem) LowStock() bool {
	return i.Quantity <= i.MinQuantity
}

type CreateInventoryItemDTO struct {
	Name        string     `json:"name" binding:"required"`
	SKU         *string    `json:"sku"`
	Unit        string     `json:"unit" binding:"required"`
	Quantity    int        `json:"quantity" binding:"gte=0"`
	MinQuantity int        `json:"min_quantity" binding:"gte=0"`
	UnitCost    *float64   `json:"unit_cost" binding:"omitempty,gte=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type UpdateInventoryItemDTO struct {
	Name        *string    `json:"name"`
	SKU         *string    `json:"sku"`
	Unit        *string    `json:"unit"`
	MinQuantity *int       `json:"min_quantity" binding:"omitempty,gte=0"`
	UnitCost    *float64   `json:"unit_cost" binding:"omitempty,gte=0"`
	ExpiresAt   *time.Time `json:"expires_at"`
}

type AdjustStockDTO struct {
	Delta  int    `json:"delta" binding:"required"`
	Reason string `json:"reason"`
}

type InventoryFilter struct {
	ClinicID     int64 `json:"clinic_id"`
	LowStockOnly bool  `json:"low_stock_only"`
	Limit        int   `json:"limit"`
	Offset       int   `json:"offset"`
}
