package dto

import "github.com/shopspring/decimal"

// SaleLineRequest línea vendida.
type SaleLineRequest struct {
	ProductID string          `json:"product_id"`
	Quantity  decimal.Decimal `json:"quantity"`
}

// RegisterSaleRequest body de POST /api/stock/sales.
type RegisterSaleRequest struct {
	SaleID string            `json:"sale_id"`
	Lines  []SaleLineRequest `json:"lines"`
}

// ReceivePurchaseRequest body de POST /api/stock/purchases.
type ReceivePurchaseRequest struct {
	ProductID   string          `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Notes       string          `json:"notes,omitempty"`
}

// AdjustStockRequest body de POST /api/stock/adjustments.
type AdjustStockRequest struct {
	ProductID      string          `json:"product_id"`
	TargetQuantity decimal.Decimal `json:"target_quantity"`
	Notes          string          `json:"notes,omitempty"`
}

// ZeroStockRequest body de POST /api/stock/zero. CategoryID vacío = todas las categorías.
type ZeroStockRequest struct {
	CategoryID string `json:"category_id,omitempty"`
}

// CountLineRequest cantidad contada de un producto.
type CountLineRequest struct {
	ProductID       string          `json:"product_id"`
	CountedQuantity decimal.Decimal `json:"counted_quantity"`
}

// RecountInventoryRequest body de POST /api/stock/inventory.
type RecountInventoryRequest struct {
	Counts []CountLineRequest `json:"counts"`
	Notes  string             `json:"notes,omitempty"`
}
