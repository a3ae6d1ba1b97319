package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
)

// ProductResponse cantidad actual de un producto.
type ProductResponse struct {
	ID         string          `json:"id"`
	CategoryID string          `json:"category_id,omitempty"`
	SKU        string          `json:"sku"`
	Name       string          `json:"name"`
	Quantity   decimal.Decimal `json:"quantity"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ToProductResponse mapea la entidad a DTO.
func ToProductResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:         p.ID,
		CategoryID: p.CategoryID,
		SKU:        p.SKU,
		Name:       p.Name,
		Quantity:   p.Quantity,
		UpdatedAt:  p.UpdatedAt,
	}
}
