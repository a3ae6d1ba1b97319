package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
)

// MovementRequest cambio de cantidad de un producto.
type MovementRequest struct {
	ProductID       string          `json:"product_id"`
	QuantityChanged decimal.Decimal `json:"quantity_changed"`
}

// CreateProtocolRequest body de POST /api/protocols.
type CreateProtocolRequest struct {
	Type          string            `json:"type"`
	Movements     []MovementRequest `json:"movements"`
	ReferenceID   string            `json:"reference_id,omitempty"`
	ReferenceType string            `json:"reference_type,omitempty"`
	Notes         string            `json:"notes,omitempty"`
}

// ProtocolFilterRequest query params de GET /api/protocols.
// Las fechas aceptan RFC3339 o YYYY-MM-DD.
type ProtocolFilterRequest struct {
	Limit     int    `query:"limit"`
	Offset    int    `query:"offset"`
	Type      string `query:"type"`
	Status    string `query:"status"`
	StartDate string `query:"start_date"`
	EndDate   string `query:"end_date"`
}

// Page devuelve la paginación con valores por defecto aplicados.
func (r ProtocolFilterRequest) Page() PageRequest {
	p := PageRequest{Limit: r.Limit, Offset: r.Offset}
	p.DefaultPage()
	return p
}

// ProtocolNumberResponse respuesta de las operaciones que crean protocolos.
// ProtocolNumber vacío indica que no hubo cambios y no se creó protocolo.
type ProtocolNumberResponse struct {
	ProtocolNumber string `json:"protocol_number"`
}

// ProtocolResponse cabecera del protocolo.
type ProtocolResponse struct {
	ID             string     `json:"id"`
	ProtocolNumber string     `json:"protocol_number"`
	Type           string     `json:"type"`
	Status         string     `json:"status"`
	ReferenceID    string     `json:"reference_id,omitempty"`
	ReferenceType  string     `json:"reference_type,omitempty"`
	Notes          string     `json:"notes,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	CreatedBy      string     `json:"created_by,omitempty"`
	CancelledAt    *time.Time `json:"cancelled_at,omitempty"`
	CancelledBy    string     `json:"cancelled_by,omitempty"`
}

// ProtocolMovementResponse movimiento con antes/después.
type ProtocolMovementResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	Position        int             `json:"position"`
	QuantityBefore  decimal.Decimal `json:"quantity_before"`
	QuantityAfter   decimal.Decimal `json:"quantity_after"`
	QuantityChanged decimal.Decimal `json:"quantity_changed"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ProtocolDetailResponse protocolo con sus movimientos.
type ProtocolDetailResponse struct {
	ProtocolResponse
	Movements []ProtocolMovementResponse `json:"movements"`
}

// ProtocolListResponse listado paginado.
type ProtocolListResponse struct {
	Items []ProtocolResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// ToProtocolResponse mapea la entidad a DTO.
func ToProtocolResponse(p *entity.Protocol) ProtocolResponse {
	return ProtocolResponse{
		ID:             p.ID,
		ProtocolNumber: p.ProtocolNumber,
		Type:           string(p.Type),
		Status:         string(p.Status),
		ReferenceID:    p.ReferenceID,
		ReferenceType:  p.ReferenceType,
		Notes:          p.Notes,
		CreatedAt:      p.CreatedAt,
		CreatedBy:      p.CreatedBy,
		CancelledAt:    p.CancelledAt,
		CancelledBy:    p.CancelledBy,
	}
}

// ToProtocolResponses mapea un listado; nunca devuelve nil.
func ToProtocolResponses(list []*entity.Protocol) []ProtocolResponse {
	out := make([]ProtocolResponse, 0, len(list))
	for _, p := range list {
		out = append(out, ToProtocolResponse(p))
	}
	return out
}

// ToProtocolDetailResponse mapea el protocolo con movimientos.
func ToProtocolDetailResponse(p *entity.ProtocolWithMovements) ProtocolDetailResponse {
	out := ProtocolDetailResponse{
		ProtocolResponse: ToProtocolResponse(&p.Protocol),
		Movements:        make([]ProtocolMovementResponse, 0, len(p.Movements)),
	}
	for _, m := range p.Movements {
		out.Movements = append(out.Movements, ProtocolMovementResponse{
			ID:              m.ID,
			ProductID:       m.ProductID,
			Position:        m.Position,
			QuantityBefore:  m.QuantityBefore,
			QuantityAfter:   m.QuantityAfter,
			QuantityChanged: m.QuantityChanged,
			CreatedAt:       m.CreatedAt,
		})
	}
	return out
}
