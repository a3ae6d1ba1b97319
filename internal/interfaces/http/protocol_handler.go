package http

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-protocolos/internal/application/dto"
	app "github.com/jhoicas/Inventario-protocolos/internal/application/protocol"
	"github.com/jhoicas/Inventario-protocolos/internal/domain"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/repository"
)

// ProtocolService operaciones del ledger que expone la API. *protocol.Ledger la implementa.
type ProtocolService interface {
	CreateProtocol(ctx context.Context, protocolType entity.ProtocolType, movements []app.MovementInput, opts app.CreateOptions) (string, error)
	CancelProtocol(ctx context.Context, protocolNumber, cancelledBy string) error
	GetProtocol(ctx context.Context, protocolNumber string) (*entity.ProtocolWithMovements, error)
	ListProtocols(ctx context.Context, filter repository.ProtocolFilter) ([]*entity.Protocol, error)
	GetProtocolsByReference(ctx context.Context, referenceType, referenceID string) ([]*entity.Protocol, error)
}

var _ ProtocolService = (*app.Ledger)(nil)

// ProtocolHandler maneja las peticiones HTTP de protocolos (protegido).
type ProtocolHandler struct {
	ledger ProtocolService
}

// NewProtocolHandler construye el handler.
func NewProtocolHandler(ledger ProtocolService) *ProtocolHandler {
	return &ProtocolHandler{ledger: ledger}
}

// Create godoc
// @Summary      Crear protocolo
// @Tags         protocols
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateProtocolRequest  true  "type, movements[], reference_id, reference_type, notes"
// @Success      201   {object}  dto.ProtocolNumberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.ErrorResponse
// @Router       /api/protocols [post]
func (h *ProtocolHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateProtocolRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	movements := make([]app.MovementInput, 0, len(in.Movements))
	for _, m := range in.Movements {
		movements = append(movements, app.MovementInput{ProductID: m.ProductID, QuantityChanged: m.QuantityChanged})
	}
	number, err := h.ledger.CreateProtocol(c.UserContext(), entity.ProtocolType(in.Type), movements, app.CreateOptions{
		ReferenceID:   in.ReferenceID,
		ReferenceType: in.ReferenceType,
		Notes:         in.Notes,
		CreatedBy:     GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ProtocolNumberResponse{ProtocolNumber: number})
}

// Cancel godoc
// @Summary      Anular protocolo
// @Description  Restaura la cantidad previa de cada producto del protocolo.
// @Tags         protocols
// @Security     Bearer
// @Produce      json
// @Param        number  path  string  true  "Número de protocolo (PRT-AAAA-NNNNNN)"
// @Success      200  {object}  dto.ProtocolNumberResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/protocols/{number}/cancel [post]
func (h *ProtocolHandler) Cancel(c *fiber.Ctx) error {
	number := c.Params("number")
	if err := h.ledger.CancelProtocol(c.UserContext(), number, GetUserID(c)); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProtocolNumberResponse{ProtocolNumber: number})
}

// Get godoc
// @Summary      Obtener protocolo con movimientos
// @Tags         protocols
// @Security     Bearer
// @Produce      json
// @Param        number  path  string  true  "Número de protocolo"
// @Success      200  {object}  dto.ProtocolDetailResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/protocols/{number} [get]
func (h *ProtocolHandler) Get(c *fiber.Ctx) error {
	p, err := h.ledger.GetProtocol(c.UserContext(), c.Params("number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToProtocolDetailResponse(p))
}

// List godoc
// @Summary      Listar protocolos
// @Tags         protocols
// @Security     Bearer
// @Produce      json
// @Param        type        query  string  false  "sale | purchase | adjustment | zero_stock | inventory"
// @Param        status      query  string  false  "active | cancelled"
// @Param        start_date  query  string  false  "RFC3339 o YYYY-MM-DD (inclusive)"
// @Param        end_date    query  string  false  "RFC3339 o YYYY-MM-DD (inclusive)"
// @Param        limit       query  int     false  "Máximo 100, por defecto 20"
// @Param        offset      query  int     false  "Desplazamiento"
// @Success      200  {object}  dto.ProtocolListResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/protocols [get]
func (h *ProtocolHandler) List(c *fiber.Ctx) error {
	var q dto.ProtocolFilterRequest
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "parámetros inválidos"})
	}
	page := q.Page()
	filter, err := toProtocolFilter(q, page)
	if err != nil {
		return writeError(c, err)
	}
	list, err := h.ledger.ListProtocols(c.UserContext(), filter)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ProtocolListResponse{
		Items: dto.ToProtocolResponses(list),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// ListByReference godoc
// @Summary      Protocolos de una entidad externa
// @Tags         protocols
// @Security     Bearer
// @Produce      json
// @Param        type  path  string  true  "Tipo de referencia (ej. sale)"
// @Param        id    path  string  true  "ID de la entidad"
// @Success      200  {array}  dto.ProtocolResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/protocols/by-reference/{type}/{id} [get]
func (h *ProtocolHandler) ListByReference(c *fiber.Ctx) error {
	list, err := h.ledger.GetProtocolsByReference(c.UserContext(), c.Params("type"), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ToProtocolResponses(list))
}

func toProtocolFilter(q dto.ProtocolFilterRequest, page dto.PageRequest) (repository.ProtocolFilter, error) {
	filter := repository.ProtocolFilter{Limit: page.Limit, Offset: page.Offset}
	if q.Type != "" {
		t := entity.ProtocolType(q.Type)
		filter.Type = &t
	}
	if q.Status != "" {
		s := entity.ProtocolStatus(q.Status)
		filter.Status = &s
	}
	var err error
	if filter.StartDate, err = parseDate(q.StartDate, false); err != nil {
		return filter, err
	}
	if filter.EndDate, err = parseDate(q.EndDate, true); err != nil {
		return filter, err
	}
	return filter, nil
}

// parseDate acepta RFC3339 o YYYY-MM-DD. Con endOfDay, una fecha sin hora cubre el día completo.
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("fecha %q: %w", s, domain.ErrInvalidInput)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
