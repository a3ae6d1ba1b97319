package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-protocolos/internal/application/dto"
	app "github.com/jhoicas/Inventario-protocolos/internal/application/protocol"
)

// StockService flujos de negocio que modifican stock. *protocol.StockFlows la implementa.
type StockService interface {
	RegisterSale(ctx context.Context, saleID string, lines []app.SaleLine, userID string) (string, error)
	ReceivePurchase(ctx context.Context, in app.PurchaseInput, userID string) (string, error)
	AdjustStock(ctx context.Context, productID string, target decimal.Decimal, notes, userID string) (string, error)
	ZeroStock(ctx context.Context, categoryID, userID string) (string, error)
	RecountInventory(ctx context.Context, counts []app.CountLine, notes, userID string) (string, error)
}

var _ StockService = (*app.StockFlows)(nil)

// StockHandler maneja los flujos de stock (protegido).
type StockHandler struct {
	flows StockService
}

// NewStockHandler construye el handler.
func NewStockHandler(flows StockService) *StockHandler {
	return &StockHandler{flows: flows}
}

// RegisterSale godoc
// @Summary      Descontar stock de una venta
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterSaleRequest  true  "sale_id y líneas vendidas"
// @Success      201   {object}  dto.ProtocolNumberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/sales [post]
func (h *StockHandler) RegisterSale(c *fiber.Ctx) error {
	var in dto.RegisterSaleRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	lines := make([]app.SaleLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		lines = append(lines, app.SaleLine{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	number, err := h.flows.RegisterSale(c.UserContext(), in.SaleID, lines, GetUserID(c))
	return respondNumber(c, number, err)
}

// ReceivePurchase godoc
// @Summary      Recepción de compra
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceivePurchaseRequest  true  "product_id, quantity, reference_id"
// @Success      201   {object}  dto.ProtocolNumberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/purchases [post]
func (h *StockHandler) ReceivePurchase(c *fiber.Ctx) error {
	var in dto.ReceivePurchaseRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	number, err := h.flows.ReceivePurchase(c.UserContext(), app.PurchaseInput{
		ProductID:   in.ProductID,
		Quantity:    in.Quantity,
		ReferenceID: in.ReferenceID,
		Notes:       in.Notes,
	}, GetUserID(c))
	return respondNumber(c, number, err)
}

// Adjust godoc
// @Summary      Ajustar stock a una cantidad
// @Description  Sin diferencia no se crea protocolo (200 con protocol_number vacío).
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustStockRequest  true  "product_id, target_quantity, notes"
// @Success      200   {object}  dto.ProtocolNumberResponse
// @Success      201   {object}  dto.ProtocolNumberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/adjustments [post]
func (h *StockHandler) Adjust(c *fiber.Ctx) error {
	var in dto.AdjustStockRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	number, err := h.flows.AdjustStock(c.UserContext(), in.ProductID, in.TargetQuantity, in.Notes, GetUserID(c))
	return respondNumber(c, number, err)
}

// ZeroStock godoc
// @Summary      Llevar stock a cero
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ZeroStockRequest  false  "category_id opcional"
// @Success      200   {object}  dto.ProtocolNumberResponse
// @Success      201   {object}  dto.ProtocolNumberResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Router       /api/stock/zero [post]
func (h *StockHandler) ZeroStock(c *fiber.Ctx) error {
	var in dto.ZeroStockRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	number, err := h.flows.ZeroStock(c.UserContext(), in.CategoryID, GetUserID(c))
	return respondNumber(c, number, err)
}

// RecountInventory godoc
// @Summary      Registrar conteo físico
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RecountInventoryRequest  true  "counts[] y notes"
// @Success      200   {object}  dto.ProtocolNumberResponse
// @Success      201   {object}  dto.ProtocolNumberResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/inventory [post]
func (h *StockHandler) RecountInventory(c *fiber.Ctx) error {
	var in dto.RecountInventoryRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	counts := make([]app.CountLine, 0, len(in.Counts))
	for _, l := range in.Counts {
		counts = append(counts, app.CountLine{ProductID: l.ProductID, CountedQuantity: l.CountedQuantity})
	}
	number, err := h.flows.RecountInventory(c.UserContext(), counts, in.Notes, GetUserID(c))
	return respondNumber(c, number, err)
}

// respondNumber 201 si se creó protocolo, 200 si no hubo cambios.
func respondNumber(c *fiber.Ctx, number string, err error) error {
	if err != nil {
		return writeError(c, err)
	}
	status := fiber.StatusCreated
	if number == "" {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(dto.ProtocolNumberResponse{ProtocolNumber: number})
}
