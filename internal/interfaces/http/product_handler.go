package http

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Inventario-protocolos/internal/application/dto"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
)

// ProductReader lectura de cantidades actuales. repository.ProductRepository la cumple.
type ProductReader interface {
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	ListStocked(ctx context.Context, categoryID string) ([]*entity.Product, error)
}

// ProductHandler consulta de stock (solo lectura; las cantidades cambian vía protocolos).
type ProductHandler struct {
	products ProductReader
}

// NewProductHandler construye el handler.
func NewProductHandler(products ProductReader) *ProductHandler {
	return &ProductHandler{products: products}
}

// GetByID godoc
// @Summary      Cantidad actual de un producto
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        id   path      string  true  "ID del producto"
// @Success      200  {object}  dto.ProductResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "MISSING_ID", Message: "id es requerido"})
	}
	p, err := h.products.GetByID(c.UserContext(), id)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo leer el producto"})
	}
	if p == nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "producto no encontrado"})
	}
	return c.JSON(dto.ToProductResponse(p))
}

// ListStocked godoc
// @Summary      Productos con stock positivo
// @Tags         products
// @Security     Bearer
// @Produce      json
// @Param        category_id  query  string  false  "Filtrar por categoría"
// @Success      200  {array}  dto.ProductResponse
// @Router       /api/products [get]
func (h *ProductHandler) ListStocked(c *fiber.Ctx) error {
	list, err := h.products.ListStocked(c.UserContext(), c.Query("category_id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "no se pudo listar productos"})
	}
	out := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		out = append(out, dto.ToProductResponse(p))
	}
	return c.JSON(out)
}
