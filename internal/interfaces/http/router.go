package http

import (
	nethttp "net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

// Roles con permiso para operaciones que revierten o vacían stock.
const (
	RoleAdmin     = "admin"
	RoleBodeguero = "bodeguero"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      ProtocolService
	Flows       StockService
	Products    ProductReader
	JWTSecret   string
	ServiceName string
	// MetricsHandler se monta en MetricsPath si no es nil.
	MetricsHandler nethttp.Handler
	MetricsPath    string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})
	if deps.MetricsHandler != nil {
		path := deps.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(deps.MetricsHandler))
	}

	// Rutas protegidas (requieren Bearer Token)
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	supervisors := RequireRole(RoleAdmin, RoleBodeguero)

	protocols := api.Group("/protocols")
	protocolHandler := NewProtocolHandler(deps.Ledger)
	protocols.Post("/", protocolHandler.Create)
	protocols.Get("/", protocolHandler.List)
	protocols.Get("/by-reference/:type/:id", protocolHandler.ListByReference)
	protocols.Get("/:number", protocolHandler.Get)
	protocols.Post("/:number/cancel", supervisors, protocolHandler.Cancel)

	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Flows)
	stock.Post("/sales", stockHandler.RegisterSale)
	stock.Post("/purchases", stockHandler.ReceivePurchase)
	stock.Post("/adjustments", stockHandler.Adjust)
	stock.Post("/zero", supervisors, stockHandler.ZeroStock)
	stock.Post("/inventory", stockHandler.RecountInventory)

	if deps.Products != nil {
		products := api.Group("/products")
		productHandler := NewProductHandler(deps.Products)
		products.Get("/", productHandler.ListStocked)
		products.Get("/:id", productHandler.GetByID)
	}
}
