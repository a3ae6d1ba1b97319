package protocol

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Inventario-protocolos/internal/domain"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
	"github.com/jhoicas/Inventario-protocolos/internal/domain/repository"
	"github.com/jhoicas/Inventario-protocolos/pkg/logger"
)

// ReferenceTypeSale tipo de referencia que usan los protocolos de venta.
const ReferenceTypeSale = "sale"

// ReferenceTypePurchase tipo de referencia de las recepciones de compra.
const ReferenceTypePurchase = "purchase"

// ProtocolCreator es lo que los flujos de stock necesitan del ledger.
type ProtocolCreator interface {
	CreateProtocol(ctx context.Context, protocolType entity.ProtocolType, movements []MovementInput, opts CreateOptions) (string, error)
}

// StockFlows agrupa las operaciones de negocio que afectan stock. Todas calculan el delta por
// producto y delegan en el ledger; ninguna escribe cantidades por su cuenta.
// Un error del ledger significa que la operación de stock no ocurrió.
type StockFlows struct {
	ledger      ProtocolCreator
	productRepo repository.ProductRepository
	log         *logger.Logger
}

// NewStockFlows construye los flujos. productRepo se usa solo para leer cantidades actuales.
func NewStockFlows(ledger ProtocolCreator, productRepo repository.ProductRepository, log *logger.Logger) *StockFlows {
	if log == nil {
		log = logger.Nop()
	}
	return &StockFlows{ledger: ledger, productRepo: productRepo, log: log.Component("stock_flows")}
}

// SaleLine línea vendida; Quantity es la cantidad vendida (positiva).
type SaleLine struct {
	ProductID string
	Quantity  decimal.Decimal
}

// RegisterSale descuenta el stock de una venta: un movimiento negativo por línea.
func (f *StockFlows) RegisterSale(ctx context.Context, saleID string, lines []SaleLine, userID string) (string, error) {
	if strings.TrimSpace(saleID) == "" || len(lines) == 0 {
		return "", fmt.Errorf("venta sin id o sin líneas: %w", domain.ErrInvalidInput)
	}
	movements := make([]MovementInput, 0, len(lines))
	for _, line := range lines {
		if !line.Quantity.IsPositive() {
			return "", fmt.Errorf("cantidad vendida debe ser positiva (producto %s): %w", line.ProductID, domain.ErrInvalidInput)
		}
		movements = append(movements, MovementInput{ProductID: line.ProductID, QuantityChanged: line.Quantity.Neg()})
	}
	return f.ledger.CreateProtocol(ctx, entity.ProtocolTypeSale, movements, CreateOptions{
		ReferenceID:   saleID,
		ReferenceType: ReferenceTypeSale,
		Notes:         "Venta " + saleID,
		CreatedBy:     userID,
	})
}

// PurchaseInput recepción de mercadería de un producto.
type PurchaseInput struct {
	ProductID   string
	Quantity    decimal.Decimal
	ReferenceID string // documento de compra, opcional
	Notes       string
}

// ReceivePurchase suma stock recibido: un movimiento positivo.
func (f *StockFlows) ReceivePurchase(ctx context.Context, in PurchaseInput, userID string) (string, error) {
	if !in.Quantity.IsPositive() {
		return "", fmt.Errorf("cantidad recibida debe ser positiva: %w", domain.ErrInvalidInput)
	}
	opts := CreateOptions{Notes: in.Notes, CreatedBy: userID}
	if in.ReferenceID != "" {
		opts.ReferenceID = in.ReferenceID
		opts.ReferenceType = ReferenceTypePurchase
	}
	return f.ledger.CreateProtocol(ctx, entity.ProtocolTypePurchase, []MovementInput{
		{ProductID: in.ProductID, QuantityChanged: in.Quantity},
	}, opts)
}

// AdjustStock lleva un producto a la cantidad indicada por el operador.
// Si ya tiene esa cantidad no se crea protocolo y se devuelve "".
func (f *StockFlows) AdjustStock(ctx context.Context, productID string, target decimal.Decimal, notes, userID string) (string, error) {
	if target.IsNegative() {
		return "", fmt.Errorf("cantidad objetivo negativa: %w", domain.ErrInvalidInput)
	}
	product, err := f.currentProduct(ctx, productID)
	if err != nil {
		return "", err
	}
	delta := target.Sub(product.Quantity)
	if delta.IsZero() {
		f.log.Debug().Str("product_id", productID).Msg("ajuste sin diferencia, no se crea protocolo")
		return "", nil
	}
	return f.ledger.CreateProtocol(ctx, entity.ProtocolTypeAdjustment, []MovementInput{
		{ProductID: productID, QuantityChanged: delta},
	}, CreateOptions{Notes: notes, CreatedBy: userID})
}

// ZeroStock lleva a cero todos los productos con stock positivo (de una categoría o de todas).
// Sin productos con stock no se crea protocolo y se devuelve "".
func (f *StockFlows) ZeroStock(ctx context.Context, categoryID, userID string) (string, error) {
	products, err := f.productRepo.ListStocked(ctx, categoryID)
	if err != nil {
		return "", fmt.Errorf("listar productos con stock: %w: %w", domain.ErrTransactionFailure, err)
	}
	if len(products) == 0 {
		f.log.Debug().Str("category_id", categoryID).Msg("sin productos con stock, no se crea protocolo")
		return "", nil
	}
	movements := make([]MovementInput, 0, len(products))
	for _, p := range products {
		movements = append(movements, MovementInput{ProductID: p.ID, QuantityChanged: p.Quantity.Neg()})
	}
	notes := "Stock a cero"
	if categoryID != "" {
		notes = "Stock a cero categoría " + categoryID
	}
	return f.ledger.CreateProtocol(ctx, entity.ProtocolTypeZeroStock, movements, CreateOptions{Notes: notes, CreatedBy: userID})
}

// CountLine cantidad contada físicamente de un producto.
type CountLine struct {
	ProductID       string
	CountedQuantity decimal.Decimal
}

// RecountInventory registra un conteo físico: un movimiento por cada producto cuya cantidad
// contada difiere de la registrada. Si no hay diferencias se devuelve "".
// Cada producto puede aparecer una sola vez en el conteo.
func (f *StockFlows) RecountInventory(ctx context.Context, counts []CountLine, notes, userID string) (string, error) {
	if len(counts) == 0 {
		return "", fmt.Errorf("conteo vacío: %w", domain.ErrInvalidInput)
	}
	seen := make(map[string]struct{}, len(counts))
	movements := make([]MovementInput, 0, len(counts))
	for _, c := range counts {
		if c.CountedQuantity.IsNegative() {
			return "", fmt.Errorf("cantidad contada negativa (producto %s): %w", c.ProductID, domain.ErrInvalidInput)
		}
		if _, dup := seen[c.ProductID]; dup {
			return "", fmt.Errorf("producto %s contado dos veces: %w", c.ProductID, domain.ErrInvalidInput)
		}
		seen[c.ProductID] = struct{}{}
		product, err := f.currentProduct(ctx, c.ProductID)
		if err != nil {
			return "", err
		}
		if delta := c.CountedQuantity.Sub(product.Quantity); !delta.IsZero() {
			movements = append(movements, MovementInput{ProductID: c.ProductID, QuantityChanged: delta})
		}
	}
	if len(movements) == 0 {
		f.log.Debug().Int("products", len(counts)).Msg("conteo sin diferencias, no se crea protocolo")
		return "", nil
	}
	return f.ledger.CreateProtocol(ctx, entity.ProtocolTypeInventory, movements, CreateOptions{Notes: notes, CreatedBy: userID})
}

func (f *StockFlows) currentProduct(ctx context.Context, productID string) (*entity.Product, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, fmt.Errorf("producto vacío: %w", domain.ErrInvalidInput)
	}
	product, err := f.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("leer producto %s: %w: %w", productID, domain.ErrTransactionFailure, err)
	}
	if product == nil {
		return nil, fmt.Errorf("producto %s: %w", productID, domain.ErrNotFound)
	}
	return product, nil
}
