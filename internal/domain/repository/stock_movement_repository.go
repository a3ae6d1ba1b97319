package repository

import (
	"context"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/entity"
)

// StockMovementRepository puerto del diario de movimientos. Solo escritura desde el ledger.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
}
