package protocol

import (
	"context"

	"github.com/jhoicas/Inventario-protocolos/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback completo: ningún protocolo parcial queda visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		protocolRepo repository.ProtocolRepository,
		counterRepo repository.ProtocolCounterRepository,
		productRepo repository.ProductRepository,
		movRepo repository.StockMovementRepository,
	) error) error
}

// Recorder recibe los eventos del ledger para métricas. *metrics.Metrics lo implementa.
type Recorder interface {
	ProtocolCreated(protocolType string, movements int)
	ProtocolCancelled(protocolType string)
	OperationFailed(operation, kind string)
}

type nopRecorder struct{}

func (nopRecorder) ProtocolCreated(string, int)    {}
func (nopRecorder) ProtocolCancelled(string)       {}
func (nopRecorder) OperationFailed(string, string) {}
