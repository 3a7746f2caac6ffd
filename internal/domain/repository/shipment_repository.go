package repository

import (
	"context"

	"github.com/jhoicas/lotes-remision/internal/domain/entity"
)

// ShipmentRepository define el puerto de persistencia para remisiones.
type ShipmentRepository interface {
	// Create asigna Number y CreatedAt desde la BD.
	Create(ctx context.Context, s *entity.Shipment) error
	AddLine(ctx context.Context, line *entity.ShipmentLine) error
	// GetByID incluye las imágenes de firma. (nil, nil) si no existe.
	GetByID(ctx context.Context, id string) (*entity.Shipment, error)
	Lines(ctx context.Context, shipmentID string) ([]*entity.ShipmentLine, error)
	// List remisiones más recientes primero; createdBy vacío = todas.
	List(ctx context.Context, createdBy string, limit, offset int) ([]*entity.Shipment, error)
	// CountPendingSignatures remisiones del operario sin firma de recibido.
	CountPendingSignatures(ctx context.Context, operatorID string) (int, error)
	// SignDelivery / SignReceipt devuelven domain.ErrNotFound si la remisión no existe.
	SignDelivery(ctx context.Context, id, operatorID string, signature []byte) error
	SignReceipt(ctx context.Context, id, operatorID string, signature []byte) error
}
