package remision

import (
	"context"

	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Las reservas, devoluciones y confirmaciones del carrito son todo o nada.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		lotRepo repository.LotRepository,
		cartRepo repository.CartRepository,
		shipmentRepo repository.ShipmentRepository,
	) error) error
}

// ShipmentPDFGenerator puerto de salida para el documento de la remisión.
type ShipmentPDFGenerator interface {
	GenerateShipmentPDF(ctx context.Context, doc *ShipmentDocument) ([]byte, error)
}

// ShipmentDocument datos que necesita el generador de PDF.
type ShipmentDocument struct {
	Shipment *entity.Shipment
	Lines    []*entity.ShipmentLine
}
