package entity

import "time"

// Shipment es una remisión: se crea vacía al confirmar el carrito, sus líneas se escriben
// una sola vez y después recibe las firmas de entrega y de recibido en cualquier orden.
type Shipment struct {
	ID                string
	Number            int64 // consecutivo visible ("Remisión No.")
	CreatedBy         string
	CreatedAt         time.Time
	DeliveredBy       *string
	DeliveredAt       *time.Time
	ReceivedBy        *string
	ReceivedAt        *time.Time
	DeliverySignature []byte // solo se carga en GetByID
	ReceiptSignature  []byte

	HasDeliverySignature bool
	HasReceiptSignature  bool

	// Solo lectura (join con operators).
	CreatedByName   string
	DeliveredByName string
	ReceivedByName  string
}

// PendingReceipt indica si aún falta la firma de recibido.
func (s *Shipment) PendingReceipt() bool {
	return s.ReceivedBy == nil || !s.HasReceiptSignature
}

// ShipmentLine línea de detalle de una remisión (producto, lote, cantidad).
type ShipmentLine struct {
	ID         string
	ShipmentID string
	ProductID  string
	LotNumber  string
	Quantity   int

	// Solo lectura (join con products).
	ProductName string
	Barcode     string
}
