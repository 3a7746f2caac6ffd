package dto

import "time"

// ReserveRequest body para POST /api/cart.
type ReserveRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// ReserveResponse entradas de carrito creadas, una por lote tomado.
type ReserveResponse struct {
	EntryIDs []string                 `json:"entry_ids"`
	Lines    []AllocationLineResponse `json:"lines"`
}

// CartEntryResponse entrada del carrito con datos del producto.
type CartEntryResponse struct {
	ID          string `json:"id"`
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Barcode     string `json:"barcode"`
	LotNumber   string `json:"lot_number"`
	Quantity    int    `json:"quantity"`
}

// CartResponse carrito del operario.
type CartResponse struct {
	Items         []CartEntryResponse `json:"items"`
	TotalQuantity int                 `json:"total_quantity"`
}

// ConfirmResponse remisión creada al confirmar el carrito.
type ConfirmResponse struct {
	ShipmentID string `json:"shipment_id"`
	Number     int64  `json:"number"`
	Lines      int    `json:"lines"`
}

// SignatureRequest imagen de firma en base64 (acepta prefijo data:image/...;base64,).
type SignatureRequest struct {
	Signature string `json:"signature" validate:"required"`
}

// ShipmentLineResponse línea de una remisión.
type ShipmentLineResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Barcode     string `json:"barcode"`
	LotNumber   string `json:"lot_number"`
	Quantity    int    `json:"quantity"`
}

// ShipmentResponse salida de una remisión.
type ShipmentResponse struct {
	ID                   string                 `json:"id"`
	Number               int64                  `json:"number"`
	CreatedBy            string                 `json:"created_by"`
	CreatedByName        string                 `json:"created_by_name"`
	CreatedAt            time.Time              `json:"created_at"`
	DeliveredByName      string                 `json:"delivered_by_name,omitempty"`
	DeliveredAt          *time.Time             `json:"delivered_at,omitempty"`
	ReceivedByName       string                 `json:"received_by_name,omitempty"`
	ReceivedAt           *time.Time             `json:"received_at,omitempty"`
	HasDeliverySignature bool                   `json:"has_delivery_signature"`
	HasReceiptSignature  bool                   `json:"has_receipt_signature"`
	Lines                []ShipmentLineResponse `json:"lines,omitempty"`
}

// ShipmentListResponse lista paginada de remisiones.
type ShipmentListResponse struct {
	Items []ShipmentResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}
