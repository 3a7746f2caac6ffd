package dto

import "time"

// AddLotRequest body para POST /api/lots. ExpiryDate en formato AAAA-MM-DD (opcional).
type AddLotRequest struct {
	ProductID  string `json:"product_id" validate:"required"`
	LotNumber  string `json:"lot_number" validate:"required"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
	ExpiryDate string `json:"expiry_date,omitempty"`
}

// SetLotQuantityRequest body para PUT /api/lots/:id.
type SetLotQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,min=0"`
}

// LotResponse salida de un lote.
type LotResponse struct {
	ID         string     `json:"id"`
	ProductID  string     `json:"product_id"`
	LotNumber  string     `json:"lot_number"`
	Quantity   int        `json:"quantity"`
	ExpiryDate *time.Time `json:"expiry_date,omitempty"`
	IngestedAt time.Time  `json:"ingested_at"`
}

// AddLotResponse resultado de registrar un ingreso de lote.
type AddLotResponse struct {
	Lot     LotResponse `json:"lot"`
	Existed bool        `json:"existed"` // true = se sumó a un lote existente
}
