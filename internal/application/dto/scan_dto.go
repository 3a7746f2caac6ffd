package dto

// DecodeResponse códigos leídos de una imagen.
type DecodeResponse struct {
	Codes []DecodedCode `json:"codes"`
}

// DecodedCode texto y simbología de un código leído.
type DecodedCode struct {
	Text   string `json:"text"`
	Format string `json:"format"`
}

// IncrementRequest body para POST /api/scan/increment.
type IncrementRequest struct {
	Barcode string `json:"barcode" validate:"required"`
}

// IncrementResponse lote que recibió la unidad.
type IncrementResponse struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	LotID       string `json:"lot_id"`
	LotNumber   string `json:"lot_number"`
	Quantity    int    `json:"quantity"`
}
