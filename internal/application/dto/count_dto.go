package dto

// StartCountResponse sesión de conteo nueva.
type StartCountResponse struct {
	SessionID string `json:"session_id"`
}

// TallyRequest códigos escaneados "barcode | lote | AAAA-MM-DD".
type TallyRequest struct {
	Codes []string `json:"codes" validate:"required,min=1"`
}

// TallyEntryResponse cantidad acumulada de un código.
type TallyEntryResponse struct {
	Code      string `json:"code"`
	Barcode   string `json:"barcode"`
	LotNumber string `json:"lot_number"`
	Expiry    string `json:"expiry,omitempty"`
	Count     int    `json:"count"`
}

// CountStatusResponse estado de una sesión de conteo.
type CountStatusResponse struct {
	SessionID string               `json:"session_id"`
	State     string               `json:"state"`
	Keys      int                  `json:"keys"`
	Tally     []TallyEntryResponse `json:"tally,omitempty"`
}

// DiscrepancyDTO diferencia entre lo escaneado y lo persistido. Se usa también como entrada de apply.
type DiscrepancyDTO struct {
	Code      string `json:"code"`
	Barcode   string `json:"barcode"`
	LotNumber string `json:"lot_number"`
	Expiry    string `json:"expiry,omitempty"`
	Persisted int    `json:"persisted"`
	Scanned   int    `json:"scanned"`
	Delta     int    `json:"delta"`
}

// FinalizeResponse reporte de diferencias; la sesión queda vacía.
type FinalizeResponse struct {
	SessionID     string           `json:"session_id"`
	Discrepancies []DiscrepancyDTO `json:"discrepancies"`
}

// ApplyCountRequest diferencias a aplicar (normalmente las de FinalizeResponse).
type ApplyCountRequest struct {
	Discrepancies []DiscrepancyDTO `json:"discrepancies" validate:"required,min=1"`
}

// ApplyCountResponse resultado de aplicar un conteo.
type ApplyCountResponse struct {
	Updated  int      `json:"updated"`
	Created  int      `json:"created"`
	Skipped  int      `json:"skipped"`
	Warnings []string `json:"warnings"`
}
