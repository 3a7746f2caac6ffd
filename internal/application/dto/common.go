package dto

// Límites de paginación de remisiones.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest ventana de un listado paginado (query ?limit=&offset=).
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// Normalize acota Limit a [1, MaxPageSize] (cero o negativo = DefaultPageSize) y Offset a >= 0.
func (p PageRequest) Normalize() PageRequest {
	switch {
	case p.Limit <= 0:
		p.Limit = DefaultPageSize
	case p.Limit > MaxPageSize:
		p.Limit = MaxPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// PageResponse ventana efectivamente aplicada; HasMore si la página vino llena.
type PageResponse struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ErrorResponse cuerpo de error de la API: Code estable para el cliente, Message legible.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
