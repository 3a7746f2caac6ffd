package dto

import "time"

// CreateProductRequest entrada para crear un producto.
type CreateProductRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=200"`
	Barcode      string `json:"barcode" validate:"required,min=1,max=100"`
	Presentation string `json:"presentation" validate:"required"`
	Size         string `json:"size" validate:"required"`
	Color        string `json:"color" validate:"required"`
	Registration string `json:"registration" validate:"required"`
	Supplier     string `json:"supplier" validate:"required"`
	MinStock     *int   `json:"min_stock" validate:"required,min=0"`
	Description  string `json:"description"`
}

// UpdateProductRequest entrada para actualizar un producto; solo se cambian los campos presentes.
type UpdateProductRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=200"`
	Barcode      *string `json:"barcode" validate:"omitempty,min=1,max=100"`
	Presentation *string `json:"presentation"`
	Size         *string `json:"size"`
	Color        *string `json:"color"`
	Registration *string `json:"registration"`
	Supplier     *string `json:"supplier"`
	MinStock     *int    `json:"min_stock" validate:"omitempty,min=0"`
	Description  *string `json:"description"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Barcode       string    `json:"barcode"`
	Presentation  string    `json:"presentation"`
	Size          string    `json:"size"`
	Color         string    `json:"color"`
	Registration  string    `json:"registration"`
	Supplier      string    `json:"supplier"`
	Description   string    `json:"description"`
	MinStock      int       `json:"min_stock"`
	HasImage      bool      `json:"has_image"`
	TotalQuantity *int      `json:"total_quantity,omitempty"`
	BelowMinStock *bool     `json:"below_min_stock,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ProductListResponse lista de productos con su stock total.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Total int               `json:"total"`
}

// AllocationLineResponse cantidad a tomar de un lote.
type AllocationLineResponse struct {
	LotNumber string `json:"lot_number"`
	Quantity  int    `json:"quantity"`
}

// AllocationResponse vista previa FEFO de una solicitud.
type AllocationResponse struct {
	ProductID string                   `json:"product_id"`
	Requested int                      `json:"requested"`
	Lines     []AllocationLineResponse `json:"lines"`
	Shortfall int                      `json:"shortfall"`
}
