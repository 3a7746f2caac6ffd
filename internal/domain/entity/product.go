package entity

import "time"

// Product representa un producto del catálogo. El stock vive en sus lotes (Lot).
type Product struct {
	ID           string
	Name         string
	Barcode      string // único en todo el catálogo
	Presentation string
	Size         string
	Color        string
	Supplier     string
	Registration string // registro sanitario (INVIMA)
	Description  string
	MinStock     int
	HasImage     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProductStock producto con la suma de cantidades de todos sus lotes.
type ProductStock struct {
	Product
	TotalQuantity int
}

// BelowMinStock indica si el total disponible está por debajo del mínimo configurado.
func (p ProductStock) BelowMinStock() bool {
	return p.TotalQuantity < p.MinStock
}
