package repository

import (
	"context"

	"github.com/jhoicas/lotes-remision/internal/domain/entity"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	GetByBarcode(ctx context.Context, barcode string) (*entity.Product, error)
	Update(ctx context.Context, product *entity.Product) error
	// UpdateImage guarda la imagen tal cual llega; contentType ya viene detectado.
	UpdateImage(ctx context.Context, id string, data []byte, contentType string) error
	// GetImage devuelve (nil, "", nil) si el producto no tiene imagen.
	GetImage(ctx context.Context, id string) ([]byte, string, error)
	// List productos con la suma de cantidades de sus lotes, ordenados por nombre.
	List(ctx context.Context) ([]*entity.ProductStock, error)
	ListBelowMinStock(ctx context.Context) ([]*entity.ProductStock, error)
	// Delete devuelve domain.ErrConflict si el producto tiene lotes o remisiones.
	Delete(ctx context.Context, id string) error
}
