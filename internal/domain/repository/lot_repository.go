package repository

import (
	"context"
	"time"

	"github.com/jhoicas/lotes-remision/internal/domain/count"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
)

// LotRepository define el puerto de persistencia para lotes.
type LotRepository interface {
	// ListAvailableForUpdate lotes con cantidad > 0 del producto, bloqueados hasta el fin de la tx.
	ListAvailableForUpdate(ctx context.Context, productID string) ([]*entity.Lot, error)
	// ListByProduct todos los lotes del producto en orden de consumo.
	ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error)
	GetByID(ctx context.Context, id string) (*entity.Lot, error)
	// GetForUpdate busca por (producto, lote) y bloquea la fila. (nil, nil) si no existe.
	GetForUpdate(ctx context.Context, productID, lotNumber string) (*entity.Lot, error)
	Create(ctx context.Context, lot *entity.Lot) error
	// AddQuantity suma qty al lote (producto, lote); si no existe lo crea con expiry.
	// Devuelve true si el lote ya existía.
	AddQuantity(ctx context.Context, productID, lotNumber string, qty int, expiry *time.Time) (bool, error)
	// Decrement resta qty solo si el lote tiene al menos qty; si no, domain.ErrInsufficientStock.
	Decrement(ctx context.Context, productID, lotNumber string, qty int) error
	SetQuantity(ctx context.Context, id string, qty int) error
	Delete(ctx context.Context, id string) error
	// QuantitiesByRefs cantidades persistidas por (barcode, lote). Los lotes ausentes no aparecen.
	QuantitiesByRefs(ctx context.Context, refs []count.LotRef) (map[count.LotRef]int, error)
	// LatestIngestedForUpdate lote de ingreso más reciente del producto, bloqueado. (nil, nil) si no hay.
	LatestIngestedForUpdate(ctx context.Context, productID string) (*entity.Lot, error)
	TotalByProduct(ctx context.Context, productID string) (int, error)
}
