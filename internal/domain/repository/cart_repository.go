package repository

import (
	"context"

	"github.com/jhoicas/lotes-remision/internal/domain/entity"
)

// CartRepository define el puerto de persistencia para el carrito de remisión.
type CartRepository interface {
	Create(ctx context.Context, entry *entity.CartEntry) error
	// GetByIDForUpdate (nil, nil) si la entrada no existe.
	GetByIDForUpdate(ctx context.Context, id string) (*entity.CartEntry, error)
	ListByOperator(ctx context.Context, operatorID string) ([]*entity.CartEntry, error)
	ListByOperatorForUpdate(ctx context.Context, operatorID string) ([]*entity.CartEntry, error)
	Delete(ctx context.Context, id string) error
	DeleteByOperator(ctx context.Context, operatorID string) (int64, error)
}
