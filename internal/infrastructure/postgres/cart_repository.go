package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

var _ repository.CartRepository = (*CartRepo)(nil)

// CartRepo carrito de remisión por operario sobre PostgreSQL.
type CartRepo struct {
	q Querier
}

// NewCartRepository construye el adaptador del carrito.
func NewCartRepository(q Querier) *CartRepo {
	return &CartRepo{q: q}
}

const cartSelect = `
	SELECT c.id, c.operator_id, c.product_id, c.lot_number, c.quantity, p.name, p.barcode
	FROM cart_entries c
	JOIN products p ON p.id = c.product_id`

func scanCartEntry(row pgx.Row) (*entity.CartEntry, error) {
	var e entity.CartEntry
	if err := row.Scan(&e.ID, &e.OperatorID, &e.ProductID, &e.LotNumber, &e.Quantity, &e.ProductName, &e.Barcode); err != nil {
		return nil, err
	}
	return &e, nil
}

// Create agrega una entrada al carrito.
func (r *CartRepo) Create(ctx context.Context, e *entity.CartEntry) error {
	_, err := r.q.Exec(ctx,
		`INSERT INTO cart_entries (id, operator_id, product_id, lot_number, quantity, created_at) VALUES ($1, $2, $3, $4, $5, now())`,
		e.ID, e.OperatorID, e.ProductID, e.LotNumber, e.Quantity,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("insert cart entry: %w", err)
	}
	return nil
}

// GetByIDForUpdate obtiene y bloquea una entrada.
func (r *CartRepo) GetByIDForUpdate(ctx context.Context, id string) (*entity.CartEntry, error) {
	e, err := scanCartEntry(r.q.QueryRow(ctx, cartSelect+` WHERE c.id = $1 FOR UPDATE OF c`, id))
	if err != nil {
		if noRow(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart entry: %w", err)
	}
	return e, nil
}

// ListByOperator entradas del carrito del operario en orden de creación.
func (r *CartRepo) ListByOperator(ctx context.Context, operatorID string) ([]*entity.CartEntry, error) {
	return r.list(ctx, cartSelect+` WHERE c.operator_id = $1 ORDER BY c.created_at, c.id`, operatorID)
}

// ListByOperatorForUpdate igual que ListByOperator pero bloquea las filas del carrito.
func (r *CartRepo) ListByOperatorForUpdate(ctx context.Context, operatorID string) ([]*entity.CartEntry, error) {
	return r.list(ctx, cartSelect+` WHERE c.operator_id = $1 ORDER BY c.created_at, c.id FOR UPDATE OF c`, operatorID)
}

func (r *CartRepo) list(ctx context.Context, query string, args ...any) ([]*entity.CartEntry, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}
	defer rows.Close()
	var list []*entity.CartEntry
	for rows.Next() {
		e, err := scanCartEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cart entry: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// Delete elimina una entrada.
func (r *CartRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM cart_entries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete cart entry: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteByOperator vacía el carrito del operario y devuelve cuántas filas borró.
func (r *CartRepo) DeleteByOperator(ctx context.Context, operatorID string) (int64, error) {
	cmd, err := r.q.Exec(ctx, `DELETE FROM cart_entries WHERE operator_id = $1`, operatorID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}
	return cmd.RowsAffected(), nil
}
