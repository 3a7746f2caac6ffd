package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/count"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

var _ repository.LotRepository = (*LotRepo)(nil)

// LotRepo implementación del puerto LotRepository sobre PostgreSQL (usable con pool o tx).
type LotRepo struct {
	q Querier
}

// NewLotRepository construye el adaptador de persistencia para lotes.
func NewLotRepository(q Querier) *LotRepo {
	return &LotRepo{q: q}
}

const (
	lotColumns = `id, product_id, lot_number, quantity, expiry_date, ingested_at`
	// Orden de consumo: vence primero, sin vencimiento al final.
	fefoOrder = `ORDER BY expiry_date ASC NULLS LAST, ingested_at ASC, lot_number ASC`
)

func scanLot(row pgx.Row) (*entity.Lot, error) {
	var l entity.Lot
	if err := row.Scan(&l.ID, &l.ProductID, &l.LotNumber, &l.Quantity, &l.ExpiryDate, &l.IngestedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *LotRepo) list(ctx context.Context, query string, args ...any) ([]*entity.Lot, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()
	var list []*entity.Lot
	for rows.Next() {
		l, err := scanLot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lot: %w", err)
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

func (r *LotRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Lot, error) {
	l, err := scanLot(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if noRow(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

// ListAvailableForUpdate lotes con cantidad disponible del producto en orden FEFO, bloqueados.
func (r *LotRepo) ListAvailableForUpdate(ctx context.Context, productID string) ([]*entity.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE product_id = $1 AND quantity > 0 `+fefoOrder+` FOR UPDATE`, productID)
}

// ListByProduct todos los lotes del producto, incluidos los agotados.
func (r *LotRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.Lot, error) {
	return r.list(ctx, `SELECT `+lotColumns+` FROM lots WHERE product_id = $1 `+fefoOrder, productID)
}

// GetByID obtiene un lote por ID.
func (r *LotRepo) GetByID(ctx context.Context, id string) (*entity.Lot, error) {
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE id = $1`, id)
}

// GetForUpdate obtiene y bloquea el lote (producto, número).
func (r *LotRepo) GetForUpdate(ctx context.Context, productID, lotNumber string) (*entity.Lot, error) {
	return r.getOne(ctx, `SELECT `+lotColumns+` FROM lots WHERE product_id = $1 AND lot_number = $2 FOR UPDATE`, productID, lotNumber)
}

// Create inserta un lote nuevo.
func (r *LotRepo) Create(ctx context.Context, l *entity.Lot) error {
	query := `
		INSERT INTO lots (id, product_id, lot_number, quantity, expiry_date, ingested_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.q.Exec(ctx, query, l.ID, l.ProductID, l.LotNumber, l.Quantity, l.ExpiryDate, l.IngestedAt)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return domain.ErrDuplicate
		case isForeignKeyViolation(err):
			return domain.ErrNotFound
		case isCheckViolation(err):
			return domain.Invalid("quantity", "no puede ser negativa")
		case isNumericOverflow(err):
			return domain.Invalid("quantity", "supera el máximo permitido")
		}
		return fmt.Errorf("insert lot: %w", err)
	}
	return nil
}

// AddQuantity suma qty al lote o lo crea. xmax <> 0 identifica la rama UPDATE del upsert.
func (r *LotRepo) AddQuantity(ctx context.Context, productID, lotNumber string, qty int, expiry *time.Time) (bool, error) {
	query := `
		INSERT INTO lots (id, product_id, lot_number, quantity, expiry_date, ingested_at)
		VALUES (gen_random_uuid(), $1, $2, $3, $4, now())
		ON CONFLICT (product_id, lot_number)
		DO UPDATE SET quantity = lots.quantity + EXCLUDED.quantity
		RETURNING (xmax <> 0)`
	var existed bool
	if err := r.q.QueryRow(ctx, query, productID, lotNumber, qty, expiry).Scan(&existed); err != nil {
		switch {
		case isForeignKeyViolation(err):
			return false, domain.ErrNotFound
		case isCheckViolation(err):
			return false, domain.Invalid("quantity", "no puede ser negativa")
		case isNumericOverflow(err):
			return false, domain.Invalid("quantity", "el lote superaría la cantidad máxima")
		}
		return false, fmt.Errorf("upsert lot: %w", err)
	}
	return existed, nil
}

// Decrement resta qty de forma condicional; si el lote no alcanza no toca la fila.
func (r *LotRepo) Decrement(ctx context.Context, productID, lotNumber string, qty int) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE lots SET quantity = quantity - $3 WHERE product_id = $1 AND lot_number = $2 AND quantity >= $3`,
		productID, lotNumber, qty,
	)
	if err != nil {
		return fmt.Errorf("decrement lot: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return &domain.InsufficientStockError{ProductID: productID, Requested: qty, Shortfall: qty}
	}
	return nil
}

// SetQuantity reemplaza la cantidad del lote.
func (r *LotRepo) SetQuantity(ctx context.Context, id string, qty int) error {
	cmd, err := r.q.Exec(ctx, `UPDATE lots SET quantity = $2 WHERE id = $1`, id, qty)
	if err != nil {
		switch {
		case isCheckViolation(err):
			return domain.Invalid("quantity", "no puede ser negativa")
		case isNumericOverflow(err):
			return domain.Invalid("quantity", "supera el máximo permitido")
		}
		return fmt.Errorf("set lot quantity: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina un lote por ID.
func (r *LotRepo) Delete(ctx context.Context, id string) error {
	cmd, err := r.q.Exec(ctx, `DELETE FROM lots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// QuantitiesByRefs lee en una sola consulta las cantidades de los pares (barcode, lote).
func (r *LotRepo) QuantitiesByRefs(ctx context.Context, refs []count.LotRef) (map[count.LotRef]int, error) {
	out := make(map[count.LotRef]int, len(refs))
	if len(refs) == 0 {
		return out, nil
	}
	barcodes := make([]string, len(refs))
	lotNumbers := make([]string, len(refs))
	for i, ref := range refs {
		barcodes[i] = ref.Barcode
		lotNumbers[i] = ref.LotNumber
	}
	query := `
		SELECT p.barcode, l.lot_number, l.quantity
		FROM unnest($1::text[], $2::text[]) AS k(barcode, lot_number)
		JOIN products p ON p.barcode = k.barcode
		JOIN lots l ON l.product_id = p.id AND l.lot_number = k.lot_number`
	rows, err := r.q.Query(ctx, query, barcodes, lotNumbers)
	if err != nil {
		return nil, fmt.Errorf("lot quantities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ref count.LotRef
			qty int
		)
		if err := rows.Scan(&ref.Barcode, &ref.LotNumber, &qty); err != nil {
			return nil, fmt.Errorf("scan lot quantity: %w", err)
		}
		out[ref] = qty
	}
	return out, rows.Err()
}

// LatestIngestedForUpdate lote ingresado más recientemente, bloqueado.
func (r *LotRepo) LatestIngestedForUpdate(ctx context.Context, productID string) (*entity.Lot, error) {
	return r.getOne(ctx,
		`SELECT `+lotColumns+` FROM lots WHERE product_id = $1 ORDER BY ingested_at DESC, lot_number DESC LIMIT 1 FOR UPDATE`,
		productID,
	)
}

// TotalByProduct suma las cantidades de todos los lotes del producto.
func (r *LotRepo) TotalByProduct(ctx context.Context, productID string) (int, error) {
	var total int
	if err := r.q.QueryRow(ctx, `SELECT COALESCE(SUM(quantity), 0) FROM lots WHERE product_id = $1`, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("total lots: %w", err)
	}
	return total, nil
}
