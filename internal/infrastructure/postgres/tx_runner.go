package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/lotes-remision/internal/application/count"
	"github.com/jhoicas/lotes-remision/internal/application/remision"
	"github.com/jhoicas/lotes-remision/internal/application/scan"
	"github.com/jhoicas/lotes-remision/internal/application/spreadsheet"
	"github.com/jhoicas/lotes-remision/internal/application/usecase"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

// Ensure TxRunner implements remision.TxRunner y los runners de stock.
var (
	_ remision.TxRunner         = (*TxRunner)(nil)
	_ count.StockTxRunner       = (*TxRunner)(nil)
	_ spreadsheet.StockTxRunner = (*TxRunner)(nil)
	_ scan.StockTxRunner        = (*TxRunner)(nil)
	_ usecase.StockTxRunner     = (*TxRunner)(nil)
)

// TxRunner ejecuta callbacks dentro de una transacción PostgreSQL.
type TxRunner struct {
	pool *pgxpool.Pool
}

// NewTxRunner construye el runner con el pool.
func NewTxRunner(pool *pgxpool.Pool) *TxRunner {
	return &TxRunner{pool: pool}
}

// inTx inicia una transacción, ejecuta fn y hace Commit; cualquier salida sin commit hace Rollback.
func inTx(ctx context.Context, pool *pgxpool.Pool, fn func(tx pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin transaction: %w", domain.ErrTransactionFailed, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit transaction: %w", domain.ErrTransactionFailed, err)
	}
	return nil
}

// Run inicia una transacción, ejecuta fn con repos de lotes, carrito y remisiones atados a la tx
// y hace Commit o Rollback.
func (r *TxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.LotRepository,
	cartRepo repository.CartRepository,
	shipmentRepo repository.ShipmentRepository,
) error) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(NewLotRepository(tx), NewCartRepository(tx), NewShipmentRepository(tx))
	})
}

// RunStock inicia una transacción con repos de productos y lotes (importaciones, conteos, escáner).
func (r *TxRunner) RunStock(ctx context.Context, fn func(
	productRepo repository.ProductRepository,
	lotRepo repository.LotRepository,
) error) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(NewProductRepository(tx), NewLotRepository(tx))
	})
}
