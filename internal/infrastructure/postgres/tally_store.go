package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/lotes-remision/internal/domain/count"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

var _ repository.TallyStore = (*TallyStore)(nil)

// TallyStore conteos por sesión en la tabla count_tallies. Cada operación toma
// pg_advisory_xact_lock sobre el id de sesión, así varias instancias de la API comparten conteos.
type TallyStore struct {
	pool *pgxpool.Pool
}

// NewTallyStore construye el almacén persistente de conteos.
func NewTallyStore(pool *pgxpool.Pool) *TallyStore {
	return &TallyStore{pool: pool}
}

func lockSession(ctx context.Context, tx pgx.Tx, sessionID string) error {
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sessionID); err != nil {
		return fmt.Errorf("lock count session: %w", err)
	}
	return nil
}

// Add suma las claves; las repetidas dentro del lote se agrupan antes del upsert.
func (s *TallyStore) Add(ctx context.Context, sessionID string, keys []count.ScanKey) ([]count.TallyEntry, error) {
	var entries []count.TallyEntry
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockSession(ctx, tx, sessionID); err != nil {
			return err
		}
		if len(keys) > 0 {
			tally := make(map[count.ScanKey]int, len(keys))
			var barcodes, lots, expiries []string
			var counts []int32
			for _, k := range keys {
				if _, ok := tally[k]; !ok {
					barcodes = append(barcodes, k.Barcode)
					lots = append(lots, k.LotNumber)
					expiries = append(expiries, k.Expiry)
				}
				tally[k]++
			}
			for i := range barcodes {
				k := count.ScanKey{Barcode: barcodes[i], LotNumber: lots[i], Expiry: expiries[i]}
				counts = append(counts, int32(tally[k]))
			}
			query := `
				INSERT INTO count_tallies (session_id, barcode, lot_number, expiry, scanned)
				SELECT $1, k.barcode, k.lot_number, k.expiry, k.scanned
				FROM unnest($2::text[], $3::text[], $4::text[], $5::int[]) WITH ORDINALITY AS k(barcode, lot_number, expiry, scanned, ord)
				ORDER BY k.ord
				ON CONFLICT (session_id, barcode, lot_number, expiry)
				DO UPDATE SET scanned = count_tallies.scanned + EXCLUDED.scanned`
			if _, err := tx.Exec(ctx, query, sessionID, barcodes, lots, expiries, counts); err != nil {
				return fmt.Errorf("upsert tally: %w", err)
			}
		}
		var err error
		entries, err = loadTally(ctx, tx, sessionID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Drain lee el conteo bajo el candado de la sesión; si fn falla la tx se revierte y el conteo queda.
// fn recibe un repositorio de lotes sobre la misma tx: no toma una segunda conexión del pool.
func (s *TallyStore) Drain(ctx context.Context, sessionID string, fn func([]count.TallyEntry, repository.LotRepository) error) error {
	return inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockSession(ctx, tx, sessionID); err != nil {
			return err
		}
		entries, err := loadTally(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if err := fn(entries, NewLotRepository(tx)); err != nil {
			return err
		}
		return deleteTally(ctx, tx, sessionID)
	})
}

// State si el candado está tomado se reporta StateFinalizing (también ocurre durante un Add en curso).
func (s *TallyStore) State(ctx context.Context, sessionID string) (count.State, int, error) {
	state := count.StateIdle
	var keys int
	err := inTx(ctx, s.pool, func(tx pgx.Tx) error {
		var acquired bool
		if err := tx.QueryRow(ctx, `SELECT pg_try_advisory_xact_lock(hashtext($1))`, sessionID).Scan(&acquired); err != nil {
			return fmt.Errorf("try lock count session: %w", err)
		}
		if !acquired {
			state = count.StateFinalizing
			return nil
		}
		if err := tx.QueryRow(ctx, `SELECT count(*) FROM count_tallies WHERE session_id = $1`, sessionID).Scan(&keys); err != nil {
			return fmt.Errorf("count tally keys: %w", err)
		}
		if keys > 0 {
			state = count.StateCounting
		}
		return nil
	})
	if err != nil {
		return "", 0, err
	}
	return state, keys, nil
}

// Discard elimina el conteo de la sesión.
func (s *TallyStore) Discard(ctx context.Context, sessionID string) error {
	return inTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := lockSession(ctx, tx, sessionID); err != nil {
			return err
		}
		return deleteTally(ctx, tx, sessionID)
	})
}

func loadTally(ctx context.Context, tx pgx.Tx, sessionID string) ([]count.TallyEntry, error) {
	rows, err := tx.Query(ctx,
		`SELECT barcode, lot_number, expiry, scanned FROM count_tallies WHERE session_id = $1 ORDER BY pos`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load tally: %w", err)
	}
	defer rows.Close()
	entries := make([]count.TallyEntry, 0)
	for rows.Next() {
		var e count.TallyEntry
		if err := rows.Scan(&e.Key.Barcode, &e.Key.LotNumber, &e.Key.Expiry, &e.Count); err != nil {
			return nil, fmt.Errorf("scan tally: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func deleteTally(ctx context.Context, tx pgx.Tx, sessionID string) error {
	if _, err := tx.Exec(ctx, `DELETE FROM count_tallies WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete tally: %w", err)
	}
	return nil
}
