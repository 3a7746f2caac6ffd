//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/count"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/postgres"
)

// testPool conecta a TEST_DATABASE_URL y aplica el esquema en un schema propio de la prueba.
//
//	TEST_DATABASE_URL=postgres://... go test -tags integration ./internal/infrastructure/postgres/
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definida")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	schema := "t_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	admin, err := pgxpool.New(ctx, url)
	require.NoError(t, err)
	_, err = admin.Exec(ctx, "CREATE SCHEMA "+schema)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = admin.Exec(context.Background(), "DROP SCHEMA "+schema+" CASCADE")
		admin.Close()
	})

	cfg, err := pgxpool.ParseConfig(url)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	// una sola conexión: una operación que pida una segunda se queda esperando
	cfg.MaxConns = 1
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ddl, err := os.ReadFile("../../../migrations/001_schema.sql")
	require.NoError(t, err)
	_, err = pool.Exec(ctx, string(ddl))
	require.NoError(t, err)
	return pool
}

func key(barcode, lot string) count.ScanKey {
	return count.ScanKey{Barcode: barcode, LotNumber: lot}
}

func TestTallyStore_AgrupaYConservaOrden(t *testing.T) {
	store := postgres.NewTallyStore(testPool(t))
	ctx := context.Background()

	_, err := store.Add(ctx, "s1", []count.ScanKey{key("2", "B"), key("1", "A"), key("2", "B")})
	require.NoError(t, err)
	entries, err := store.Add(ctx, "s1", []count.ScanKey{key("1", "A"), key("3", "C")})
	require.NoError(t, err)

	require.Len(t, entries, 3)
	assert.Equal(t, count.TallyEntry{Key: key("2", "B"), Count: 2}, entries[0])
	assert.Equal(t, count.TallyEntry{Key: key("1", "A"), Count: 2}, entries[1])
	assert.Equal(t, key("3", "C"), entries[2].Key)

	other, err := store.Add(ctx, "s2", nil)
	require.NoError(t, err)
	assert.Empty(t, other)

	state, keys, err := store.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, count.StateCounting, state)
	assert.Equal(t, 3, keys)
}

func TestTallyStore_DrainFallidoConservaConteo(t *testing.T) {
	store := postgres.NewTallyStore(testPool(t))
	ctx := context.Background()
	_, err := store.Add(ctx, "s1", []count.ScanKey{key("1", "A")})
	require.NoError(t, err)

	boom := errors.New("lectura fallida")
	err = store.Drain(ctx, "s1", func([]count.TallyEntry, repository.LotRepository) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, keys, err := store.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 1, keys)
}

func TestTallyStore_DrainLeeLotesEnLaMismaTx(t *testing.T) {
	pool := testPool(t)
	store := postgres.NewTallyStore(pool)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	productID := uuid.NewString()
	_, err := pool.Exec(ctx, `INSERT INTO products (id, name, barcode) VALUES ($1, 'Gasa', '555')`, productID)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO lots (id, product_id, lot_number, quantity) VALUES ($1, $2, 'A', 7)`, uuid.NewString(), productID)
	require.NoError(t, err)
	_, err = store.Add(ctx, "s1", []count.ScanKey{key("555", "A")})
	require.NoError(t, err)

	var persisted map[count.LotRef]int
	err = store.Drain(ctx, "s1", func(entries []count.TallyEntry, lots repository.LotRepository) error {
		require.NotNil(t, lots)
		var err error
		persisted, err = lots.QuantitiesByRefs(ctx, count.Refs(entries))
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 7, persisted[count.LotRef{Barcode: "555", LotNumber: "A"}])

	state, keys, err := store.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, count.StateIdle, state)
	assert.Zero(t, keys)
}

func TestTallyStore_Discard(t *testing.T) {
	store := postgres.NewTallyStore(testPool(t))
	ctx := context.Background()
	_, err := store.Add(ctx, "s1", []count.ScanKey{key("1", "A")})
	require.NoError(t, err)

	require.NoError(t, store.Discard(ctx, "s1"))
	state, _, err := store.State(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, count.StateIdle, state)
}

func TestLotRepo_DesbordeEsEntradaInvalida(t *testing.T) {
	pool := testPool(t)
	lots := postgres.NewLotRepository(pool)
	ctx := context.Background()

	productID := uuid.NewString()
	_, err := pool.Exec(ctx, `INSERT INTO products (id, name, barcode) VALUES ($1, 'Gasa', '555')`, productID)
	require.NoError(t, err)
	_, err = lots.AddQuantity(ctx, productID, "A", entity.MaxQuantity, nil)
	require.NoError(t, err)

	_, err = lots.AddQuantity(ctx, productID, "A", 1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
