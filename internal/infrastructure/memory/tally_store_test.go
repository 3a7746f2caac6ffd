package memory_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/domain/count"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
	"github.com/jhoicas/lotes-remision/internal/infrastructure/memory"
)

var (
	keyA = count.ScanKey{Barcode: "123", LotNumber: "LOTA"}
	keyB = count.ScanKey{Barcode: "123", LotNumber: "LOTB"}
)

func TestTallyStore_SesionesAisladas(t *testing.T) {
	s := memory.NewTallyStore()
	ctx := context.Background()

	_, err := s.Add(ctx, "s1", []count.ScanKey{keyA, keyA})
	require.NoError(t, err)
	entries, err := s.Add(ctx, "s2", []count.ScanKey{keyA})
	require.NoError(t, err)

	assert.Equal(t, []count.TallyEntry{{Key: keyA, Count: 1}}, entries)
	state, keys, _ := s.State(ctx, "s1")
	assert.Equal(t, count.StateCounting, state)
	assert.Equal(t, 1, keys)
}

func TestTallyStore_DrainVaciaLaSesion(t *testing.T) {
	s := memory.NewTallyStore()
	ctx := context.Background()
	_, _ = s.Add(ctx, "s1", []count.ScanKey{keyA, keyB, keyA})

	var got []count.TallyEntry
	require.NoError(t, s.Drain(ctx, "s1", func(e []count.TallyEntry, _ repository.LotRepository) error { got = e; return nil }))
	assert.Equal(t, []count.TallyEntry{{Key: keyA, Count: 2}, {Key: keyB, Count: 1}}, got)

	require.NoError(t, s.Drain(ctx, "s1", func(e []count.TallyEntry, _ repository.LotRepository) error { got = e; return nil }))
	assert.Empty(t, got)
	state, _, _ := s.State(ctx, "s1")
	assert.Equal(t, count.StateIdle, state)
}

func TestTallyStore_DrainConErrorConservaConteo(t *testing.T) {
	s := memory.NewTallyStore()
	ctx := context.Background()
	_, _ = s.Add(ctx, "s1", []count.ScanKey{keyA})

	err := s.Drain(ctx, "s1", func([]count.TallyEntry, repository.LotRepository) error { return errors.New("BD caída") })
	require.Error(t, err)

	state, keys, _ := s.State(ctx, "s1")
	assert.Equal(t, count.StateCounting, state)
	assert.Equal(t, 1, keys)
}

func TestTallyStore_StateDuranteFinalizacion(t *testing.T) {
	s := memory.NewTallyStore()
	ctx := context.Background()
	_, _ = s.Add(ctx, "s1", []count.ScanKey{keyA})

	var state count.State
	_ = s.Drain(ctx, "s1", func([]count.TallyEntry, repository.LotRepository) error {
		state, _, _ = s.State(ctx, "s1")
		return nil
	})
	assert.Equal(t, count.StateFinalizing, state)
}

func TestTallyStore_AddConcurrenteNoPierdeConteos(t *testing.T) {
	s := memory.NewTallyStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.Add(ctx, "s1", []count.ScanKey{keyA, keyB})
		}()
	}
	wg.Wait()

	var got []count.TallyEntry
	require.NoError(t, s.Drain(ctx, "s1", func(e []count.TallyEntry, _ repository.LotRepository) error { got = e; return nil }))
	total := 0
	for _, e := range got {
		total += e.Count
	}
	assert.Equal(t, 100, total)
}

func TestTallyStore_Discard(t *testing.T) {
	s := memory.NewTallyStore()
	ctx := context.Background()
	_, _ = s.Add(ctx, "s1", []count.ScanKey{keyA})

	require.NoError(t, s.Discard(ctx, "s1"))
	require.NoError(t, s.Discard(ctx, "no-existe"))

	state, keys, _ := s.State(ctx, "s1")
	assert.Equal(t, count.StateIdle, state)
	assert.Zero(t, keys)
}
