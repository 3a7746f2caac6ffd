package inventory_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/domain/inventory"
)

func day(s string) *time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return &t
}

func sampleLots() []inventory.LotStock {
	return []inventory.LotStock{
		{LotNumber: "L2", Quantity: 10, ExpiryDate: day("2025-06-01")},
		{LotNumber: "L1", Quantity: 5, ExpiryDate: day("2025-01-01")},
	}
}

func TestAllocate_ConsumeElQueVencePrimero(t *testing.T) {
	a := inventory.Allocate(sampleLots(), 7)

	require.True(t, a.Complete())
	assert.Equal(t, []inventory.AllocationLine{
		{LotNumber: "L1", Quantity: 5},
		{LotNumber: "L2", Quantity: 2},
	}, a.Lines)
	assert.Equal(t, 0, a.Shortfall)
	assert.Equal(t, 7, a.Allocated())
}

func TestAllocate_StockInsuficienteReportaFaltante(t *testing.T) {
	a := inventory.Allocate(sampleLots(), 20)

	assert.False(t, a.Complete())
	assert.Equal(t, 5, a.Shortfall)
	assert.Equal(t, 15, a.Allocated())
}

func TestAllocate_CantidadExactaAgotaTodosLosLotes(t *testing.T) {
	a := inventory.Allocate(sampleLots(), 15)

	require.True(t, a.Complete())
	assert.Len(t, a.Lines, 2)
	assert.Equal(t, 15, a.Allocated())
}

func TestAllocate_SinVencimientoVaAlFinal(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lots := []inventory.LotStock{
		{LotNumber: "SINFECHA-VIEJO", Quantity: 3, IngestedAt: base},
		{LotNumber: "CONFECHA", Quantity: 2, ExpiryDate: day("2030-01-01"), IngestedAt: base.Add(48 * time.Hour)},
		{LotNumber: "SINFECHA-NUEVO", Quantity: 3, IngestedAt: base.Add(24 * time.Hour)},
	}

	a := inventory.Allocate(lots, 6)

	require.True(t, a.Complete())
	assert.Equal(t, []inventory.AllocationLine{
		{LotNumber: "CONFECHA", Quantity: 2},
		{LotNumber: "SINFECHA-VIEJO", Quantity: 3},
		{LotNumber: "SINFECHA-NUEVO", Quantity: 1},
	}, a.Lines)
}

func TestAllocate_IgnoraLotesVaciosYAgrupaRepetidos(t *testing.T) {
	lots := []inventory.LotStock{
		{LotNumber: "A", Quantity: 0, ExpiryDate: day("2024-01-01")},
		{LotNumber: "B", Quantity: 2, ExpiryDate: day("2026-01-01")},
		{LotNumber: "B", Quantity: 3, ExpiryDate: day("2025-01-01")},
	}

	a := inventory.Allocate(lots, 4)

	require.True(t, a.Complete())
	assert.Equal(t, []inventory.AllocationLine{{LotNumber: "B", Quantity: 4}}, a.Lines)
}

func TestAllocate_CantidadNoPositivaNoAsigna(t *testing.T) {
	a := inventory.Allocate(sampleLots(), 0)

	assert.Empty(t, a.Lines)
	assert.Equal(t, 0, a.Shortfall)
}

func TestAllocate_NoMutaLaEntrada(t *testing.T) {
	lots := sampleLots()
	_ = inventory.Allocate(lots, 7)

	assert.Equal(t, "L2", lots[0].LotNumber)
	assert.Equal(t, 10, lots[0].Quantity)
}

// Para cualquier conjunto con total >= Q la suma asignada es exactamente Q.
func TestAllocate_SumaExactaCuandoAlcanza(t *testing.T) {
	lots := []inventory.LotStock{
		{LotNumber: "X", Quantity: 4, ExpiryDate: day("2025-03-01")},
		{LotNumber: "Y", Quantity: 1, ExpiryDate: day("2025-02-01")},
		{LotNumber: "Z", Quantity: 9},
	}
	for q := 1; q <= 14; q++ {
		a := inventory.Allocate(lots, q)
		require.True(t, a.Complete(), "q=%d", q)
		assert.Equal(t, q, a.Allocated(), "q=%d", q)
		assert.Equal(t, "Y", a.Lines[0].LotNumber, "q=%d", q)
	}
	a := inventory.Allocate(lots, 15)
	assert.Equal(t, 1, a.Shortfall)
}
