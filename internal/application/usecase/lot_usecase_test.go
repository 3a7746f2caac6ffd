package usecase_test

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/usecase"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/testutil/memstore"
)

func lotFixture() (*memstore.Store, *entity.Product, *usecase.LotUseCase) {
	store := memstore.New()
	p := store.AddProduct(entity.Product{Name: "Gasa", Barcode: "555"})
	return store, p, usecase.NewLotUseCase(store.TxRunner(), store.Products(), store.Lots(), zerolog.Nop())
}

func TestLotAdd_ReingresoSumaCantidad(t *testing.T) {
	store, p, uc := lotFixture()
	ctx := context.Background()

	first, err := uc.Add(ctx, dto.AddLotRequest{ProductID: p.ID, LotNumber: "A1", Quantity: 4, ExpiryDate: "2026-05-01"})
	require.NoError(t, err)
	assert.False(t, first.Existed)
	require.NotNil(t, first.Lot.ExpiryDate)

	second, err := uc.Add(ctx, dto.AddLotRequest{ProductID: p.ID, LotNumber: "A1", Quantity: 6})
	require.NoError(t, err)

	assert.True(t, second.Existed)
	assert.Equal(t, 10, second.Lot.Quantity)
	assert.Equal(t, 10, store.LotQuantity(p.ID, "A1"))
}

func TestLotAdd_Validaciones(t *testing.T) {
	_, p, uc := lotFixture()
	ctx := context.Background()

	cases := []dto.AddLotRequest{
		{ProductID: p.ID, LotNumber: "A1", Quantity: 0},
		{ProductID: p.ID, LotNumber: " ", Quantity: 1},
		{ProductID: p.ID, LotNumber: "A1", Quantity: 1, ExpiryDate: "01/05/2026"},
	}
	for _, in := range cases {
		_, err := uc.Add(ctx, in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}

	_, err := uc.Add(ctx, dto.AddLotRequest{ProductID: "no-existe", LotNumber: "A1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLotAdd_CantidadMaxima(t *testing.T) {
	store, p, uc := lotFixture()
	ctx := context.Background()

	_, err := uc.Add(ctx, dto.AddLotRequest{ProductID: p.ID, LotNumber: "A1", Quantity: entity.MaxQuantity + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "LLENO", Quantity: entity.MaxQuantity - 1})
	_, err = uc.Add(ctx, dto.AddLotRequest{ProductID: p.ID, LotNumber: "LLENO", Quantity: 2})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, entity.MaxQuantity-1, store.LotQuantity(p.ID, "LLENO"))

	_, err = uc.Add(ctx, dto.AddLotRequest{ProductID: p.ID, LotNumber: "LLENO", Quantity: 1})
	require.NoError(t, err)
	assert.Equal(t, entity.MaxQuantity, store.LotQuantity(p.ID, "LLENO"))
}

func TestLot_IDMalformadoEsNoEncontrado(t *testing.T) {
	_, _, uc := lotFixture()
	ctx := context.Background()
	one := 1

	_, err := uc.Add(ctx, dto.AddLotRequest{ProductID: "abc", LotNumber: "A1", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = uc.SetQuantity(ctx, "abc", dto.SetLotQuantityRequest{Quantity: &one})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.Delete(ctx, "abc"), domain.ErrNotFound)
	_, err = uc.ListByProduct(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLotSetQuantity(t *testing.T) {
	store, p, uc := lotFixture()
	ctx := context.Background()
	lot := store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "B", Quantity: 9})
	zero := 0

	res, err := uc.SetQuantity(ctx, lot.ID, dto.SetLotQuantityRequest{Quantity: &zero})
	require.NoError(t, err)
	assert.Zero(t, res.Quantity)

	neg := -1
	_, err = uc.SetQuantity(ctx, lot.ID, dto.SetLotQuantityRequest{Quantity: &neg})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.SetQuantity(ctx, "no-existe", dto.SetLotQuantityRequest{Quantity: &zero})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestLotListByProduct_OrdenDeConsumo(t *testing.T) {
	store, p, uc := lotFixture()
	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "SIN-FECHA", Quantity: 1})
	_, err := uc.Add(context.Background(), dto.AddLotRequest{ProductID: p.ID, LotNumber: "VENCE", Quantity: 1, ExpiryDate: "2030-01-01"})
	require.NoError(t, err)

	lots, err := uc.ListByProduct(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, "VENCE", lots[0].LotNumber)
}
