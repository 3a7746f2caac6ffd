package remision_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/remision"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/testutil/memstore"
)

const (
	operario = "op-1"
	otro     = "op-2"
)

func date(s string) *time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return &t
}

// fixture producto P con L1 (5, vence 2025-01-01) y L2 (10, vence 2025-06-01).
func fixture(t *testing.T) (*memstore.Store, *entity.Product, *remision.CartUseCase) {
	t.Helper()
	store := memstore.New()
	p := store.AddProduct(entity.Product{Name: "Guante nitrilo", Barcode: "7701234567890", MinStock: 3})
	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "L1", Quantity: 5, ExpiryDate: date("2025-01-01")})
	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "L2", Quantity: 10, ExpiryDate: date("2025-06-01")})
	uc := remision.NewCartUseCase(store.TxRunner(), store.Products(), store.Lots(), store.Cart(), store.Shipments(),
		nil, nil, zerolog.Nop(), 0)
	return store, p, uc
}

// ── Allocate ──────────────────────────────────────────────────────────────────

func TestAllocate_VistaPreviaNoModificaLotes(t *testing.T) {
	store, p, uc := fixture(t)

	res, err := uc.Allocate(context.Background(), p.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, []dto.AllocationLineResponse{{LotNumber: "L1", Quantity: 5}, {LotNumber: "L2", Quantity: 2}}, res.Lines)
	assert.Zero(t, res.Shortfall)
	assert.Equal(t, 5, store.LotQuantity(p.ID, "L1"))
	assert.Equal(t, 10, store.LotQuantity(p.ID, "L2"))
}

func TestAllocate_ProductoInexistente(t *testing.T) {
	_, _, uc := fixture(t)
	_, err := uc.Allocate(context.Background(), "no-existe", 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAllocate_CantidadInvalida(t *testing.T) {
	_, p, uc := fixture(t)
	_, err := uc.Allocate(context.Background(), p.ID, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ── Reserve ───────────────────────────────────────────────────────────────────

func TestReserve_ConsumePrimeroElQueVenceAntes(t *testing.T) {
	store, p, uc := fixture(t)

	res, err := uc.Reserve(context.Background(), operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 7})
	require.NoError(t, err)

	assert.Len(t, res.EntryIDs, 2)
	assert.Equal(t, 0, store.LotQuantity(p.ID, "L1"))
	assert.Equal(t, 8, store.LotQuantity(p.ID, "L2"))
	assert.Equal(t, 2, store.CartSize(operario))

	cart, err := uc.ListCart(context.Background(), operario)
	require.NoError(t, err)
	assert.Equal(t, 7, cart.TotalQuantity)
	assert.Equal(t, "Guante nitrilo", cart.Items[0].ProductName)
}

func TestReserve_StockInsuficienteNoModificaNada(t *testing.T) {
	store, p, uc := fixture(t)

	_, err := uc.Reserve(context.Background(), operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 20})

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Shortfall)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 5, store.LotQuantity(p.ID, "L1"))
	assert.Equal(t, 10, store.LotQuantity(p.ID, "L2"))
	assert.Zero(t, store.CartSize(operario))
}

func TestReserve_FalloAMitadHaceRollback(t *testing.T) {
	store, p, uc := fixture(t)
	store.Fail["CartRepo.Create"] = errors.New("conexión perdida")

	_, err := uc.Reserve(context.Background(), operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 7})
	require.Error(t, err)

	assert.Equal(t, 5, store.LotQuantity(p.ID, "L1"))
	assert.Equal(t, 10, store.LotQuantity(p.ID, "L2"))
	assert.Zero(t, store.CartSize(operario))
}

func TestReserve_Validaciones(t *testing.T) {
	_, p, uc := fixture(t)
	ctx := context.Background()

	_, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 0})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Reserve(ctx, operario, dto.ReserveRequest{Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: "no-existe", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReserve_CantidadFueraDeRango(t *testing.T) {
	store, p, uc := fixture(t)
	_, err := uc.Reserve(context.Background(), operario, dto.ReserveRequest{ProductID: p.ID, Quantity: entity.MaxQuantity + 1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, 5, store.LotQuantity(p.ID, "L1"))
}

func TestReserve_IDMalformadoNoAbreTransaccion(t *testing.T) {
	store, _, uc := fixture(t)
	store.Fail["TxRunner.Begin"] = errors.New("no debería abrirse")
	_, err := uc.Reserve(context.Background(), operario, dto.ReserveRequest{ProductID: "abc", Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Release ───────────────────────────────────────────────────────────────────

func TestRelease_RestauraCantidadDelLote(t *testing.T) {
	store, p, uc := fixture(t)
	ctx := context.Background()
	res, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, res.EntryIDs, 1)

	require.NoError(t, uc.Release(ctx, operario, res.EntryIDs[0]))

	assert.Equal(t, 5, store.LotQuantity(p.ID, "L1"))
	assert.Zero(t, store.CartSize(operario))
}

func TestRelease_EntradaInexistenteNoEsError(t *testing.T) {
	_, _, uc := fixture(t)
	assert.NoError(t, uc.Release(context.Background(), operario, "no-existe"))
}

func TestRelease_IDMalformadoNoEsError(t *testing.T) {
	store, _, uc := fixture(t)
	store.Fail["TxRunner.Begin"] = errors.New("no debería abrirse")
	assert.NoError(t, uc.Release(context.Background(), operario, "abc"))
}

func TestRelease_DobleClicNoDuplicaDevolucion(t *testing.T) {
	store, p, uc := fixture(t)
	ctx := context.Background()
	res, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	require.NoError(t, uc.Release(ctx, operario, res.EntryIDs[0]))
	require.NoError(t, uc.Release(ctx, operario, res.EntryIDs[0]))

	assert.Equal(t, 5, store.LotQuantity(p.ID, "L1"))
}

func TestRelease_EntradaDeOtroOperario(t *testing.T) {
	store, p, uc := fixture(t)
	ctx := context.Background()
	res, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 2})
	require.NoError(t, err)

	err = uc.Release(ctx, otro, res.EntryIDs[0])

	assert.ErrorIs(t, err, domain.ErrForbidden)
	assert.Equal(t, 1, store.CartSize(operario))
	assert.Equal(t, 3, store.LotQuantity(p.ID, "L1"))
}

func TestRelease_RecreaLoteEliminado(t *testing.T) {
	store, p, uc := fixture(t)
	ctx := context.Background()
	res, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 5})
	require.NoError(t, err)
	l1 := store.FindLot(p.ID, "L1")
	require.NotNil(t, l1)
	require.NoError(t, store.Lots().Delete(ctx, l1.ID))

	require.NoError(t, uc.Release(ctx, operario, res.EntryIDs[0]))

	assert.Equal(t, 5, store.LotQuantity(p.ID, "L1"))
}

// ── Confirm ───────────────────────────────────────────────────────────────────

func TestConfirm_CarritoVacio(t *testing.T) {
	store, _, uc := fixture(t)

	res, err := uc.Confirm(context.Background(), operario)

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrEmptyCart)
	assert.Zero(t, store.ShipmentCount())
}

func TestConfirm_CreaRemisionConUnaLineaPorEntrada(t *testing.T) {
	store, p, uc := fixture(t)
	ctx := context.Background()
	_, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 7})
	require.NoError(t, err)
	_, err = uc.Reserve(ctx, otro, dto.ReserveRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	res, err := uc.Confirm(ctx, operario)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Lines)
	assert.Equal(t, int64(1), res.Number)
	assert.Zero(t, store.CartSize(operario))
	assert.Equal(t, 1, store.CartSize(otro), "el carrito de otro operario no se toca")

	lines, err := store.Shipments().Lines(ctx, res.ShipmentID)
	require.NoError(t, err)
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	assert.Equal(t, 7, total)
}

func TestConfirm_BloqueaConRemisionesPendientesDeFirma(t *testing.T) {
	store, p, uc := fixture(t)
	ctx := context.Background()
	store.AddShipment(entity.Shipment{CreatedBy: operario})
	store.AddShipment(entity.Shipment{CreatedBy: operario})
	_, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = uc.Confirm(ctx, operario)

	var pending *domain.PendingSignaturesError
	require.True(t, errors.As(err, &pending))
	assert.Equal(t, 2, pending.Pending)
	assert.Equal(t, 1, store.CartSize(operario), "el carrito se conserva")
}

func TestConfirm_UnaPendienteNoBloquea(t *testing.T) {
	store, p, uc := fixture(t)
	ctx := context.Background()
	store.AddShipment(entity.Shipment{CreatedBy: operario})
	_, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 1})
	require.NoError(t, err)

	_, err = uc.Confirm(ctx, operario)
	assert.NoError(t, err)
}

func TestConfirm_FalloEnLineasHaceRollback(t *testing.T) {
	store, p, uc := fixture(t)
	ctx := context.Background()
	_, err := uc.Reserve(ctx, operario, dto.ReserveRequest{ProductID: p.ID, Quantity: 7})
	require.NoError(t, err)
	store.Fail["ShipmentRepo.AddLine"] = errors.New("disco lleno")

	_, err = uc.Confirm(ctx, operario)
	require.Error(t, err)

	assert.Zero(t, store.ShipmentCount())
	assert.Equal(t, 2, store.CartSize(operario))
}
