package usecase_test

import (
	"bytes"
	"context"
	"image"
	"image/png"
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

func ptr[T any](v T) *T { return &v }

func validProduct() dto.CreateProductRequest {
	return dto.CreateProductRequest{
		Name:         "Bata desechable",
		Barcode:      "7700000000001",
		Presentation: "Caja x 10",
		Size:         "L",
		Color:        "Azul",
		Registration: "INVIMA 2020DM-0001",
		Supplier:     "Proveedor S.A.S.",
		MinStock:     ptr(3),
	}
}

func TestProductCreate_CamposObligatorios(t *testing.T) {
	uc := usecase.NewProductUseCase(memstore.New().Products(), zerolog.Nop())

	in := validProduct()
	in.Color = " "
	_, err := uc.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	in = validProduct()
	in.MinStock = nil
	_, err = uc.Create(context.Background(), in)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProductCreate_CodigoDuplicado(t *testing.T) {
	uc := usecase.NewProductUseCase(memstore.New().Products(), zerolog.Nop())
	ctx := context.Background()

	_, err := uc.Create(ctx, validProduct())
	require.NoError(t, err)
	_, err = uc.Create(ctx, validProduct())

	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUpdate_SoloCamposPresentes(t *testing.T) {
	uc := usecase.NewProductUseCase(memstore.New().Products(), zerolog.Nop())
	ctx := context.Background()
	created, err := uc.Create(ctx, validProduct())
	require.NoError(t, err)

	updated, err := uc.Update(ctx, created.ID, dto.UpdateProductRequest{Color: ptr("Verde"), MinStock: ptr(8)})
	require.NoError(t, err)

	assert.Equal(t, "Verde", updated.Color)
	assert.Equal(t, 8, updated.MinStock)
	assert.Equal(t, "Bata desechable", updated.Name)

	_, err = uc.Update(ctx, created.ID, dto.UpdateProductRequest{Name: ptr("")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missing, err := uc.Update(ctx, "no-existe", dto.UpdateProductRequest{})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductList_MarcaStockBajo(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProductUseCase(store.Products(), zerolog.Nop())
	a := store.AddProduct(entity.Product{Name: "A", Barcode: "1", MinStock: 5})
	b := store.AddProduct(entity.Product{Name: "B", Barcode: "2", MinStock: 1})
	store.AddLot(entity.Lot{ProductID: a.ID, LotNumber: "X", Quantity: 2})
	store.AddLot(entity.Lot{ProductID: b.ID, LotNumber: "Y", Quantity: 4})

	list, err := uc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list.Items, 2)
	assert.Equal(t, 2, *list.Items[0].TotalQuantity)
	assert.True(t, *list.Items[0].BelowMinStock)
	assert.False(t, *list.Items[1].BelowMinStock)

	low, err := uc.ListLowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	assert.Equal(t, "A", low.Items[0].Name)
}

func TestProductDelete_ConLotesEsConflicto(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProductUseCase(store.Products(), zerolog.Nop())
	p := store.AddProduct(entity.Product{Name: "A", Barcode: "1"})
	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "X", Quantity: 1})

	assert.ErrorIs(t, uc.Delete(context.Background(), p.ID), domain.ErrConflict)
}

func TestProduct_IDMalformado(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProductUseCase(store.Products(), zerolog.Nop())
	ctx := context.Background()

	got, err := uc.GetByID(ctx, "abc")
	require.NoError(t, err)
	assert.Nil(t, got)
	upd, err := uc.Update(ctx, "abc", dto.UpdateProductRequest{Name: ptr("X")})
	require.NoError(t, err)
	assert.Nil(t, upd)

	assert.ErrorIs(t, uc.Delete(ctx, "abc"), domain.ErrNotFound)
	_, _, err = uc.GetImage(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	assert.ErrorIs(t, uc.UploadImage(ctx, "abc", buf.Bytes()), domain.ErrNotFound)
}

func TestProductImage_SoloImagenes(t *testing.T) {
	store := memstore.New()
	uc := usecase.NewProductUseCase(store.Products(), zerolog.Nop())
	ctx := context.Background()
	p := store.AddProduct(entity.Product{Name: "A", Barcode: "1"})

	_, _, err := uc.GetImage(ctx, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, uc.UploadImage(ctx, p.ID, []byte("no soy imagen")), domain.ErrInvalidInput)

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))))
	require.NoError(t, uc.UploadImage(ctx, p.ID, buf.Bytes()))

	data, _, err := uc.GetImage(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), data)
}
