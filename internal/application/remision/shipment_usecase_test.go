package remision_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/remision"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/testutil/memstore"
)

type fakePDF struct {
	doc *remision.ShipmentDocument
}

func (f *fakePDF) GenerateShipmentPDF(_ context.Context, doc *remision.ShipmentDocument) ([]byte, error) {
	f.doc = doc
	return []byte("%PDF-1.4"), nil
}

func pngSignature(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 2))))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func shipmentFixture(t *testing.T) (*memstore.Store, *remision.ShipmentUseCase, *fakePDF) {
	t.Helper()
	store := memstore.New()
	gen := &fakePDF{}
	return store, remision.NewShipmentUseCase(store.Shipments(), gen, nil, zerolog.Nop()), gen
}

func TestDecodeSignature_AceptaDataURL(t *testing.T) {
	img, err := remision.DecodeSignature("data:image/png;base64," + pngSignature(t))
	require.NoError(t, err)
	assert.NotEmpty(t, img)
}

func TestDecodeSignature_RechazaNoImagen(t *testing.T) {
	for _, raw := range []string{"", "%%%", base64.StdEncoding.EncodeToString([]byte("hola")), "data:image/png;base64"} {
		_, err := remision.DecodeSignature(raw)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, raw)
	}
}

func TestSignReceipt_LiberaPendiente(t *testing.T) {
	store, uc, _ := shipmentFixture(t)
	ctx := context.Background()
	sh := store.AddShipment(entity.Shipment{CreatedBy: operario})

	pending, _ := store.Shipments().CountPendingSignatures(ctx, operario)
	require.Equal(t, 1, pending)

	require.NoError(t, uc.SignReceipt(ctx, "receptor", sh.ID, pngSignature(t)))

	pending, _ = store.Shipments().CountPendingSignatures(ctx, operario)
	assert.Zero(t, pending)
}

func TestSignDelivery_NoLiberaPendiente(t *testing.T) {
	store, uc, _ := shipmentFixture(t)
	ctx := context.Background()
	sh := store.AddShipment(entity.Shipment{CreatedBy: operario})

	require.NoError(t, uc.SignDelivery(ctx, operario, sh.ID, pngSignature(t)))

	got, err := uc.Get(ctx, operario, entity.RoleOperario, sh.ID)
	require.NoError(t, err)
	assert.True(t, got.HasDeliverySignature)
	assert.False(t, got.HasReceiptSignature)
	pending, _ := store.Shipments().CountPendingSignatures(ctx, operario)
	assert.Equal(t, 1, pending)
}

func TestSign_RemisionInexistente(t *testing.T) {
	_, uc, _ := shipmentFixture(t)
	err := uc.SignDelivery(context.Background(), operario, "no-existe", pngSignature(t))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRemision_IDMalformadoEsNoEncontrada(t *testing.T) {
	_, uc, _ := shipmentFixture(t)
	ctx := context.Background()

	_, err := uc.Get(ctx, operario, entity.RoleOperario, "xyz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, _, err = uc.DownloadPDF(ctx, "admin-1", entity.RoleAdmin, "xyz")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.SignReceipt(ctx, operario, "xyz", pngSignature(t)), domain.ErrNotFound)
	assert.ErrorIs(t, uc.SignDelivery(ctx, operario, "1; DROP", pngSignature(t)), domain.ErrNotFound)
}

func TestList_AdminVeTodasOperarioSoloLasSuyas(t *testing.T) {
	store, uc, _ := shipmentFixture(t)
	ctx := context.Background()
	store.AddShipment(entity.Shipment{CreatedBy: operario})
	store.AddShipment(entity.Shipment{CreatedBy: otro})

	all, err := uc.List(ctx, "admin-1", entity.RoleAdmin, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, 20, all.Page.Limit)

	mine, err := uc.List(ctx, operario, entity.RoleOperario, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, operario, mine.Items[0].CreatedBy)
}

func TestGet_RemisionDeOtroOperario(t *testing.T) {
	store, uc, _ := shipmentFixture(t)
	sh := store.AddShipment(entity.Shipment{CreatedBy: otro})

	_, err := uc.Get(context.Background(), operario, entity.RoleOperario, sh.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.Get(context.Background(), "admin-1", entity.RoleAdmin, sh.ID)
	assert.NoError(t, err)
}

func TestDownloadPDF_IncluyeLineas(t *testing.T) {
	store, uc, gen := shipmentFixture(t)
	ctx := context.Background()
	p := store.AddProduct(entity.Product{Name: "Tapabocas", Barcode: "111"})
	sh := store.AddShipment(entity.Shipment{CreatedBy: operario})
	require.NoError(t, store.Shipments().AddLine(ctx, &entity.ShipmentLine{ID: "l1", ShipmentID: sh.ID, ProductID: p.ID, LotNumber: "A", Quantity: 4}))

	pdf, name, err := uc.DownloadPDF(ctx, operario, entity.RoleOperario, sh.ID)
	require.NoError(t, err)

	assert.Equal(t, "remision-1.pdf", name)
	assert.NotEmpty(t, pdf)
	require.Len(t, gen.doc.Lines, 1)
	assert.Equal(t, "Tapabocas", gen.doc.Lines[0].ProductName)
}
