package spreadsheet_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/application/spreadsheet"
	"github.com/jhoicas/lotes-remision/internal/domain"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
	"github.com/jhoicas/lotes-remision/internal/testutil/memstore"
)

// fakeWorkbook devuelve filas fijas; las fechas seriales usan la época de Excel (1899-12-30).
type fakeWorkbook struct {
	rows    [][]string
	columns []spreadsheet.Column
	written [][]any
}

func (f *fakeWorkbook) ReadFirstSheet(io.Reader) ([][]string, error) { return f.rows, nil }

func (f *fakeWorkbook) SerialToTime(serial float64) (time.Time, error) {
	return time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC).AddDate(0, 0, int(serial)), nil
}

func (f *fakeWorkbook) WriteTable(w io.Writer, _ string, columns []spreadsheet.Column, rows [][]any) error {
	f.columns, f.written = columns, rows
	_, err := w.Write([]byte("xlsx"))
	return err
}

func TestNormalizeHeader(t *testing.T) {
	cases := map[string]string{
		"Código Barras":     "codigo_barras",
		"CODIGO_BARRAS":     "codigo_barras",
		" Registro Invima ": "registro_invima",
		"Tamaño":            "tamano",
		"Nro. Lote":         "nro_lote",
		"Fecha-Vencimiento": "fecha_vencimiento",
	}
	for in, want := range cases {
		assert.Equal(t, want, spreadsheet.NormalizeHeader(in), in)
	}
}

func TestImportProducts_AliasesYValoresPorDefecto(t *testing.T) {
	store := memstore.New()
	store.AddProduct(entity.Product{Name: "Existente", Barcode: "111"})
	wb := &fakeWorkbook{rows: [][]string{
		{"Nombre Producto", "Código Barras", "Presentación", "Tamaño", "Color", "Proveedor", "Stock Minimo"},
		{"Guante", "222", "Caja", "M", "Blanco", "ACME", "10"},
		{"Tapabocas", "333", "Bolsa", "U", "Azul", "ACME", ""},
		{"Duplicado", "111", "Caja", "M", "Blanco", "ACME", ""},
		{"Incompleto", "444", "", "M", "Blanco", "ACME", ""},
		{"", "", "", "", "", "", ""},
	}}
	uc := spreadsheet.NewUseCase(wb, store.TxRunner(), store.Products(), zerolog.Nop())

	res, err := uc.ImportProducts(context.Background(), strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, 4, res.Processed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 2, res.Skipped)
	require.Len(t, res.Warnings, 2)
	assert.Contains(t, res.Warnings[0], "fila 4")
	assert.Contains(t, res.Warnings[1], "presentación")

	p, err := store.Products().GetByBarcode(context.Background(), "333")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, spreadsheet.DefaultRegistration, p.Registration)
	assert.Equal(t, spreadsheet.DefaultDescription, p.Description)
	assert.Equal(t, spreadsheet.DefaultMinStock, p.MinStock)

	g, _ := store.Products().GetByBarcode(context.Background(), "222")
	assert.Equal(t, 10, g.MinStock)
}

func TestImportProducts_CodigoRepetidoEnElMismoArchivo(t *testing.T) {
	store := memstore.New()
	wb := &fakeWorkbook{rows: [][]string{
		{"nombre", "codigo_barras", "presentacion", "tamano", "color", "proovedor"},
		{"A", "9", "Caja", "M", "Rojo", "X"},
		{"B", "9", "Caja", "M", "Rojo", "X"},
	}}
	uc := spreadsheet.NewUseCase(wb, store.TxRunner(), store.Products(), zerolog.Nop())

	res, err := uc.ImportProducts(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Skipped)
}

func TestImportProducts_ErrorDeBDRevierteArchivo(t *testing.T) {
	store := memstore.New()
	store.Fail["ProductRepo.Create"] = errors.New("conexión cerrada")
	wb := &fakeWorkbook{rows: [][]string{
		{"nombre", "codigo_barras", "presentacion", "tamano", "color", "proveedor"},
		{"A", "9", "Caja", "M", "Rojo", "X"},
	}}
	uc := spreadsheet.NewUseCase(wb, store.TxRunner(), store.Products(), zerolog.Nop())

	_, err := uc.ImportProducts(context.Background(), strings.NewReader(""))
	require.Error(t, err)
	assert.Zero(t, store.ProductCount())
}

func TestImportProducts_HojaVacia(t *testing.T) {
	store := memstore.New()
	uc := spreadsheet.NewUseCase(&fakeWorkbook{}, store.TxRunner(), store.Products(), zerolog.Nop())

	_, err := uc.ImportProducts(context.Background(), strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestImportLots_SumaCreaYOmite(t *testing.T) {
	store := memstore.New()
	p := store.AddProduct(entity.Product{Name: "Gasa", Barcode: "555"})
	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "A", Quantity: 2})
	wb := &fakeWorkbook{rows: [][]string{
		{"Código Barras", "Nro Lote", "Cantidad", "Fecha Vencimiento"},
		{"555", "A", "3", ""},
		{"555", "B", "4.0", "45658"},
		{"555", "C", "1", "31/12/2026"},
		{"555", "D", "1", "2027-01-15"},
		{"999", "Z", "1", ""},
		{"555", "E", "", ""},
		{"555", "F", "2", "mañana"},
	}}
	uc := spreadsheet.NewUseCase(wb, store.TxRunner(), store.Products(), zerolog.Nop())

	res, err := uc.ImportLots(context.Background(), strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, 7, res.Processed)
	assert.Equal(t, 1, res.Updated)
	assert.Equal(t, 3, res.Created)
	assert.Equal(t, 3, res.Skipped)
	assert.Equal(t, 5, store.LotQuantity(p.ID, "A"))

	b := store.FindLot(p.ID, "B")
	require.NotNil(t, b)
	assert.Equal(t, 4, b.Quantity)
	require.NotNil(t, b.ExpiryDate)
	assert.Equal(t, "2025-01-01", b.ExpiryDate.Format("2006-01-02"))

	c := store.FindLot(p.ID, "C")
	require.NotNil(t, c.ExpiryDate)
	assert.Equal(t, "2026-12-31", c.ExpiryDate.Format("2006-01-02"))
}

func TestImportLots_CantidadFueraDeRangoSoloOmiteLaFila(t *testing.T) {
	store := memstore.New()
	p := store.AddProduct(entity.Product{Name: "Gasa", Barcode: "555"})
	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "LLENO", Quantity: entity.MaxQuantity})
	wb := &fakeWorkbook{rows: [][]string{
		{"Código Barras", "Nro Lote", "Cantidad"},
		{"555", "A", "7"},
		{"555", "B", "3000000000"},
		{"555", "C", "1e30"},
		{"555", "LLENO", "1"},
		{"555", "D", "2"},
	}}
	uc := spreadsheet.NewUseCase(wb, store.TxRunner(), store.Products(), zerolog.Nop())

	res, err := uc.ImportLots(context.Background(), strings.NewReader(""))
	require.NoError(t, err)

	assert.Equal(t, 5, res.Processed)
	assert.Equal(t, 2, res.Created)
	assert.Equal(t, 3, res.Skipped)
	require.Len(t, res.Warnings, 3)
	assert.Contains(t, res.Warnings[0], "fila 3")
	assert.Contains(t, res.Warnings[2], "cantidad máxima")
	assert.Equal(t, 7, store.LotQuantity(p.ID, "A"))
	assert.Equal(t, 2, store.LotQuantity(p.ID, "D"))
	assert.Equal(t, entity.MaxQuantity, store.LotQuantity(p.ID, "LLENO"))
	assert.Nil(t, store.FindLot(p.ID, "B"))
}

func TestExportProducts_IncluyeStockTotal(t *testing.T) {
	store := memstore.New()
	p := store.AddProduct(entity.Product{Name: "Gasa", Barcode: "555", MinStock: 3})
	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "A", Quantity: 2})
	store.AddLot(entity.Lot{ProductID: p.ID, LotNumber: "B", Quantity: 5})
	wb := &fakeWorkbook{}
	uc := spreadsheet.NewUseCase(wb, store.TxRunner(), store.Products(), zerolog.Nop())

	var buf bytes.Buffer
	require.NoError(t, uc.ExportProducts(context.Background(), &buf))

	require.Len(t, wb.written, 1)
	assert.Equal(t, 7, wb.written[0][3])
	assert.Equal(t, "Cantidad", wb.columns[3].Header)
	assert.Equal(t, "xlsx", buf.String())
}
