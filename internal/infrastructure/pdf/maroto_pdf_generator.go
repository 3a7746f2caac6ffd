// Package pdf genera el documento imprimible de la remisión.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: REMISIÓN + N°       │  Código de barras + Fecha     │
//	│  ─────────────────────────────────────────────────────────  │
//	│  Elaborada por / Entregada por / Recibida por                │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Código | Lote | Cantidad                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FIRMAS: Entrega (imagen) │ Recibido (imagen)                │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/image"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/extension"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/lotes-remision/internal/application/remision"
	"github.com/jhoicas/lotes-remision/internal/domain/entity"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorWhite   = &props.Color{Red: 255, Green: 255, Blue: 255}
)

const dateLayout = "02/01/2006 15:04"

// ── Generator ─────────────────────────────────────────────────────────────────

var _ remision.ShipmentPDFGenerator = (*MarotoPDFGenerator)(nil)

// MarotoPDFGenerator implementa remision.ShipmentPDFGenerator usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// GenerateShipmentPDF genera el PDF y devuelve sus bytes.
func (g *MarotoPDFGenerator) GenerateShipmentPDF(_ context.Context, doc *remision.ShipmentDocument) ([]byte, error) {
	if doc == nil || doc.Shipment == nil {
		return nil, fmt.Errorf("pdf: remisión vacía")
	}
	s := doc.Shipment

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(fmt.Sprintf("Remisión %d", s.Number), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(partiesRow(s))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableDetailRows(doc.Lines)...)
	m.AddRows(totalRow(doc.Lines))

	m.AddRows(line.NewRow(6))
	m.AddRows(signatureRows(s)...)

	out, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return out.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

// headerRow: título y número (izq), código de barras del número y fecha (der).
func headerRow(s *entity.Shipment) core.Row {
	number := strconv.FormatInt(s.Number, 10)
	return row.New(24).Add(
		col.New(7).Add(
			text.New("REMISIÓN", props.Text{
				Style: fontstyle.Bold, Size: 14, Color: colorPrimary, Top: 1,
			}),
			text.New("No. "+number, props.Text{
				Style: fontstyle.Bold, Size: 12, Top: 10,
			}),
			text.New("Fecha: "+s.CreatedAt.Format(dateLayout), props.Text{
				Size: 8, Top: 17, Color: colorGray,
			}),
		),
		col.New(5).Add(code.NewBar(number, props.Barcode{Percent: 90, Center: true})),
	)
}

// partiesRow: quién elaboró, entregó y recibió.
func partiesRow(s *entity.Shipment) core.Row {
	party := func(label, name string, at string) core.Col {
		return col.New(4).Add(
			text.New(label, props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(nonEmpty(name, "—"), props.Text{Size: 9, Top: 6}),
			text.New(at, props.Text{Size: 7, Top: 11, Color: colorGray}),
		)
	}
	return row.New(16).Add(
		party("ELABORADA POR", s.CreatedByName, ""),
		party("ENTREGADA POR", s.DeliveredByName, formatTime(s.DeliveredAt)),
		party("RECIBIDA POR", s.ReceivedByName, formatTime(s.ReceivedAt)),
	)
}

// tableHeaderRow: cabecera de la tabla de líneas.
func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorWhite, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 5, align.Left),
		h("Código", 3, align.Left),
		h("Lote", 2, align.Left),
		h("Cantidad", 2, align.Right),
	).WithStyle(&props.Cell{BackgroundColor: colorPrimary})
}

// tableDetailRows: una fila por línea de la remisión.
func tableDetailRows(lines []*entity.ShipmentLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for _, l := range lines {
		result = append(result, row.New(7).Add(
			col.New(5).Add(text.New(l.ProductName, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(3).Add(text.New(l.Barcode, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(l.LotNumber, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(strconv.Itoa(l.Quantity), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalRow(lines []*entity.ShipmentLine) core.Row {
	total := 0
	for _, l := range lines {
		total += l.Quantity
	}
	return row.New(8).Add(
		col.New(10).Add(text.New("TOTAL UNIDADES:", props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2, Right: 2, Color: colorPrimary,
		})),
		col.New(2).Add(text.New(strconv.Itoa(total), props.Text{
			Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 2, Right: 1, Color: colorPrimary,
		})),
	)
}

// signatureRows: bloques de firma con la imagen cuando existe.
func signatureRows(s *entity.Shipment) []core.Row {
	return []core.Row{
		row.New(30).Add(signatureCol(s.DeliverySignature), signatureCol(s.ReceiptSignature)),
		row.New(1).Add(
			col.New(6).Add(line.New(props.Line{Color: colorGray, Thickness: 0.3, SizePercent: 80})),
			col.New(6).Add(line.New(props.Line{Color: colorGray, Thickness: 0.3, SizePercent: 80})),
		),
		row.New(6).Add(
			col.New(6).Add(text.New("Firma de entrega", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray})),
			col.New(6).Add(text.New("Firma de recibido", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray})),
		),
	}
}

func signatureCol(img []byte) core.Col {
	c := col.New(6)
	ext, ok := imageExtension(img)
	if !ok {
		return c
	}
	return c.Add(image.NewFromBytes(img, ext, props.Rect{Percent: 85, Center: true}))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func imageExtension(img []byte) (extension.Type, bool) {
	if len(img) == 0 {
		return "", false
	}
	switch http.DetectContentType(img) {
	case "image/png":
		return extension.Png, true
	case "image/jpeg":
		return extension.Jpg, true
	}
	return "", false
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
