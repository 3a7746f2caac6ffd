package spreadsheet

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Campos canónicos reconocidos en los encabezados.
const (
	colName         = "name"
	colBarcode      = "barcode"
	colPresentation = "presentation"
	colSize         = "size"
	colColor        = "color"
	colRegistration = "registration"
	colSupplier     = "supplier"
	colDescription  = "description"
	colMinStock     = "min_stock"
	colLotNumber    = "lot_number"
	colQuantity     = "quantity"
	colExpiry       = "expiry"
)

// aliases encabezado normalizado -> campo canónico.
var aliases = map[string]string{
	"nombre":               colName,
	"nombre_producto":      colName,
	"name":                 colName,
	"codigo_barras":        colBarcode,
	"codigo_de_barras":     colBarcode,
	"barcode":              colBarcode,
	"presentacion":         colPresentation,
	"presentation":         colPresentation,
	"tamano":               colSize,
	"talla":                colSize,
	"size":                 colSize,
	"color":                colColor,
	"reg_invima":           colRegistration,
	"registro_invima":      colRegistration,
	"registro":             colRegistration,
	"registration":         colRegistration,
	"proveedor":            colSupplier,
	"proovedor":            colSupplier,
	"supplier":             colSupplier,
	"descripcion":          colDescription,
	"description":          colDescription,
	"stock_minimo":         colMinStock,
	"min_stock":            colMinStock,
	"nro_lote":             colLotNumber,
	"numero_lote":          colLotNumber,
	"numero_de_lote":       colLotNumber,
	"lote":                 colLotNumber,
	"lot_number":           colLotNumber,
	"cantidad":             colQuantity,
	"quantity":             colQuantity,
	"fecha_vencimiento":    colExpiry,
	"fecha_de_vencimiento": colExpiry,
	"vencimiento":          colExpiry,
	"expiry_date":          colExpiry,
}

// NormalizeHeader minúsculas, sin tildes y con "_" en lugar de espacios o guiones.
// "Código Barras" -> "codigo_barras".
func NormalizeHeader(h string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, err := transform.String(t, h)
	if err != nil {
		s = h
	}
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '-' || r == '.' {
			return '_'
		}
		return r
	}, s)
	for strings.Contains(s, "__") {
		s = strings.ReplaceAll(s, "__", "_")
	}
	return strings.Trim(s, "_")
}

// columnIndex posición de cada campo canónico presente en el encabezado.
func columnIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		if field, ok := aliases[NormalizeHeader(h)]; ok {
			if _, dup := idx[field]; !dup {
				idx[field] = i
			}
		}
	}
	return idx
}

// record fila indexada por campo canónico.
type record struct {
	cells []string
	index map[string]int
}

func (r record) get(field string) string {
	i, ok := r.index[field]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r record) empty() bool {
	for _, c := range r.cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
