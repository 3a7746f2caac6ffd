// Package spreadsheet importa productos y lotes desde hojas de cálculo y exporta el catálogo.
package spreadsheet

import (
	"io"
	"time"
)

// Workbook puerto de salida hacia la librería de hojas de cálculo.
type Workbook interface {
	// ReadFirstSheet devuelve las filas de la primera hoja con los valores crudos
	// (las fechas llegan como número serial).
	ReadFirstSheet(r io.Reader) ([][]string, error)
	// SerialToTime convierte un número serial de fecha de Excel.
	SerialToTime(serial float64) (time.Time, error)
	// WriteTable escribe un libro con una hoja: encabezado con estilo y filas con bordes.
	WriteTable(w io.Writer, sheet string, columns []Column, rows [][]any) error
}

// Column encabezado y ancho de una columna exportada.
type Column struct {
	Header string
	Width  float64
}
