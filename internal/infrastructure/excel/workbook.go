// Package excel adapta excelize al puerto spreadsheet.Workbook.
package excel

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/lotes-remision/internal/application/spreadsheet"
)

var _ spreadsheet.Workbook = (*Workbook)(nil)

const (
	headerFill  = "1F4E78"
	borderColor = "000000"
)

// Workbook lee y escribe archivos .xlsx.
type Workbook struct{}

// NewWorkbook construye el adaptador.
func NewWorkbook() *Workbook {
	return &Workbook{}
}

// ReadFirstSheet filas de la primera hoja con valores sin formato.
func (Workbook) ReadFirstSheet(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("abrir libro: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("leer hoja %s: %w", sheets[0], err)
	}
	return rows, nil
}

// SerialToTime convierte un serial de fecha (sistema 1900).
func (Workbook) SerialToTime(serial float64) (time.Time, error) {
	return excelize.ExcelDateToTime(serial, false)
}

func borders() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Color: borderColor, Style: 1},
		{Type: "top", Color: borderColor, Style: 1},
		{Type: "right", Color: borderColor, Style: 1},
		{Type: "bottom", Color: borderColor, Style: 1},
	}
}

// WriteTable encabezado en negrita, centrado, fondo azul; filas con bordes y centradas.
func (Workbook) WriteTable(w io.Writer, sheet string, columns []spreadsheet.Column, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("renombrar hoja: %w", err)
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{headerFill}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders(),
	})
	if err != nil {
		return fmt.Errorf("estilo encabezado: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    borders(),
	})
	if err != nil {
		return fmt.Errorf("estilo celdas: %w", err)
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = c.Header
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if c.Width > 0 {
			if err := f.SetColWidth(sheet, col, col, c.Width); err != nil {
				return fmt.Errorf("ancho columna %s: %w", col, err)
			}
		}
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("escribir encabezado: %w", err)
	}
	if len(columns) == 0 {
		return f.Write(w)
	}
	last, err := excelize.ColumnNumberToName(len(columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last+"1", headerStyle); err != nil {
		return fmt.Errorf("aplicar estilo encabezado: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		r := row
		if err := f.SetSheetRow(sheet, cell, &r); err != nil {
			return fmt.Errorf("escribir fila %d: %w", i+2, err)
		}
	}
	if len(rows) > 0 {
		end := fmt.Sprintf("%s%d", last, len(rows)+1)
		if err := f.SetCellStyle(sheet, "A2", end, cellStyle); err != nil {
			return fmt.Errorf("aplicar estilo filas: %w", err)
		}
	}
	return f.Write(w)
}
