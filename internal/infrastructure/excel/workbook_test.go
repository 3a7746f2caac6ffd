package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/lotes-remision/internal/application/spreadsheet"
)

func TestWorkbook_WriteThenRead(t *testing.T) {
	wb := NewWorkbook()
	var buf bytes.Buffer
	cols := []spreadsheet.Column{{Header: "Nombre", Width: 30}, {Header: "Cantidad", Width: 10}}
	err := wb.WriteTable(&buf, "Productos", cols, [][]any{
		{"Gasa estéril", 12},
		{"Jeringa 5ml", 0},
	})
	require.NoError(t, err)

	rows, err := wb.ReadFirstSheet(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Nombre", "Cantidad"}, rows[0])
	assert.Equal(t, []string{"Gasa estéril", "12"}, rows[1])
	assert.Equal(t, "Jeringa 5ml", rows[2][0])
}

func TestWorkbook_ReadFirstSheet_Invalid(t *testing.T) {
	_, err := NewWorkbook().ReadFirstSheet(bytes.NewReader([]byte("no es un xlsx")))
	assert.Error(t, err)
}

func TestWorkbook_SerialToTime(t *testing.T) {
	got, err := NewWorkbook().SerialToTime(45658)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), got.UTC())
}
