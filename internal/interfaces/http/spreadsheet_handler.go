package http

import (
	"bytes"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-remision/internal/application/spreadsheet"
)

const (
	maxSpreadsheetBytes = 10 << 20
	xlsxContentType     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SpreadsheetHandler importación y exportación en Excel.
type SpreadsheetHandler struct {
	uc *spreadsheet.UseCase
}

// NewSpreadsheetHandler construye el handler.
func NewSpreadsheetHandler(uc *spreadsheet.UseCase) *SpreadsheetHandler {
	return &SpreadsheetHandler{uc: uc}
}

// ImportProducts godoc
// @Summary      Importar productos desde Excel
// @Tags         products
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        file  formData  file  true  "Libro .xlsx"
// @Success      200   {object}  dto.ImportResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/products/import [post]
func (h *SpreadsheetHandler) ImportProducts(c *fiber.Ctx) error {
	data, err := readUpload(c, "file", maxSpreadsheetBytes)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ImportProducts(c.UserContext(), bytes.NewReader(data))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ImportLots godoc
// @Summary      Importar lotes desde Excel
// @Tags         lots
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        file  formData  file  true  "Libro .xlsx"
// @Success      200   {object}  dto.ImportResult
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/lots/import [post]
func (h *SpreadsheetHandler) ImportLots(c *fiber.Ctx) error {
	data, err := readUpload(c, "file", maxSpreadsheetBytes)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.ImportLots(c.UserContext(), bytes.NewReader(data))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// ExportProducts godoc
// @Summary      Exportar catálogo a Excel
// @Tags         products
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success      200
// @Router       /api/products/export [get]
func (h *SpreadsheetHandler) ExportProducts(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.uc.ExportProducts(c.UserContext(), &buf); err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, xlsxContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="productos.xlsx"`)
	return c.Send(buf.Bytes())
}
