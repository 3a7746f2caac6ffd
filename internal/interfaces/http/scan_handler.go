package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/scan"
)

// ScanHandler lectura de códigos desde imagen y suma unitaria por escáner.
type ScanHandler struct {
	uc *scan.UseCase
}

// NewScanHandler construye el handler.
func NewScanHandler(uc *scan.UseCase) *ScanHandler {
	return &ScanHandler{uc: uc}
}

// Decode godoc
// @Summary      Leer códigos de barras de una imagen
// @Tags         scan
// @Security     Bearer
// @Accept       mpfd
// @Produce      json
// @Param        image  formData  file  true  "PNG, JPEG, GIF, BMP o WebP"
// @Success      200  {object}  dto.DecodeResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/scan/decode [post]
func (h *ScanHandler) Decode(c *fiber.Ctx) error {
	data, err := readUpload(c, "image", scan.MaxUploadBytes)
	if err != nil {
		return respondError(c, err)
	}
	out, err := h.uc.DecodeImage(c.UserContext(), data)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Increment godoc
// @Summary      Sumar una unidad al último lote ingresado del producto
// @Tags         scan
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IncrementRequest  true  "Código de barras"
// @Success      200  {object}  dto.IncrementResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/scan/increment [post]
func (h *ScanHandler) Increment(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	var in dto.IncrementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Increment(c.UserContext(), operatorID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
