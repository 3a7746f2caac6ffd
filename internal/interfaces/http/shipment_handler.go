package http

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/remision"
)

// ShipmentHandler consulta, firmas y PDF de remisiones.
type ShipmentHandler struct {
	uc *remision.ShipmentUseCase
}

// NewShipmentHandler construye el handler.
func NewShipmentHandler(uc *remision.ShipmentUseCase) *ShipmentHandler {
	return &ShipmentHandler{uc: uc}
}

// List godoc
// @Summary      Listar remisiones (admin ve todas)
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite"   default(20)
// @Param        offset  query  int  false  "Offset"   default(0)
// @Success      200  {object}  dto.ShipmentListResponse
// @Router       /api/shipments [get]
func (h *ShipmentHandler) List(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit", dto.DefaultPageSize), Offset: c.QueryInt("offset", 0)}
	out, err := h.uc.List(c.UserContext(), operatorID, GetRole(c), page)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener remisión con sus líneas
// @Tags         shipments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la remisión"
// @Success      200  {object}  dto.ShipmentResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/shipments/{id} [get]
func (h *ShipmentHandler) Get(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	out, err := h.uc.Get(c.UserContext(), operatorID, GetRole(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Descargar la remisión en PDF
// @Tags         shipments
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la remisión"
// @Success      200
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/shipments/{id}/pdf [get]
func (h *ShipmentHandler) PDF(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	data, filename, err := h.uc.DownloadPDF(c.UserContext(), operatorID, GetRole(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Send(data)
}

// SignDelivery godoc
// @Summary      Registrar firma de entrega
// @Tags         shipments
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                true  "ID de la remisión"
// @Param        body  body  dto.SignatureRequest  true  "Imagen PNG/JPEG en base64 (admite data URL)"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/shipments/{id}/delivery-signature [post]
func (h *ShipmentHandler) SignDelivery(c *fiber.Ctx) error {
	return h.sign(c, h.uc.SignDelivery)
}

// SignReceipt godoc
// @Summary      Registrar firma de recibido
// @Tags         shipments
// @Security     Bearer
// @Accept       json
// @Param        id    path  string                true  "ID de la remisión"
// @Param        body  body  dto.SignatureRequest  true  "Imagen PNG/JPEG en base64 (admite data URL)"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/shipments/{id}/receipt-signature [post]
func (h *ShipmentHandler) SignReceipt(c *fiber.Ctx) error {
	return h.sign(c, h.uc.SignReceipt)
}

func (h *ShipmentHandler) sign(c *fiber.Ctx, fn func(ctx context.Context, operatorID, id, signature string) error) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	var in dto.SignatureRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := fn(c.UserContext(), operatorID, c.Params("id"), in.Signature); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
