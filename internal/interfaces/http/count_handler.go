package http

import (
	"github.com/gofiber/fiber/v2"

	appcount "github.com/jhoicas/lotes-remision/internal/application/count"
	"github.com/jhoicas/lotes-remision/internal/application/dto"
)

// CountHandler conteo cíclico por escáner.
type CountHandler struct {
	uc *appcount.UseCase
}

// NewCountHandler construye el handler.
func NewCountHandler(uc *appcount.UseCase) *CountHandler {
	return &CountHandler{uc: uc}
}

// Start godoc
// @Summary      Iniciar sesión de conteo
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.StartCountResponse
// @Router       /api/counts [post]
func (h *CountHandler) Start(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	return c.Status(fiber.StatusCreated).JSON(h.uc.Start(c.UserContext(), operatorID))
}

// Status godoc
// @Summary      Estado y conteo actual de la sesión
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        session  path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.CountStatusResponse
// @Router       /api/counts/{session} [get]
func (h *CountHandler) Status(c *fiber.Ctx) error {
	out, err := h.uc.Status(c.UserContext(), c.Params("session"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Tally godoc
// @Summary      Registrar códigos escaneados ("barcode | lote | vencimiento")
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        session  path  string            true  "ID de la sesión"
// @Param        body     body  dto.TallyRequest  true  "Códigos"
// @Success      200  {object}  dto.CountStatusResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/counts/{session}/codes [post]
func (h *CountHandler) Tally(c *fiber.Ctx) error {
	var in dto.TallyRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Tally(c.UserContext(), c.Params("session"), in.Codes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Finalize godoc
// @Summary      Cerrar el conteo y obtener las diferencias
// @Tags         counts
// @Security     Bearer
// @Produce      json
// @Param        session  path  string  true  "ID de la sesión"
// @Success      200  {object}  dto.FinalizeResponse
// @Router       /api/counts/{session}/finalize [post]
func (h *CountHandler) Finalize(c *fiber.Ctx) error {
	out, err := h.uc.Finalize(c.UserContext(), c.Params("session"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Discard godoc
// @Summary      Descartar el conteo de la sesión
// @Tags         counts
// @Security     Bearer
// @Param        session  path  string  true  "ID de la sesión"
// @Success      204
// @Router       /api/counts/{session} [delete]
func (h *CountHandler) Discard(c *fiber.Ctx) error {
	if err := h.uc.Discard(c.UserContext(), c.Params("session")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Apply godoc
// @Summary      Aplicar diferencias aprobadas al inventario
// @Tags         counts
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ApplyCountRequest  true  "Diferencias a aplicar"
// @Success      200  {object}  dto.ApplyCountResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/counts/apply [post]
func (h *CountHandler) Apply(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	var in dto.ApplyCountRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Apply(c.UserContext(), operatorID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
