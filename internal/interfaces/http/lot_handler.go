package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/usecase"
)

// LotHandler alta, ajuste y baja de lotes.
type LotHandler struct {
	uc *usecase.LotUseCase
}

// NewLotHandler construye el handler.
func NewLotHandler(uc *usecase.LotUseCase) *LotHandler {
	return &LotHandler{uc: uc}
}

// Add godoc
// @Summary      Ingresar lote (suma si ya existe)
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AddLotRequest  true  "Producto, lote, cantidad y vencimiento AAAA-MM-DD"
// @Success      201   {object}  dto.AddLotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/lots [post]
func (h *LotHandler) Add(c *fiber.Ctx) error {
	var in dto.AddLotRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Add(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusCreated
	if out.Existed {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(out)
}

// SetQuantity godoc
// @Summary      Ajustar cantidad de un lote
// @Tags         lots
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string  true  "ID del lote"
// @Param        body  body  dto.SetLotQuantityRequest  true  "Nueva cantidad"
// @Success      200   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [put]
func (h *LotHandler) SetQuantity(c *fiber.Ctx) error {
	var in dto.SetLotQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.SetQuantity(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar lote (admin)
// @Tags         lots
// @Security     Bearer
// @Param        id   path  string  true  "ID del lote"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/lots/{id} [delete]
func (h *LotHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ListByProduct godoc
// @Summary      Lotes de un producto en orden de consumo
// @Tags         lots
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del producto"
// @Success      200  {array}  dto.LotResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/lots [get]
func (h *LotHandler) ListByProduct(c *fiber.Ctx) error {
	out, err := h.uc.ListByProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}
