package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/application/remision"
)

// CartHandler carrito de remisión del operario autenticado.
type CartHandler struct {
	uc *remision.CartUseCase
}

// NewCartHandler construye el handler.
func NewCartHandler(uc *remision.CartUseCase) *CartHandler {
	return &CartHandler{uc: uc}
}

// Allocation godoc
// @Summary      Vista previa de la asignación FEFO (no reserva)
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Param        id        path   string  true  "ID del producto"
// @Param        quantity  query  int     true  "Cantidad solicitada"
// @Success      200  {object}  dto.AllocationResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/products/{id}/allocation [get]
func (h *CartHandler) Allocation(c *fiber.Ctx) error {
	out, err := h.uc.Allocate(c.UserContext(), c.Params("id"), c.QueryInt("quantity", 0))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Carrito del operario
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CartResponse
// @Router       /api/cart [get]
func (h *CartHandler) List(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	out, err := h.uc.ListCart(c.UserContext(), operatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(out)
}

// Reserve godoc
// @Summary      Reservar cantidad de un producto (FEFO)
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReserveRequest  true  "Producto y cantidad"
// @Success      201   {object}  dto.ReserveResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse  "INSUFFICIENT_STOCK | PENDING_SIGNATURES"
// @Router       /api/cart [post]
func (h *CartHandler) Reserve(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	var in dto.ReserveRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.Reserve(c.UserContext(), operatorID, in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Release godoc
// @Summary      Devolver una entrada del carrito a su lote
// @Tags         cart
// @Security     Bearer
// @Param        id   path  string  true  "ID de la entrada"
// @Success      204
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/cart/{id} [delete]
func (h *CartHandler) Release(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	if err := h.uc.Release(c.UserContext(), operatorID, c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Confirm godoc
// @Summary      Confirmar el carrito como remisión
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.ConfirmResponse
// @Failure      409  {object}  dto.ErrorResponse  "PENDING_SIGNATURES"
// @Failure      422  {object}  dto.ErrorResponse  "EMPTY_CART"
// @Router       /api/cart/confirm [post]
func (h *CartHandler) Confirm(c *fiber.Ctx) error {
	operatorID, ok := operator(c)
	if !ok {
		return nil
	}
	out, err := h.uc.Confirm(c.UserContext(), operatorID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}
