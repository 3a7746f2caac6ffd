package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/jhoicas/lotes-remision/internal/application/dto"
	"github.com/jhoicas/lotes-remision/internal/domain"
)

// respondError traduce errores de dominio a status y código HTTP.
func respondError(c *fiber.Ctx, err error) error {
	var (
		validation *domain.ValidationError
		shortage   *domain.InsufficientStockError
		pending    *domain.PendingSignaturesError
	)
	switch {
	case errors.As(err, &validation):
		return fail(c, fiber.StatusBadRequest, "VALIDATION", validation.Error())
	case errors.As(err, &shortage):
		return fail(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", shortage.Error())
	case errors.As(err, &pending):
		return fail(c, fiber.StatusConflict, "PENDING_SIGNATURES", pending.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		return fail(c, fiber.StatusBadRequest, "VALIDATION", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		return fail(c, fiber.StatusConflict, "INSUFFICIENT_STOCK", err.Error())
	case errors.Is(err, domain.ErrPendingSignatures):
		return fail(c, fiber.StatusConflict, "PENDING_SIGNATURES", err.Error())
	case errors.Is(err, domain.ErrDuplicate):
		return fail(c, fiber.StatusConflict, "DUPLICATE", err.Error())
	case errors.Is(err, domain.ErrConflict):
		return fail(c, fiber.StatusConflict, "CONFLICT", err.Error())
	case errors.Is(err, domain.ErrEmptyCart):
		return fail(c, fiber.StatusUnprocessableEntity, "EMPTY_CART", err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return fail(c, fiber.StatusForbidden, "FORBIDDEN", err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		return fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", err.Error())
	}
	log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
	return fail(c, fiber.StatusInternalServerError, "INTERNAL", "error interno del servidor")
}

func fail(c *fiber.Ctx, status int, code, msg string) error {
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func invalidBody(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, "INVALID_BODY", "cuerpo inválido")
}

// operator exige operario autenticado; el bool indica si se puede continuar.
func operator(c *fiber.Ctx) (string, bool) {
	id := GetOperatorID(c)
	if id == "" {
		_ = fail(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "token inválido")
		return "", false
	}
	return id, true
}
