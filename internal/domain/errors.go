package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto con el estado actual")
	ErrInsufficientStock = errors.New("stock insuficiente")
	ErrEmptyCart         = errors.New("no hay productos en el carrito")
	ErrPendingSignatures = errors.New("remisiones pendientes por firmar")
	ErrTransactionFailed = errors.New("fallo de transacción")
)

// InsufficientStockError detalla cuánto faltó para cubrir una solicitud.
// errors.Is(err, ErrInsufficientStock) sigue funcionando.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Shortfall int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente: se solicitaron %d unidades, faltan %d", e.Requested, e.Shortfall)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// PendingSignaturesError bloqueo blando: el operario tiene demasiadas remisiones sin firma de recibido.
type PendingSignaturesError struct {
	Pending int
	Limit   int
}

func (e *PendingSignaturesError) Error() string {
	return fmt.Sprintf("tienes %d remisión(es) pendiente(s) por firmar como recibido; completa esa(s) firma(s) antes de continuar", e.Pending)
}

func (e *PendingSignaturesError) Unwrap() error { return ErrPendingSignatures }

// ValidationError indica el campo que no pasó la validación.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Invalid construye un ValidationError.
func Invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
