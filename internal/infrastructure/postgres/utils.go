package postgres

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return hasCode(err, "23505")
}

// isForeignKeyViolation verifica si un error es una violación de llave foránea (23503).
func isForeignKeyViolation(err error) bool {
	return hasCode(err, "23503")
}

// isCheckViolation verifica si un error es una violación de CHECK (23514), p. ej. cantidad negativa.
func isCheckViolation(err error) bool {
	return hasCode(err, "23514")
}

// isNumericOverflow verifica si un valor no cabe en la columna (22003), p. ej. INTEGER.
func isNumericOverflow(err error) bool {
	return hasCode(err, "22003")
}

// noRow fila inexistente, o id que PostgreSQL no acepta como UUID (22P02): tampoco existe.
func noRow(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || hasCode(err, "22P02")
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == code
	}
	return strings.Contains(err.Error(), code)
}
