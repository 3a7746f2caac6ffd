package entity

import "github.com/google/uuid"

// ValidID indica si id tiene forma de UUID. Productos, lotes, entradas de carrito y remisiones
// usan columnas UUID: un id que no lo es no puede existir.
func ValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
