package entity

import (
	"math"
	"time"
)

// MaxQuantity tope de cantidad de un lote o una línea (columnas INTEGER).
const MaxQuantity = math.MaxInt32

// Lot representa un lote de un producto con su propia cantidad y vencimiento.
// (ProductID, LotNumber) es único; reingresar el mismo lote suma cantidad.
type Lot struct {
	ID         string
	ProductID  string
	LotNumber  string
	Quantity   int        // nunca negativo
	ExpiryDate *time.Time // nil = sin vencimiento
	IngestedAt time.Time
}
