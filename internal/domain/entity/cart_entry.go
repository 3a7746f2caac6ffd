package entity

// CartEntry cantidad reservada de un lote para la remisión en curso de un operario.
// Se crea al asignar stock y se elimina al confirmar la remisión o devolverla al lote.
type CartEntry struct {
	ID         string
	OperatorID string
	ProductID  string
	LotNumber  string
	Quantity   int

	// Solo lectura (join con products).
	ProductName string
	Barcode     string
}
