package inventory

import (
	"slices"
	"strings"
	"time"
)

// LotStock cantidad disponible de un lote, tal como la entrega el repositorio.
type LotStock struct {
	LotNumber  string
	Quantity   int
	ExpiryDate *time.Time
	IngestedAt time.Time
}

// AllocationLine cantidad a tomar de un lote.
type AllocationLine struct {
	LotNumber string `json:"lot_number"`
	Quantity  int    `json:"quantity"`
}

// Allocation resultado de asignar una cantidad a los lotes de un producto.
type Allocation struct {
	Requested int              `json:"requested"`
	Lines     []AllocationLine `json:"lines"`
	Shortfall int              `json:"shortfall"`
}

// Complete indica si la asignación cubre toda la cantidad solicitada.
func (a Allocation) Complete() bool { return a.Shortfall == 0 }

// Allocated suma de las cantidades asignadas.
func (a Allocation) Allocated() int {
	n := 0
	for _, l := range a.Lines {
		n += l.Quantity
	}
	return n
}

// Allocate reparte requested entre los lotes consumiendo primero el que vence antes (FEFO).
// Orden: vencimiento ascendente, lotes sin vencimiento al final, luego ingreso más antiguo y
// número de lote. Lotes repetidos se agrupan sumando cantidades. No muta nada: el caller
// decide si aplica la asignación (solo debe hacerlo cuando Complete() es true).
func Allocate(lots []LotStock, requested int) Allocation {
	out := Allocation{Requested: requested}
	if requested <= 0 {
		return out
	}
	remaining := requested
	for _, lot := range SortFEFO(groupByLot(lots)) {
		if remaining == 0 {
			break
		}
		take := min(lot.Quantity, remaining)
		out.Lines = append(out.Lines, AllocationLine{LotNumber: lot.LotNumber, Quantity: take})
		remaining -= take
	}
	out.Shortfall = remaining
	return out
}

// SortFEFO ordena una copia de los lotes en el orden de consumo.
func SortFEFO(lots []LotStock) []LotStock {
	sorted := slices.Clone(lots)
	slices.SortStableFunc(sorted, compareFEFO)
	return sorted
}

func compareFEFO(a, b LotStock) int {
	switch {
	case a.ExpiryDate != nil && b.ExpiryDate == nil:
		return -1
	case a.ExpiryDate == nil && b.ExpiryDate != nil:
		return 1
	case a.ExpiryDate != nil && b.ExpiryDate != nil:
		if c := a.ExpiryDate.Compare(*b.ExpiryDate); c != 0 {
			return c
		}
	}
	if c := a.IngestedAt.Compare(b.IngestedAt); c != 0 {
		return c
	}
	return strings.Compare(a.LotNumber, b.LotNumber)
}

// groupByLot descarta lotes vacíos y agrupa por número de lote (vencimiento e ingreso más tempranos).
func groupByLot(lots []LotStock) []LotStock {
	idx := make(map[string]int, len(lots))
	grouped := make([]LotStock, 0, len(lots))
	for _, l := range lots {
		if l.Quantity <= 0 {
			continue
		}
		i, ok := idx[l.LotNumber]
		if !ok {
			idx[l.LotNumber] = len(grouped)
			grouped = append(grouped, l)
			continue
		}
		g := &grouped[i]
		g.Quantity += l.Quantity
		if l.ExpiryDate != nil && (g.ExpiryDate == nil || l.ExpiryDate.Before(*g.ExpiryDate)) {
			g.ExpiryDate = l.ExpiryDate
		}
		if l.IngestedAt.Before(g.IngestedAt) {
			g.IngestedAt = l.IngestedAt
		}
	}
	return grouped
}
