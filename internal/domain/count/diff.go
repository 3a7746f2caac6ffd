package count

// State estado de una sesión de conteo.
type State string

const (
	StateIdle       State = "idle"
	StateCounting   State = "counting"
	StateFinalizing State = "finalizing"
)

// TallyEntry cantidad escaneada acumulada para una clave.
type TallyEntry struct {
	Key   ScanKey
	Count int
}

// Discrepancy diferencia entre lo escaneado y lo persistido para una clave.
type Discrepancy struct {
	Key       ScanKey
	Persisted int
	Scanned   int
	Delta     int // Scanned - Persisted
}

// Accumulate suma keys a un conteo existente. El orden de los códigos no altera el resultado.
func Accumulate(tally map[ScanKey]int, keys []ScanKey) {
	for _, k := range keys {
		tally[k]++
	}
}

// Refs lotes distintos referenciados por el conteo, en orden de aparición.
func Refs(entries []TallyEntry) []LotRef {
	seen := make(map[LotRef]struct{}, len(entries))
	refs := make([]LotRef, 0, len(entries))
	for _, e := range entries {
		r := e.Key.Ref()
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		refs = append(refs, r)
	}
	return refs
}

// Diff compara el conteo con las cantidades persistidas (lote ausente = 0) y devuelve solo
// las claves con diferencia distinta de cero, en el orden del conteo.
func Diff(entries []TallyEntry, persisted map[LotRef]int) []Discrepancy {
	out := make([]Discrepancy, 0)
	for _, e := range entries {
		p := persisted[e.Key.Ref()]
		if d := e.Count - p; d != 0 {
			out = append(out, Discrepancy{Key: e.Key, Persisted: p, Scanned: e.Count, Delta: d})
		}
	}
	return out
}
