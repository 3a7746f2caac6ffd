package repository

import (
	"context"

	"github.com/jhoicas/lotes-remision/internal/domain/count"
)

// TallyStore guarda los conteos por escáner de cada sesión de conteo.
// Las implementaciones serializan las operaciones sobre una misma sesión.
type TallyStore interface {
	// Add suma las claves al conteo de la sesión y devuelve el conteo resultante.
	Add(ctx context.Context, sessionID string, keys []count.ScanKey) ([]count.TallyEntry, error)
	// Drain entrega el conteo a fn con la sesión bloqueada; solo si fn devuelve nil la sesión
	// queda vacía. Si fn falla el conteo se conserva. lots lee sobre la misma transacción que
	// sostiene el candado; es nil cuando el almacén no vive en la base de datos.
	Drain(ctx context.Context, sessionID string, fn func(entries []count.TallyEntry, lots LotRepository) error) error
	// State estado actual y número de claves distintas.
	State(ctx context.Context, sessionID string) (count.State, int, error)
	Discard(ctx context.Context, sessionID string) error
}
