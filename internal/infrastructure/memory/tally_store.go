// Package memory implementa el almacén de conteos en memoria del proceso.
package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/jhoicas/lotes-remision/internal/domain/count"
	"github.com/jhoicas/lotes-remision/internal/domain/repository"
)

var _ repository.TallyStore = (*TallyStore)(nil)

// TallyStore conteos por sesión con un mutex por sesión. Una sesión finalizada se elimina;
// un Add posterior con el mismo id empieza de cero.
type TallyStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

type session struct {
	mu         sync.Mutex
	counts     map[count.ScanKey]int
	order      []count.ScanKey
	finalizing atomic.Bool
	closed     bool
}

// NewTallyStore crea el almacén vacío.
func NewTallyStore() *TallyStore {
	return &TallyStore{sessions: map[string]*session{}}
}

func (s *TallyStore) get(id string, create bool) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok && create {
		sess = &session{counts: map[count.ScanKey]int{}}
		s.sessions[id] = sess
	}
	return sess
}

func (s *TallyStore) remove(id string, sess *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] == sess {
		delete(s.sessions, id)
	}
}

// lock devuelve la sesión bloqueada, reintentando si otra goroutine la cerró entre get y Lock.
func (s *TallyStore) lock(ctx context.Context, id string, create bool) (*session, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sess := s.get(id, create)
		if sess == nil {
			return nil, nil
		}
		sess.mu.Lock()
		if !sess.closed {
			return sess, nil
		}
		sess.mu.Unlock()
	}
}

// Add suma las claves al conteo de la sesión.
func (s *TallyStore) Add(ctx context.Context, sessionID string, keys []count.ScanKey) ([]count.TallyEntry, error) {
	sess, err := s.lock(ctx, sessionID, true)
	if err != nil {
		return nil, err
	}
	defer sess.mu.Unlock()
	for _, k := range keys {
		if _, ok := sess.counts[k]; !ok {
			sess.order = append(sess.order, k)
		}
		sess.counts[k]++
	}
	return sess.entries(), nil
}

// Drain entrega el conteo a fn con la sesión bloqueada y la elimina solo si fn no falla.
func (s *TallyStore) Drain(ctx context.Context, sessionID string, fn func([]count.TallyEntry, repository.LotRepository) error) error {
	sess, err := s.lock(ctx, sessionID, false)
	if err != nil {
		return err
	}
	if sess == nil {
		return fn(nil, nil)
	}
	defer sess.mu.Unlock()

	sess.finalizing.Store(true)
	defer sess.finalizing.Store(false)
	if err := fn(sess.entries(), nil); err != nil {
		return err
	}
	sess.closed = true
	sess.counts, sess.order = nil, nil
	s.remove(sessionID, sess)
	return nil
}

// State no espera a una finalización en curso: la reporta como StateFinalizing.
func (s *TallyStore) State(_ context.Context, sessionID string) (count.State, int, error) {
	sess := s.get(sessionID, false)
	if sess == nil {
		return count.StateIdle, 0, nil
	}
	if sess.finalizing.Load() {
		return count.StateFinalizing, 0, nil
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed || len(sess.order) == 0 {
		return count.StateIdle, 0, nil
	}
	return count.StateCounting, len(sess.order), nil
}

// Discard elimina la sesión y su conteo.
func (s *TallyStore) Discard(ctx context.Context, sessionID string) error {
	sess, err := s.lock(ctx, sessionID, false)
	if err != nil || sess == nil {
		return err
	}
	defer sess.mu.Unlock()
	sess.closed = true
	s.remove(sessionID, sess)
	return nil
}

func (sess *session) entries() []count.TallyEntry {
	out := make([]count.TallyEntry, 0, len(sess.order))
	for _, k := range sess.order {
		out = append(out, count.TallyEntry{Key: k, Count: sess.counts[k]})
	}
	return out
}
