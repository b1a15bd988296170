package memory

import (
	"context"
	"sync"

	"github.com/mzawada/trainload/internal/domain/session"
)

type SessionRepository struct {
	mu    sync.RWMutex
	items []session.Session
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{}
}

func (r *SessionRepository) ReplaceAll(_ context.Context, sessions []session.Session) error {
	items := make([]session.Session, len(sessions))
	copy(items, sessions)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = items
	return nil
}

func (r *SessionRepository) List(_ context.Context) ([]session.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]session.Session, len(r.items))
	copy(out, r.items)
	return out, nil
}
