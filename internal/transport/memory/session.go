package memory

import (
	"context"
	"sync/atomic"

	"github.com/kailas-cloud/vecsearch/internal/domain"
)

// Session is one client's view of an Engine. Closing it leaves the
// Engine and its tables untouched.
type Session struct {
	*Engine
	closed atomic.Bool
}

// Session opens a new Session on e.
func (e *Engine) Session() *Session {
	return &Session{Engine: e}
}

// Ping fails once the session is closed.
func (s *Session) Ping(ctx context.Context) error {
	if s.closed.Load() {
		return domain.NewStatus(domain.StatusConnectFailed, "session closed")
	}
	return s.Engine.Ping(ctx)
}

// Close ends the session.
func (s *Session) Close() error {
	s.closed.Store(true)
	return nil
}
