package shutdown

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"
)

// Hook is one shutdown step; it should return promptly once ctx is done.
type Hook func(ctx context.Context)

// Manager collects shutdown hooks and runs them concurrently with a
// bounded wait.
type Manager struct {
	mu    sync.Mutex
	hooks []Hook
}

func NewManager() *Manager {
	return &Manager{}
}

// OnShutdown registers a hook to run during Shutdown.
func (m *Manager) OnShutdown(h Hook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, h)
}

// Shutdown runs every registered hook and blocks until they finish or
// ctx expires.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	hooks := m.hooks
	m.mu.Unlock()
	if len(hooks) == 0 {
		return
	}

	logrus.Infof("shutting down, %d hooks", len(hooks))

	var wg sync.WaitGroup
	wg.Add(len(hooks))
	for _, h := range hooks {
		go func(h Hook) {
			defer wg.Done()
			h(ctx)
		}(h)
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		logrus.Info("shutdown complete")
	case <-ctx.Done():
		logrus.Warn("shutdown timed out, exiting anyway")
	}
}
