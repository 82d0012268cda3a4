package engine

import (
	"sync"

	"go.uber.org/zap"
)

// PoolConfig carries the shared wiring every pooled engine receives.
type PoolConfig struct {
	Backend  Backend
	Recorder AuditRecorder
	Logger   *zap.Logger
}

// Pool manages one engine per active session for hosts serving many
// concurrent sessions. Engines are created lazily on first use.
type Pool struct {
	mu      sync.Mutex
	cfg     PoolConfig
	engines map[string]*Engine
}

// NewPool creates an empty session pool.
func NewPool(cfg PoolConfig) *Pool {
	return &Pool{
		cfg:     cfg,
		engines: make(map[string]*Engine),
	}
}

// GetOrCreate returns the engine for sessionID, creating it on first use.
func (p *Pool) GetOrCreate(sessionID string) *Engine {
	p.mu.Lock()
	defer p.mu.Unlock()

	if eng, ok := p.engines[sessionID]; ok {
		return eng
	}

	eng := New(Config{
		SessionID: sessionID,
		Backend:   p.cfg.Backend,
		Recorder:  p.cfg.Recorder,
		Logger:    p.cfg.Logger,
	})
	p.engines[sessionID] = eng
	return eng
}

// Get returns the engine for sessionID if it exists.
func (p *Pool) Get(sessionID string) (*Engine, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	eng, ok := p.engines[sessionID]
	return eng, ok
}

// Remove drops the engine for sessionID from the pool.
func (p *Pool) Remove(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.engines, sessionID)
}

// Len reports the number of active sessions.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.engines)
}
