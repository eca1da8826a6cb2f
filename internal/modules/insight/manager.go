package insight

import (
	"sync"
	"time"

	"github.com/HugoLiuTW/wisdow-meeting-assistant-lovable-version/internal/modules/meeting"
	"go.uber.org/zap"
)

// DefaultDebounce is the delay between a field edit and its store write.
const DefaultDebounce = 800 * time.Millisecond

// Manager hands out one Controller per client session, so each session
// gets its own workflow cursor and edit buffers.
type Manager struct {
	mu          sync.Mutex
	controllers map[string]*Controller

	store    *meeting.Service
	gateway  Gateway
	debounce time.Duration
	logger   *zap.Logger
}

func NewManager(store *meeting.Service, gateway Gateway, logger *zap.Logger) *Manager {
	return &Manager{
		controllers: map[string]*Controller{},
		store:       store,
		gateway:     gateway,
		debounce:    DefaultDebounce,
		logger:      logger,
	}
}

// GetOrCreate returns the session's controller, creating it on first use.
func (m *Manager) GetOrCreate(sessionID, ownerID string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c, ok := m.controllers[sessionID]; ok {
		return c
	}
	c := NewController(ownerID, m.store, m.gateway, m.debounce, m.logger)
	m.controllers[sessionID] = c
	return c
}

// Drop discards a session's controller, flushing buffered edits first.
// Called when the session ends.
func (m *Manager) Drop(sessionID string) {
	m.mu.Lock()
	c, ok := m.controllers[sessionID]
	delete(m.controllers, sessionID)
	m.mu.Unlock()

	if ok {
		c.mu.Lock()
		c.flushPendingLocked()
		c.mu.Unlock()
	}
}
