package transfer

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Mode names a transfer flow.
type Mode string

// Transfer modes.
const (
	ModeStream  Mode = "stream"
	ModeWatch   Mode = "watch"
	ModeDecrypt Mode = "decrypt"
)

// Transfer is a running flow.
type Transfer struct {
	ID        string
	Mode      Mode
	URL       string
	StartedAt time.Time

	cancel context.CancelFunc
}

// Cancel stops the transfer.
func (t *Transfer) Cancel() { t.cancel() }

// Manager tracks active transfers.
type Manager struct {
	log       *slog.Logger
	mu        sync.RWMutex
	transfers map[string]*Transfer
}

// NewManager creates a transfer manager. If log is nil, slog.Default() is
// used.
func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		log:       log.With("component", "transfer-manager"),
		transfers: make(map[string]*Transfer),
	}
}

// Create registers a transfer under a fresh id. The returned context is
// cancelled by Transfer.Cancel, CancelAll, or the end of ctx.
func (m *Manager) Create(ctx context.Context, mode Mode, url string) (*Transfer, context.Context) {
	tctx, cancel := context.WithCancel(ctx)
	t := &Transfer{
		ID:        uuid.NewString(),
		Mode:      mode,
		URL:       url,
		StartedAt: time.Now(),
		cancel:    cancel,
	}

	m.mu.Lock()
	m.transfers[t.ID] = t
	m.mu.Unlock()

	m.log.Debug("transfer created", "transfer", t.ID, "mode", mode)
	return t, tctx
}

// Remove removes a transfer and releases its context.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	t, ok := m.transfers[id]
	if ok {
		delete(m.transfers, id)
	}
	m.mu.Unlock()

	if ok {
		t.cancel()
		m.log.Debug("transfer removed", "transfer", id, "mode", t.Mode,
			"duration", time.Since(t.StartedAt).Round(time.Millisecond))
	}
}

// List returns all active transfers, oldest first.
func (m *Manager) List() []*Transfer {
	m.mu.RLock()
	out := make([]*Transfer, 0, len(m.transfers))
	for _, t := range m.transfers {
		out = append(out, t)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// CancelAll cancels every active transfer.
func (m *Manager) CancelAll() {
	for _, t := range m.List() {
		t.Cancel()
	}
}
