package config

import "sync"

// Holder provides concurrent access to a reloadable Config.
type Holder struct {
	mu   sync.RWMutex
	cfg  *Config
	path string
}

// NewHolder wraps an already-loaded Config for later reloads from path.
func NewHolder(cfg *Config, path string) *Holder {
	return &Holder{cfg: cfg, path: path}
}

// Get returns the current Config.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Reload re-runs the load hierarchy from the held path and swaps the
// config in. On error the previous config is kept.
func (h *Holder) Reload() error {
	cfg, err := LoadFrom(h.path)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()
	return nil
}
