/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapterkit

import (
	"fmt"
	"sync"

	"github.com/suparena/adapterkit/adapter"
)

// Manager is a thread-safe collection of named adapters, for applications
// that talk to more than one backend (a primary store plus a cache, a
// per-tenant split, and so on).
type Manager struct {
	mu       sync.RWMutex
	adapters map[string]*adapter.Adapter
}

// NewManager creates an empty manager.
func NewManager() *Manager {
	return &Manager{
		adapters: make(map[string]*adapter.Adapter),
	}
}

// Register stores the adapter under the given key. Registering the same key
// twice is an error.
func (m *Manager) Register(key string, a *adapter.Adapter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.adapters[key]; exists {
		return fmt.Errorf("adapter with key %q already registered", key)
	}
	m.adapters[key] = a
	return nil
}

// Get retrieves the adapter registered under the given key.
func (m *Manager) Get(key string) (*adapter.Adapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, exists := m.adapters[key]
	if !exists {
		return nil, fmt.Errorf("adapter with key %q not found", key)
	}
	return a, nil
}

// Keys lists the registered adapter keys in unspecified order.
func (m *Manager) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.adapters))
	for key := range m.adapters {
		keys = append(keys, key)
	}
	return keys
}
