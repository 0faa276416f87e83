package connection

import (
	"fmt"
	"net/url"
	"sync"
)

// Manager tracks the server profile the interactive shell is pointed at.
type Manager struct {
	mu      sync.RWMutex
	current *Connection
}

// Connection is a named portal server.
type Connection struct {
	Name   string
	Server string
	CAFile string
}

// NewManager creates a new connection manager.
func NewManager() *Manager {
	return &Manager{}
}

// Connect validates and selects a server. The server URL is normalised.
func (m *Manager) Connect(conn *Connection) error {
	if conn == nil || conn.Server == "" {
		return fmt.Errorf("server is required")
	}
	server := NormalizeServer(conn.Server)
	u, err := url.Parse(server)
	if err != nil || u.Host == "" {
		return fmt.Errorf("invalid server address %q", conn.Server)
	}

	c := *conn
	c.Server = server
	if c.Name == "" {
		c.Name = u.Host
	}

	m.mu.Lock()
	m.current = &c
	m.mu.Unlock()
	return nil
}

// Disconnect clears the current connection.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	m.current = nil
	m.mu.Unlock()
}

// Current returns the current connection.
func (m *Manager) Current() *Connection {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsConnected returns true if a server is selected.
func (m *Manager) IsConnected() bool {
	return m.Current() != nil
}
