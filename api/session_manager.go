package api

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/evmcfg/evmcfg/cfg"
	"github.com/evmcfg/evmcfg/disasm"
	"github.com/evmcfg/evmcfg/signature"
	"github.com/evmcfg/evmcfg/storage"
)

var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionAlreadyExists is returned when a generated session ID collides.
	ErrSessionAlreadyExists = errors.New("session already exists")
)

// Session holds one contract's static analysis plus the storage state
// accumulated across any dynamic runs against it.
type Session struct {
	ID        string
	Program   *disasm.Program
	Graph     *cfg.Graph
	Storage   *storage.Storage
	CreatedAt time.Time
}

// SessionManager tracks every active session by ID.
type SessionManager struct {
	sessions    map[string]*Session
	broadcaster *Broadcaster
	mu          sync.RWMutex
}

// NewSessionManager creates a new session manager.
func NewSessionManager(broadcaster *Broadcaster) *SessionManager {
	return &SessionManager{
		sessions:    make(map[string]*Session),
		broadcaster: broadcaster,
	}
}

// CreateSession disassembles bytecode, runs static CFG reconstruction,
// and registers the result under a freshly generated session ID.
func (sm *SessionManager) CreateSession(bytecode string, sigs signature.Lookup) (*Session, error) {
	prog, err := disasm.Disassemble(bytecode)
	if err != nil {
		return nil, err
	}

	graph := cfg.BuildStatic(prog, sigs)

	sessionID, err := generateSessionID()
	if err != nil {
		return nil, err
	}

	session := &Session{
		ID:        sessionID,
		Program:   prog,
		Graph:     graph,
		Storage:   storage.New(),
		CreatedAt: time.Now(),
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; exists {
		return nil, ErrSessionAlreadyExists
	}
	sm.sessions[sessionID] = session
	debugLog("Session %s: created, %d instructions, %d blocks, %d functions",
		sessionID, len(prog.Instructions), len(graph.Blocks), len(graph.Functions))

	return session, nil
}

// GetSession retrieves a session by ID.
func (sm *SessionManager) GetSession(sessionID string) (*Session, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	session, exists := sm.sessions[sessionID]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// DestroySession removes a session by ID.
func (sm *SessionManager) DestroySession(sessionID string) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if _, exists := sm.sessions[sessionID]; !exists {
		return ErrSessionNotFound
	}
	delete(sm.sessions, sessionID)
	return nil
}

// ListSessions returns every active session ID.
func (sm *SessionManager) ListSessions() []string {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	ids := make([]string, 0, len(sm.sessions))
	for id := range sm.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Count returns the number of active sessions.
func (sm *SessionManager) Count() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

func generateSessionID() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
