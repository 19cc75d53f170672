package handlers

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"snello/agent"
	"snello/hooks"
	"snello/llm"
	"snello/memory"
	"snello/todo"
)

// SessionConfig holds everything needed to build a per-user session.
type SessionConfig struct {
	DataDir       string
	Client        llm.Client
	Model         string
	SystemPrompt  string
	MaxToolRounds int
	HistoryWindow int
	MaxTokens     int
	HistoryLimit  int
	Log           *zap.Logger
}

// Session bundles one user's store, task tools and agent.
type Session struct {
	UserID string
	Store  *memory.Store
	Tools  *todo.Tools
	Agent  *agent.Agent
}

// SessionManager lazily builds and caches sessions per user id. Each
// session owns its store, so two requests for the same user share one
// single-writer store.
type SessionManager struct {
	mu       sync.Mutex
	cfg      SessionConfig
	sessions map[string]*Session
}

// NewSessionManager creates a session manager.
func NewSessionManager(cfg SessionConfig) *SessionManager {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = agent.DefaultSystemPrompt
	}
	return &SessionManager{cfg: cfg, sessions: make(map[string]*Session)}
}

// Get returns the session for userID, building it on first use.
func (m *SessionManager) Get(userID string) (*Session, error) {
	if err := validateUserID(userID); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID]; ok {
		return s, nil
	}

	store, err := memory.NewStore(m.cfg.DataDir, userID,
		memory.WithLogger(m.cfg.Log.Named("memory")),
		memory.WithHistoryLimit(m.cfg.HistoryLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("open store for %s: %w", userID, err)
	}

	tools := todo.NewTools(store, m.cfg.Log.Named("todo"))
	registry, err := agent.NewRegistry(todo.Catalog(tools)...)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}

	a := agent.New(agent.Config{
		Model:         m.cfg.Model,
		SystemPrompt:  m.cfg.SystemPrompt,
		MaxToolRounds: m.cfg.MaxToolRounds,
		HistoryWindow: m.cfg.HistoryWindow,
		MaxTokens:     m.cfg.MaxTokens,
	}, m.cfg.Client, registry, store, []agent.Hook{
		hooks.NewProfileHook(store),
		hooks.NewAuditHook(m.cfg.Log.Named("audit")),
	}, m.cfg.Log.Named("agent"))

	s := &Session{UserID: userID, Store: store, Tools: tools, Agent: a}
	m.sessions[userID] = s
	return s, nil
}

// validateUserID rejects ids that would escape the data directory or
// produce awkward file names.
func validateUserID(id string) error {
	if id == "" {
		return fmt.Errorf("user id is required")
	}
	if len(id) > 64 {
		return fmt.Errorf("user id too long (max 64 characters)")
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return fmt.Errorf("user id may only contain letters, digits, '-' and '_'")
		}
	}
	return nil
}
