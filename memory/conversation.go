package memory

import (
	"time"

	"go.uber.org/zap"
)

// Role values for conversation entries.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ConversationEntry is one message in a user's conversation log.
type ConversationEntry struct {
	Role      string    `json:"role"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation returns the full conversation log, oldest first.
// A missing or corrupt file yields an empty log.
func (s *Store) Conversation() []ConversationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadConversationLocked()
}

// RecentConversation returns up to limit of the newest entries, in order.
func (s *Store) RecentConversation(limit int) []ConversationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.loadConversationLocked()
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[len(entries)-limit:]
}

// AppendConversation adds one entry and persists the log, evicting the
// oldest entries once the history limit is exceeded.
func (s *Store) AppendConversation(role, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.loadConversationLocked()
	entries = append(entries, ConversationEntry{
		Role:      role,
		Message:   message,
		Timestamp: time.Now().UTC(),
	})
	if len(entries) > s.historyLimit {
		entries = entries[len(entries)-s.historyLimit:]
	}

	if err := s.saveAtomic(KindConversation, entries); err != nil {
		return err
	}
	s.touchLastActive()
	return nil
}

// ClearConversation replaces the log with an empty one.
func (s *Store) ClearConversation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveAtomic(KindConversation, []ConversationEntry{})
}

func (s *Store) loadConversationLocked() []ConversationEntry {
	var entries []ConversationEntry
	if found, err := s.loadRaw(KindConversation, &entries); err != nil || !found {
		if err != nil {
			s.log.Warn("could not load conversation", zap.Error(err))
		}
		return []ConversationEntry{}
	}
	if entries == nil {
		entries = []ConversationEntry{}
	}
	return entries
}
