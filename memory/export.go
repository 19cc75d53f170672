package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Snapshot is a user's full document set in one portable blob.
type Snapshot struct {
	UserID       string              `json:"user_id"`
	ExportedAt   time.Time           `json:"exported_at"`
	Profile      *Profile            `json:"profile"`
	Conversation []ConversationEntry `json:"conversation"`
	Tasks        *TaskDocument       `json:"tasks"`
}

// ImportMode selects how a snapshot is applied to existing state.
type ImportMode string

const (
	// ImportOverwrite replaces every document with the snapshot's.
	ImportOverwrite ImportMode = "overwrite"
	// ImportMerge adds snapshot data on top of existing state: tasks are
	// deduplicated case-insensitively, conversation entries appended,
	// profile fields filled only where empty.
	ImportMerge ImportMode = "merge"
)

// Stats summarizes a user's stored state.
type Stats struct {
	TotalMessages  int       `json:"total_messages"`
	ActiveTasks    int       `json:"active_tasks"`
	CompletedTasks int       `json:"completed_tasks"`
	CreatedAt      time.Time `json:"created_at"`
	LastActive     time.Time `json:"last_active"`
}

// Stats returns counts across the user's documents.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.loadConversationLocked()
	doc := s.loadTasksLocked()
	profile := s.loadProfileLocked()

	return Stats{
		TotalMessages:  len(conv),
		ActiveTasks:    len(doc.Todos),
		CompletedTasks: len(doc.Completed),
		CreatedAt:      profile.CreatedAt,
		LastActive:     profile.LastActive,
	}
}

// Export returns the user's full document set.
func (s *Store) Export() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Snapshot{
		UserID:       s.userID,
		ExportedAt:   time.Now().UTC(),
		Profile:      s.loadProfileLocked(),
		Conversation: s.loadConversationLocked(),
		Tasks:        s.loadTasksLocked(),
	}
}

// Import applies a snapshot to the store in the given mode.
func (s *Store) Import(snap *Snapshot, mode ImportMode) error {
	if snap == nil {
		return fmt.Errorf("snapshot must not be nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch mode {
	case ImportOverwrite:
		return s.importOverwriteLocked(snap)
	case ImportMerge:
		return s.importMergeLocked(snap)
	default:
		return fmt.Errorf("unknown import mode: %q", mode)
	}
}

func (s *Store) importOverwriteLocked(snap *Snapshot) error {
	if snap.Profile != nil {
		if err := s.saveAtomic(KindProfile, snap.Profile); err != nil {
			return err
		}
	}
	if snap.Conversation != nil {
		entries := snap.Conversation
		if len(entries) > s.historyLimit {
			entries = entries[len(entries)-s.historyLimit:]
		}
		if err := s.saveAtomic(KindConversation, entries); err != nil {
			return err
		}
	}
	if snap.Tasks != nil {
		if err := s.saveTasksLocked(snap.Tasks); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) importMergeLocked(snap *Snapshot) error {
	if snap.Profile != nil {
		current := s.loadProfileLocked()
		if current.UserName == "" {
			current.UserName = snap.Profile.UserName
		}
		for k, v := range snap.Profile.Preferences {
			if current.Preferences == nil {
				current.Preferences = make(map[string]string)
			}
			if _, ok := current.Preferences[k]; !ok {
				current.Preferences[k] = v
			}
		}
		if err := s.saveAtomic(KindProfile, current); err != nil {
			return err
		}
	}

	if len(snap.Conversation) > 0 {
		entries := append(s.loadConversationLocked(), snap.Conversation...)
		if len(entries) > s.historyLimit {
			entries = entries[len(entries)-s.historyLimit:]
		}
		if err := s.saveAtomic(KindConversation, entries); err != nil {
			return err
		}
	}

	if snap.Tasks != nil {
		doc := s.loadTasksLocked()
		doc.Todos = mergeTasks(doc.Todos, snap.Tasks.Todos)
		doc.Completed = mergeTasks(doc.Completed, snap.Tasks.Completed)
		if err := s.saveTasksLocked(doc); err != nil {
			return err
		}
	}
	return nil
}

// mergeTasks appends incoming tasks, skipping case-insensitive
// duplicates of existing text.
func mergeTasks(existing, incoming []Task) []Task {
	seen := make(map[string]bool, len(existing))
	for _, t := range existing {
		seen[strings.ToLower(t.Text)] = true
	}
	out := existing
	for _, t := range normalizeTasks(incoming) {
		key := strings.ToLower(t.Text)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// Backup writes a timestamped snapshot file next to the user's documents
// and returns its path.
func (s *Store) Backup() (string, error) {
	snap := s.Export()

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode backup: %w", err)
	}

	name := fmt.Sprintf("%s_backup_%s.json", s.userID, time.Now().Format("20060102_150405"))
	path := filepath.Join(s.dataDir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write backup: %w", err)
	}
	return path, nil
}
