package memory

import (
	"encoding/json"
	"os"
	"time"

	"go.uber.org/zap"
)

// TaskSchemaVersion is the current on-disk task document schema.
// Older layouts (flat string array, flat task array, unversioned
// object) are migrated once at load time.
const TaskSchemaVersion = 2

// Priority of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Task is a single to-do item. Tasks have no surrogate key: callers
// identify them by 1-based position or by substring of Text.
type Task struct {
	Text        string     `json:"text"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// TaskDocument is a user's full task state: active and completed lists.
type TaskDocument struct {
	Version     int       `json:"version"`
	Todos       []Task    `json:"todos"`
	Completed   []Task    `json:"completed"`
	LastUpdated time.Time `json:"last_updated"`
}

// NewTaskDocument returns an empty current-version document.
func NewTaskDocument() *TaskDocument {
	return &TaskDocument{
		Version:   TaskSchemaVersion,
		Todos:     []Task{},
		Completed: []Task{},
	}
}

// Tasks returns the user's task document, migrating legacy layouts to
// the current schema. A missing or corrupt file yields an empty document.
func (s *Store) Tasks() *TaskDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadTasksLocked()
}

// SaveTasks persists the task document, stamping last_updated.
func (s *Store) SaveTasks(doc *TaskDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveTasksLocked(doc)
}

// ClearTasks empties the active list. Completed tasks are preserved
// unless includeCompleted is set.
func (s *Store) ClearTasks(includeCompleted bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc := s.loadTasksLocked()
	doc.Todos = []Task{}
	if includeCompleted {
		doc.Completed = []Task{}
	}
	return s.saveTasksLocked(doc)
}

func (s *Store) saveTasksLocked(doc *TaskDocument) error {
	doc.Version = TaskSchemaVersion
	doc.LastUpdated = time.Now().UTC()
	if doc.Todos == nil {
		doc.Todos = []Task{}
	}
	if doc.Completed == nil {
		doc.Completed = []Task{}
	}
	if err := s.saveAtomic(KindTasks, doc); err != nil {
		return err
	}
	s.touchLastActive()
	return nil
}

func (s *Store) loadTasksLocked() *TaskDocument {
	path := s.Path(KindTasks)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("could not read tasks", zap.Error(err))
		}
		return NewTaskDocument()
	}

	doc, migrated, err := decodeTaskDocument(data)
	if err != nil {
		s.quarantine(path, err)
		return NewTaskDocument()
	}
	if migrated {
		s.log.Info("migrated legacy task document",
			zap.String("user", s.userID), zap.Int("version", TaskSchemaVersion))
		if err := s.saveAtomic(KindTasks, doc); err != nil {
			s.log.Warn("could not persist migrated tasks", zap.Error(err))
		}
	}
	return doc
}

// decodeTaskDocument parses any historical task file layout and returns
// a current-version document plus whether a migration took place.
func decodeTaskDocument(data []byte) (*TaskDocument, bool, error) {
	// Current and v1 object layouts.
	var doc TaskDocument
	if err := json.Unmarshal(data, &doc); err == nil {
		if doc.Version == TaskSchemaVersion {
			if doc.Todos == nil {
				doc.Todos = []Task{}
			}
			if doc.Completed == nil {
				doc.Completed = []Task{}
			}
			return &doc, false, nil
		}
		// v1: object with todos but no version. The todos field may hold
		// bare strings instead of task objects; retry below if so.
		if doc.Todos != nil || doc.Completed != nil {
			out := NewTaskDocument()
			out.Todos = normalizeTasks(doc.Todos)
			out.Completed = normalizeTasks(doc.Completed)
			out.LastUpdated = doc.LastUpdated
			return out, true, nil
		}
		// Bare object with no recognizable fields: treat as empty.
		if isJSONObject(data) {
			return NewTaskDocument(), true, nil
		}
	}

	// v1 object with string todos: {"todos": ["buy milk"], ...}.
	var v1 struct {
		Todos       []string  `json:"todos"`
		LastUpdated time.Time `json:"last_updated"`
	}
	if err := json.Unmarshal(data, &v1); err == nil && v1.Todos != nil {
		out := NewTaskDocument()
		out.Todos = tasksFromStrings(v1.Todos, v1.LastUpdated)
		out.LastUpdated = v1.LastUpdated
		return out, true, nil
	}

	// Legacy flat array of task objects.
	var flat []Task
	if err := json.Unmarshal(data, &flat); err == nil {
		out := NewTaskDocument()
		out.Todos = normalizeTasks(flat)
		return out, true, nil
	}

	// Oldest layout: flat array of strings.
	var strs []string
	if err := json.Unmarshal(data, &strs); err == nil {
		out := NewTaskDocument()
		out.Todos = tasksFromStrings(strs, time.Time{})
		return out, true, nil
	}

	return nil, false, json.Unmarshal(data, &doc)
}

func isJSONObject(data []byte) bool {
	var m map[string]json.RawMessage
	return json.Unmarshal(data, &m) == nil
}

func tasksFromStrings(texts []string, stamp time.Time) []Task {
	if stamp.IsZero() {
		stamp = time.Now().UTC()
	}
	tasks := make([]Task, 0, len(texts))
	for _, t := range texts {
		tasks = append(tasks, Task{Text: t, Priority: PriorityMedium, CreatedAt: stamp})
	}
	return tasks
}

func normalizeTasks(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if !ValidPriority(t.Priority) {
			t.Priority = PriorityMedium
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = time.Now().UTC()
		}
		out = append(out, t)
	}
	return out
}
