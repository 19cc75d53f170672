package memory

import (
	"encoding/json"
	"os"
	"strings"
	"testing"
	"time"
)

func seedStore(t *testing.T, userID string, todos ...string) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), userID)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	doc := NewTaskDocument()
	for _, text := range todos {
		doc.Todos = append(doc.Todos, Task{Text: text, Priority: PriorityMedium, CreatedAt: time.Now().UTC()})
	}
	if err := s.SaveTasks(doc); err != nil {
		t.Fatalf("seed tasks: %v", err)
	}
	return s
}

func TestExport_CarriesEverything(t *testing.T) {
	s := seedStore(t, "alice", "buy milk")
	s.SetUserName("Alice")
	s.AppendConversation(RoleUser, "add buy milk")

	snap := s.Export()
	if snap.UserID != "alice" {
		t.Fatalf("expected user alice, got %q", snap.UserID)
	}
	if snap.ExportedAt.IsZero() {
		t.Fatal("exported_at not stamped")
	}
	if snap.Profile == nil || snap.Profile.UserName != "Alice" {
		t.Fatalf("profile missing from export: %+v", snap.Profile)
	}
	if len(snap.Conversation) != 1 {
		t.Fatalf("expected 1 conversation entry, got %d", len(snap.Conversation))
	}
	if len(snap.Tasks.Todos) != 1 || snap.Tasks.Todos[0].Text != "buy milk" {
		t.Fatalf("tasks missing from export: %+v", snap.Tasks)
	}
}

func TestImport_Overwrite(t *testing.T) {
	src := seedStore(t, "alice", "from source")
	src.SetUserName("Alice")
	snap := src.Export()

	dst := seedStore(t, "bob", "existing task")
	dst.SetUserName("Bob")

	if err := dst.Import(snap, ImportOverwrite); err != nil {
		t.Fatalf("import: %v", err)
	}

	doc := dst.Tasks()
	if len(doc.Todos) != 1 || doc.Todos[0].Text != "from source" {
		t.Fatalf("overwrite did not replace tasks: %+v", doc.Todos)
	}
	if dst.Profile().UserName != "Alice" {
		t.Fatalf("overwrite did not replace profile, got %q", dst.Profile().UserName)
	}
}

func TestImport_MergeDeduplicatesTasks(t *testing.T) {
	src := seedStore(t, "alice", "Buy Milk", "walk dog")
	snap := src.Export()

	dst := seedStore(t, "bob", "buy milk", "pay rent")
	if err := dst.Import(snap, ImportMerge); err != nil {
		t.Fatalf("import: %v", err)
	}

	doc := dst.Tasks()
	if len(doc.Todos) != 3 {
		t.Fatalf("expected 3 tasks after merge (case-insensitive dedup), got %d: %+v", len(doc.Todos), doc.Todos)
	}
	// Existing tasks keep their position and casing.
	if doc.Todos[0].Text != "buy milk" || doc.Todos[1].Text != "pay rent" {
		t.Fatalf("merge disturbed existing tasks: %+v", doc.Todos)
	}
	if doc.Todos[2].Text != "walk dog" {
		t.Fatalf("merge did not append new task: %+v", doc.Todos)
	}
}

func TestImport_MergeFillsOnlyEmptyProfileFields(t *testing.T) {
	src := seedStore(t, "alice")
	src.SetUserName("Alice")
	src.SetPreference("tone", "casual")
	src.SetPreference("emoji", "lots")
	snap := src.Export()

	dst := seedStore(t, "bob")
	dst.SetUserName("Bob")
	dst.SetPreference("tone", "formal")

	if err := dst.Import(snap, ImportMerge); err != nil {
		t.Fatalf("import: %v", err)
	}

	p := dst.Profile()
	if p.UserName != "Bob" {
		t.Fatalf("merge overwrote existing name: %q", p.UserName)
	}
	if p.Preferences["tone"] != "formal" {
		t.Fatalf("merge overwrote existing preference: %q", p.Preferences["tone"])
	}
	if p.Preferences["emoji"] != "lots" {
		t.Fatalf("merge dropped new preference: %+v", p.Preferences)
	}
}

func TestImport_MergeAppendsConversationWithinCap(t *testing.T) {
	src, err := NewStore(t.TempDir(), "alice")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for i := 0; i < 4; i++ {
		src.AppendConversation(RoleUser, "src")
	}
	snap := src.Export()

	dst, err := NewStore(t.TempDir(), "bob", WithHistoryLimit(5))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	for i := 0; i < 3; i++ {
		dst.AppendConversation(RoleUser, "dst")
	}

	if err := dst.Import(snap, ImportMerge); err != nil {
		t.Fatalf("import: %v", err)
	}

	entries := dst.Conversation()
	if len(entries) != 5 {
		t.Fatalf("expected history capped at 5, got %d", len(entries))
	}
	if entries[len(entries)-1].Message != "src" {
		t.Fatal("imported entries should come last")
	}
}

func TestImport_RejectsNilAndUnknownMode(t *testing.T) {
	s := seedStore(t, "alice")
	if err := s.Import(nil, ImportMerge); err == nil {
		t.Fatal("expected error for nil snapshot")
	}
	if err := s.Import(&Snapshot{}, ImportMode("sideways")); err == nil {
		t.Fatal("expected error for unknown mode")
	}
}

func TestBackup_WritesReadableSnapshot(t *testing.T) {
	s := seedStore(t, "alice", "buy milk")

	path, err := s.Backup()
	if err != nil {
		t.Fatalf("backup: %v", err)
	}
	if !strings.Contains(path, "alice_backup_") {
		t.Fatalf("unexpected backup name: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read backup: %v", err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatalf("backup is not valid JSON: %v", err)
	}
	if len(snap.Tasks.Todos) != 1 {
		t.Fatalf("backup lost tasks: %+v", snap.Tasks)
	}
}
