package todo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snello/memory"
)

func newTestTools(t *testing.T) *Tools {
	t.Helper()
	store, err := memory.NewStore(t.TempDir(), "alice")
	require.NoError(t, err)
	return NewTools(store, nil)
}

func TestAdd(t *testing.T) {
	tools := newTestTools(t)

	res := tools.Add("buy milk", "", nil)
	require.True(t, res.OK(), res.Message)
	assert.Contains(t, res.Message, "buy milk")

	t.Run("duplicate is a soft no-op", func(t *testing.T) {
		res := tools.Add("Buy Milk", "", nil)
		assert.Equal(t, CodeAlreadyExists, res.Code)
		assert.Contains(t, res.Message, "already exists")
		assert.Contains(t, tools.Count(), "1 task")
	})

	t.Run("empty text rejected", func(t *testing.T) {
		res := tools.Add("   ", "", nil)
		assert.Equal(t, CodeInvalidInput, res.Code)
	})

	t.Run("unknown priority rejected", func(t *testing.T) {
		res := tools.Add("urgent", memory.Priority("asap"), nil)
		assert.Equal(t, CodeInvalidInput, res.Code)
	})

	t.Run("text is trimmed", func(t *testing.T) {
		res := tools.Add("  walk dog  ", "", nil)
		require.True(t, res.OK())
		assert.Contains(t, tools.List(false), "2. walk dog")
	})
}

func TestList(t *testing.T) {
	tools := newTestTools(t)

	t.Run("empty list sentinel", func(t *testing.T) {
		assert.Equal(t, EmptyListSentinel, tools.List(false))
	})

	tools.Add("buy milk", "", nil)
	tools.Add("call mom", memory.PriorityHigh, []string{"family"})

	t.Run("numbered from one", func(t *testing.T) {
		out := tools.List(false)
		assert.Contains(t, out, "1. buy milk")
		assert.Contains(t, out, "2. call mom [high] #family")
	})

	t.Run("completed shown on request", func(t *testing.T) {
		require.True(t, tools.Complete("buy milk").OK())
		out := tools.List(true)
		assert.Contains(t, out, "✅ Completed:")
		assert.Contains(t, out, "buy milk")
		assert.NotContains(t, tools.List(false), "buy milk")
	})
}

func TestRemove(t *testing.T) {
	tools := newTestTools(t)
	tools.Add("buy milk", "", nil)
	tools.Add("buy bread", "", nil)
	tools.Add("call mom", "", nil)

	t.Run("by number", func(t *testing.T) {
		res := tools.Remove("3")
		require.True(t, res.OK(), res.Message)
		assert.Contains(t, res.Message, "call mom")
	})

	t.Run("remaining tasks renumber", func(t *testing.T) {
		res := tools.Remove("1")
		require.True(t, res.OK())
		assert.Contains(t, res.Message, "buy milk")
		assert.Contains(t, tools.List(false), "1. buy bread")
	})

	t.Run("ambiguous text rejected", func(t *testing.T) {
		tools.Add("buy eggs", "", nil)
		res := tools.Remove("buy")
		assert.Equal(t, CodeAmbiguous, res.Code)
		assert.Contains(t, res.Message, "use the number instead")
		// Nothing was removed.
		assert.Contains(t, tools.Count(), "2 tasks")
	})

	t.Run("no match", func(t *testing.T) {
		res := tools.Remove("laundry")
		assert.Equal(t, CodeNotFound, res.Code)
	})

	t.Run("out of range", func(t *testing.T) {
		res := tools.Remove("99")
		assert.Equal(t, CodeOutOfRange, res.Code)
		assert.Contains(t, res.Message, "between 1 and 2")
	})
}

func TestComplete(t *testing.T) {
	tools := newTestTools(t)
	tools.Add("buy milk", "", nil)

	res := tools.Complete("1")
	require.True(t, res.OK(), res.Message)
	assert.Contains(t, res.Message, "buy milk")

	t.Run("stamps completed_at", func(t *testing.T) {
		doc := newDocOf(t, tools)
		require.Len(t, doc.Completed, 1)
		require.NotNil(t, doc.Completed[0].CompletedAt)
		assert.Empty(t, doc.Todos)
	})

	t.Run("completing on empty list", func(t *testing.T) {
		res := tools.Complete("1")
		assert.Equal(t, CodeOutOfRange, res.Code)
		assert.Equal(t, EmptyListSentinel, res.Message)
	})
}

func newDocOf(t *testing.T, tools *Tools) *memory.TaskDocument {
	t.Helper()
	return tools.store.Tasks()
}

func TestUpdate(t *testing.T) {
	tools := newTestTools(t)
	tools.Add("buy milk", "", nil)
	tools.Add("call mom", "", nil)

	t.Run("by text fragment", func(t *testing.T) {
		res := tools.Update("milk", "buy oat milk")
		require.True(t, res.OK(), res.Message)
		assert.Contains(t, tools.List(false), "1. buy oat milk")
	})

	t.Run("duplicate target rejected", func(t *testing.T) {
		res := tools.Update("1", "Call Mom")
		assert.Equal(t, CodeAlreadyExists, res.Code)
	})

	t.Run("rewriting a task to itself is allowed", func(t *testing.T) {
		res := tools.Update("2", "Call Mom")
		assert.True(t, res.OK(), res.Message)
	})

	t.Run("empty new text rejected", func(t *testing.T) {
		res := tools.Update("1", "  ")
		assert.Equal(t, CodeInvalidInput, res.Code)
	})
}

func TestClear(t *testing.T) {
	tools := newTestTools(t)
	tools.Add("buy milk", "", nil)
	tools.Add("call mom", "", nil)
	require.True(t, tools.Complete("1").OK())

	t.Run("active only", func(t *testing.T) {
		res := tools.Clear(false)
		require.True(t, res.OK())
		doc := newDocOf(t, tools)
		assert.Empty(t, doc.Todos)
		assert.Len(t, doc.Completed, 1)
	})

	t.Run("including completed", func(t *testing.T) {
		res := tools.Clear(true)
		require.True(t, res.OK())
		doc := newDocOf(t, tools)
		assert.Empty(t, doc.Completed)
	})
}

func TestSearch(t *testing.T) {
	tools := newTestTools(t)

	t.Run("empty list", func(t *testing.T) {
		res := tools.Search("milk")
		assert.Equal(t, CodeNotFound, res.Code)
		assert.Equal(t, EmptyListSentinel, res.Message)
	})

	tools.Add("buy milk", "", nil)
	tools.Add("buy bread", "", nil)
	tools.Add("call mom", "", nil)

	t.Run("case-insensitive substring", func(t *testing.T) {
		res := tools.Search("BUY")
		require.True(t, res.OK())
		assert.Contains(t, res.Message, "buy milk")
		assert.Contains(t, res.Message, "buy bread")
		assert.NotContains(t, res.Message, "call mom")
	})

	t.Run("no matches", func(t *testing.T) {
		res := tools.Search("laundry")
		assert.Equal(t, CodeNotFound, res.Code)
		assert.Contains(t, res.Message, "laundry")
	})

	t.Run("empty query rejected", func(t *testing.T) {
		res := tools.Search("  ")
		assert.Equal(t, CodeInvalidInput, res.Code)
	})
}

func TestGetAndCount(t *testing.T) {
	tools := newTestTools(t)
	assert.Contains(t, tools.Count(), "no tasks")

	tools.Add("buy milk", "", nil)
	assert.Contains(t, tools.Count(), "1 task")
	res := tools.Get(1)
	require.True(t, res.OK())
	assert.Contains(t, res.Message, "buy milk")

	assert.Equal(t, CodeOutOfRange, tools.Get(5).Code)
}

// The walkthrough from the docs: add, list, complete by fragment.
func TestBasicScenario(t *testing.T) {
	tools := newTestTools(t)

	require.True(t, tools.Add("buy milk", "", nil).OK())
	assert.Contains(t, tools.List(false), "1. buy milk")

	res := tools.Complete("milk")
	require.True(t, res.OK(), res.Message)
	assert.Equal(t, EmptyListSentinel, tools.List(false))
}
