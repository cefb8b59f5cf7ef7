package chat

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryBound(t *testing.T) {
	manager := NewConversationManager(filepath.Join(t.TempDir(), "history.json"))

	for i := 1; i <= 5; i++ {
		require.NoError(t, manager.Add("session-1", fmt.Sprintf("query %d", i), fmt.Sprintf("response %d", i)))
	}

	turns := manager.Recent("session-1")
	require.Len(t, turns, 3)
	assert.Equal(t, "query 3", turns[0].Query)
	assert.Equal(t, "query 4", turns[1].Query)
	assert.Equal(t, "query 5", turns[2].Query)
	assert.Equal(t, "response 5", turns[2].Response)
}

func TestHistorySessionsIndependent(t *testing.T) {
	manager := NewConversationManager(filepath.Join(t.TempDir(), "history.json"))

	require.NoError(t, manager.Add("a", "qa", "ra"))
	require.NoError(t, manager.Add("b", "qb", "rb"))

	assert.Len(t, manager.Recent("a"), 1)
	assert.Len(t, manager.Recent("b"), 1)
	assert.Empty(t, manager.Recent("c"))
}

func TestHistoryLoadMissingFile(t *testing.T) {
	manager := NewConversationManager(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.Empty(t, manager.Recent("any"))
}

func TestHistoryLoadCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	manager := NewConversationManager(path)
	assert.Empty(t, manager.Recent("any"))

	// The store still works after swallowing the corruption.
	require.NoError(t, manager.Add("s", "q", "r"))
	assert.Len(t, manager.Recent("s"), 1)
}

func TestHistoryPersistsAcrossReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	manager := NewConversationManager(path)
	require.NoError(t, manager.Add("s", "q1", "r1"))
	require.NoError(t, manager.Add("s", "q2", "r2"))

	reloaded := NewConversationManager(path)
	turns := reloaded.Recent("s")
	require.Len(t, turns, 2)
	assert.Equal(t, "q1", turns[0].Query)
	assert.Equal(t, "r2", turns[1].Response)
	assert.False(t, turns[0].Timestamp.IsZero())
}

func TestRecentReturnsCopy(t *testing.T) {
	manager := NewConversationManager(filepath.Join(t.TempDir(), "history.json"))
	require.NoError(t, manager.Add("s", "q", "r"))

	turns := manager.Recent("s")
	turns[0].Query = "mutated"

	assert.Equal(t, "q", manager.Recent("s")[0].Query)
}
