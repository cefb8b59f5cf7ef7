package chat

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Only the most recent turns are kept per session; older context adds little
// and grows the prompt without bound.
const historyWindow = 3

type Turn struct {
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
}

// ConversationManager keeps a recency-bounded window of turns per session,
// snapshotted to a single JSON file after every mutation. The mutex covers the
// whole read-modify-write cycle so concurrent requests cannot lose updates.
type ConversationManager struct {
	mu            sync.Mutex
	path          string
	conversations map[string][]Turn
}

func NewConversationManager(path string) *ConversationManager {
	return &ConversationManager{
		path:          path,
		conversations: loadHistory(path),
	}
}

// A missing or corrupt history file is not worth failing startup over; the
// manager just starts empty.
func loadHistory(path string) map[string][]Turn {
	data, err := os.ReadFile(path)
	if err != nil {
		return map[string][]Turn{}
	}

	var conversations map[string][]Turn
	if err := json.Unmarshal(data, &conversations); err != nil || conversations == nil {
		return map[string][]Turn{}
	}
	return conversations
}

// Add appends a timestamped turn to the session's window, evicting the oldest
// entry once the window is full, and writes the snapshot back synchronously.
func (manager *ConversationManager) Add(sessionID, query, response string) error {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	turns := append(manager.conversations[sessionID], Turn{
		Timestamp: time.Now().UTC(),
		Query:     query,
		Response:  response,
	})
	if len(turns) > historyWindow {
		turns = turns[len(turns)-historyWindow:]
	}
	manager.conversations[sessionID] = turns

	return manager.save()
}

// Recent returns the session's turns oldest to newest, or an empty slice for
// an unknown session.
func (manager *ConversationManager) Recent(sessionID string) []Turn {
	manager.mu.Lock()
	defer manager.mu.Unlock()

	turns := make([]Turn, len(manager.conversations[sessionID]))
	copy(turns, manager.conversations[sessionID])
	return turns
}

func (manager *ConversationManager) save() error {
	data, err := json.MarshalIndent(manager.conversations, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal conversation history: %w", err)
	}
	if err := os.WriteFile(manager.path, data, 0o644); err != nil {
		return fmt.Errorf("could not write conversation history: %w", err)
	}
	return nil
}
