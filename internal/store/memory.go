package store

import (
	"sync"

	"insight-chat-backend/internal/types"
)

// MemoryStore owns the live transcript for each session.
//
// It also tracks two pieces of per-session request state: a busy flag (only
// one backend call may be outstanding per session) and a generation counter.
// Every request is tagged with the generation current when it began; "new
// chat" bumps the generation, so a late response from a reset conversation is
// discarded instead of appending to the fresh transcript.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string][]types.ChatMessage
	generations map[string]uint64
	busy        map[string]bool
	maxMessages int
}

func NewMemoryStore(maxMessages int) *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string][]types.ChatMessage),
		generations: make(map[string]uint64),
		busy:        make(map[string]bool),
		maxMessages: maxMessages,
	}
}

// Has reports whether the session has a live transcript (possibly empty).
func (m *MemoryStore) Has(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[sessionID]
	return ok
}

func (m *MemoryStore) Get(sessionID string) []types.ChatMessage {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.sessions[sessionID]
	out := make([]types.ChatMessage, len(msgs))
	copy(out, msgs)
	return out
}

// Set replaces the session transcript, used to rehydrate from persistence.
func (m *MemoryStore) Set(sessionID string, msgs []types.ChatMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msgs == nil {
		msgs = []types.ChatMessage{}
	}
	m.sessions[sessionID] = append([]types.ChatMessage(nil), msgs...)
	m.trimLocked(sessionID)
}

// Begin marks the session busy and returns the current generation. It fails
// when a request is already in flight for the session.
func (m *MemoryStore) Begin(sessionID string) (uint64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.busy[sessionID] {
		return 0, false
	}
	m.busy[sessionID] = true
	return m.generations[sessionID], true
}

// Finish clears the busy flag, unless the session was reset since Begin (a
// newer request may already own the flag).
func (m *MemoryStore) Finish(sessionID string, generation uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[sessionID] == generation {
		delete(m.busy, sessionID)
	}
}

// AppendIfCurrent appends only when the request's generation is still
// current, reporting whether the message was kept.
func (m *MemoryStore) AppendIfCurrent(sessionID string, generation uint64, msg types.ChatMessage) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[sessionID] != generation {
		return false
	}
	m.sessions[sessionID] = append(m.sessions[sessionID], msg)
	m.trimLocked(sessionID)
	return true
}

// Reset clears the transcript, bumps the generation so in-flight responses
// are discarded, and frees the busy flag for the next request.
func (m *MemoryStore) Reset(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sessionID] = []types.ChatMessage{}
	m.generations[sessionID]++
	delete(m.busy, sessionID)
}

func (m *MemoryStore) trimLocked(sessionID string) {
	if m.maxMessages <= 0 {
		return
	}
	msgs := m.sessions[sessionID]
	if len(msgs) > m.maxMessages {
		m.sessions[sessionID] = msgs[len(msgs)-m.maxMessages:]
	}
}
