package store

import "insight-chat-backend/internal/types"

// TranscriptStore persists transcripts across restarts. The memory store owns
// the live transcript; persistence is an explicit, separately-invoked effect
// after each state transition.
type TranscriptStore interface {
	Append(sessionID string, msg types.ChatMessage) error
	Load(sessionID string) ([]types.ChatMessage, error)
	Clear(sessionID string) error
}
