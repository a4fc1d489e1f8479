package types

import "time"

type ChatRequest struct {
	Query    string `json:"query"`
	Provider string `json:"provider,omitempty"`
}

type ChatResponse struct {
	SessionID  string        `json:"sessionId"`
	Message    ChatMessage   `json:"message"`
	Transcript []ChatMessage `json:"transcript,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// ChatMessage is one unit of the persisted transcript. Text is already
// rendered markdown or plain text, never raw structured data. Messages are
// never mutated after creation.
type ChatMessage struct {
	Role          string         `json:"role"`
	Text          string         `json:"text"`
	SQLQuery      *string        `json:"sql_query"`
	DataRows      []any          `json:"dataRows"`
	DataColumns   []any          `json:"dataColumns"`
	ExcelDownload bool           `json:"excel_download"`
	Visualization map[string]any `json:"visualization"`
	Timestamp     string         `json:"timestamp"`
}

// NewUserMessage builds the transcript record for a user turn.
func NewUserMessage(text string, now time.Time) ChatMessage {
	return ChatMessage{
		Role:      "user",
		Text:      text,
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}
