package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"insight-chat-backend/internal/db"
	"insight-chat-backend/internal/types"
)

// DatabaseStore persists transcripts in PostgreSQL, one row per message.
type DatabaseStore struct {
	db *db.DB
}

func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

func (ds *DatabaseStore) Append(sessionID string, msg types.ChatMessage) error {
	if sessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	rows, err := json.Marshal(msg.DataRows)
	if err != nil {
		return fmt.Errorf("failed to encode data rows: %w", err)
	}
	cols, err := json.Marshal(msg.DataColumns)
	if err != nil {
		return fmt.Errorf("failed to encode data columns: %w", err)
	}
	viz, err := json.Marshal(msg.Visualization)
	if err != nil {
		return fmt.Errorf("failed to encode visualization: %w", err)
	}

	query := `
		INSERT INTO chat_messages (session_id, role, text, sql_query, data_rows, data_columns, excel_download, visualization, message_timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	var sqlQuery sql.NullString
	if msg.SQLQuery != nil {
		sqlQuery = sql.NullString{String: *msg.SQLQuery, Valid: true}
	}
	if _, err := ds.db.Exec(query, sessionID, msg.Role, msg.Text, sqlQuery, rows, cols, msg.ExcelDownload, viz, msg.Timestamp); err != nil {
		return fmt.Errorf("failed to save chat message: %w", err)
	}
	return nil
}

func (ds *DatabaseStore) Load(sessionID string) ([]types.ChatMessage, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	query := `
		SELECT role, text, sql_query, data_rows, data_columns, excel_download, visualization, message_timestamp
		FROM chat_messages
		WHERE session_id = $1
		ORDER BY id
	`
	rows, err := ds.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	defer rows.Close()

	var out []types.ChatMessage
	for rows.Next() {
		var (
			msg      types.ChatMessage
			sqlQuery sql.NullString
			dataRows []byte
			dataCols []byte
			viz      []byte
		)
		if err := rows.Scan(&msg.Role, &msg.Text, &sqlQuery, &dataRows, &dataCols, &msg.ExcelDownload, &viz, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		if sqlQuery.Valid {
			q := sqlQuery.String
			msg.SQLQuery = &q
		}
		// Stored as JSON; a decode failure here means a corrupt row, not a
		// reason to lose the rest of the transcript.
		_ = json.Unmarshal(dataRows, &msg.DataRows)
		_ = json.Unmarshal(dataCols, &msg.DataColumns)
		_ = json.Unmarshal(viz, &msg.Visualization)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load transcript: %w", err)
	}
	return out, nil
}

func (ds *DatabaseStore) Clear(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session_id is required")
	}
	if _, err := ds.db.Exec(`DELETE FROM chat_messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to clear transcript: %w", err)
	}
	return nil
}
