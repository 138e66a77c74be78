package storage

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS messages (
	conversation_id TEXT NOT NULL,
	subject_id      TEXT NOT NULL,
	msg_id          TEXT NOT NULL,
	timestamp       TEXT NOT NULL,
	sender          TEXT NOT NULL,
	tone            TEXT NOT NULL,
	text            TEXT NOT NULL,
	reactions_json  TEXT NOT NULL DEFAULT '{}'
);
CREATE TABLE IF NOT EXISTS reactions (
	conversation_id TEXT NOT NULL,
	subject_id      TEXT NOT NULL,
	msg_id          TEXT NOT NULL,
	reaction_id     TEXT NOT NULL,
	timestamp       TEXT NOT NULL,
	sender          TEXT NOT NULL,
	target          TEXT NOT NULL,
	emoji           TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
CREATE INDEX IF NOT EXISTS idx_reactions_conversation ON reactions(conversation_id);
`

// SQLiteRecorder persists export rows in a SQLite database, which the
// analysis side can query directly instead of replaying a JSONL file.
type SQLiteRecorder struct {
	db *sql.DB
}

func NewSQLiteRecorder(path string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &SQLiteRecorder{db: db}, nil
}

func (r *SQLiteRecorder) Close() error { return r.db.Close() }

func (r *SQLiteRecorder) AppendMessage(m MessageRecord) error {
	_, err := r.db.Exec(
		`INSERT INTO messages (conversation_id, subject_id, msg_id, timestamp, sender, tone, text, reactions_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ConversationID, m.SubjectID, m.MsgID, m.Timestamp, m.Sender, m.Tone, m.Text, m.ReactionsJSON,
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) AppendReaction(rec ReactionRecord) error {
	_, err := r.db.Exec(
		`INSERT INTO reactions (conversation_id, subject_id, msg_id, reaction_id, timestamp, sender, target, emoji)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ConversationID, rec.SubjectID, rec.MsgID, rec.ReactionID, rec.Timestamp, rec.Sender, rec.Target, rec.Emoji,
	)
	if err != nil {
		return fmt.Errorf("insert reaction: %w", err)
	}
	return nil
}

func (r *SQLiteRecorder) LoadMessages(conversationID string) ([]MessageRecord, error) {
	rows, err := r.db.Query(
		`SELECT conversation_id, subject_id, msg_id, timestamp, sender, tone, text, reactions_json
		 FROM messages WHERE conversation_id = ? ORDER BY rowid`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []MessageRecord
	for rows.Next() {
		var m MessageRecord
		if err := rows.Scan(&m.ConversationID, &m.SubjectID, &m.MsgID, &m.Timestamp, &m.Sender, &m.Tone, &m.Text, &m.ReactionsJSON); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}

func (r *SQLiteRecorder) LoadReactions(conversationID string) ([]ReactionRecord, error) {
	rows, err := r.db.Query(
		`SELECT conversation_id, subject_id, msg_id, reaction_id, timestamp, sender, target, emoji
		 FROM reactions WHERE conversation_id = ? ORDER BY rowid`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query reactions: %w", err)
	}
	defer rows.Close()

	var out []ReactionRecord
	for rows.Next() {
		var rec ReactionRecord
		if err := rows.Scan(&rec.ConversationID, &rec.SubjectID, &rec.MsgID, &rec.ReactionID, &rec.Timestamp, &rec.Sender, &rec.Target, &rec.Emoji); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}
	return out, nil
}
