package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileRecorder appends records to a JSONL file, one envelope per line.
type FileRecorder struct {
	path string
	mu   sync.Mutex
}

type fileEnvelope struct {
	Kind     string          `json:"kind"` // "message" | "reaction"
	Message  *MessageRecord  `json:"message,omitempty"`
	Reaction *ReactionRecord `json:"reaction,omitempty"`
}

func NewFileRecorder(path string) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to ensure log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to init log file: %w", err)
	}
	_ = f.Close()
	return &FileRecorder{path: path}, nil
}

func (r *FileRecorder) AppendMessage(m MessageRecord) error {
	return r.append(fileEnvelope{Kind: "message", Message: &m})
}

func (r *FileRecorder) AppendReaction(rec ReactionRecord) error {
	return r.append(fileEnvelope{Kind: "reaction", Reaction: &rec})
}

func (r *FileRecorder) append(env fileEnvelope) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.OpenFile(r.path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open append: %w", err)
	}
	defer func() { _ = f.Close() }()
	if err := json.NewEncoder(f).Encode(env); err != nil {
		return fmt.Errorf("encode append: %w", err)
	}
	return nil
}

func (r *FileRecorder) LoadMessages(conversationID string) ([]MessageRecord, error) {
	envs, err := r.scan()
	if err != nil {
		return nil, err
	}
	var out []MessageRecord
	for _, env := range envs {
		if env.Kind == "message" && env.Message != nil && env.Message.ConversationID == conversationID {
			out = append(out, *env.Message)
		}
	}
	return out, nil
}

func (r *FileRecorder) LoadReactions(conversationID string) ([]ReactionRecord, error) {
	envs, err := r.scan()
	if err != nil {
		return nil, err
	}
	var out []ReactionRecord
	for _, env := range envs {
		if env.Kind == "reaction" && env.Reaction != nil && env.Reaction.ConversationID == conversationID {
			out = append(out, *env.Reaction)
		}
	}
	return out, nil
}

func (r *FileRecorder) scan() ([]fileEnvelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open read: %w", err)
	}
	defer func() { _ = f.Close() }()
	s := bufio.NewScanner(f)
	buf := make([]byte, 0, 1024*1024)
	s.Buffer(buf, 10*1024*1024)
	var envs []fileEnvelope
	for s.Scan() {
		line := s.Bytes()
		if len(line) == 0 {
			continue
		}
		var env fileEnvelope
		if err := json.Unmarshal(line, &env); err != nil {
			continue
		}
		envs = append(envs, env)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}
	return envs, nil
}
