// Package chat holds the optional persistence sink for chat messages.
// Persistence is fire-and-forget: failures are logged by the caller and
// never surface to the sender.
package chat

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	"github.com/krishnabarasiya03/video-conf/internal/domain"
)

type Store interface {
	Save(ctx context.Context, roomID string, msg domain.ChatMessage) error
}

// Noop discards messages. Used when no chat log is configured.
type Noop struct{}

func (Noop) Save(context.Context, string, domain.ChatMessage) error { return nil }

// Log appends one JSON line per message to a local file.
type Log struct {
	mu sync.Mutex
	f  *os.File
}

func NewLog(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &Log{f: f}, nil
}

type logRecord struct {
	RoomID string `json:"roomId"`
	domain.ChatMessage
}

func (l *Log) Save(_ context.Context, roomID string, msg domain.ChatMessage) error {
	b, err := json.Marshal(logRecord{RoomID: roomID, ChatMessage: msg})
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.f.Write(append(b, '\n')); err != nil {
		return err
	}
	return nil
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}
