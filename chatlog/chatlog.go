// Package chatlog persists chat messages into the chat_messages table and
// exposes simple queries over them. The Recorder wraps a session.Listener so
// it can sit in the notification chain of a running session.
package chatlog

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/deadNightTiger/chatty/session"
	"github.com/deadNightTiger/chatty/user"
)

// Message is one stored chat message.
type Message struct {
	Channel     string
	Username    string
	DisplayName string
	Text        string
	Action      bool
	Whisper     bool
	Emotes      string
	Color       string
	ReceivedAt  time.Time
}

// Store reads and writes chat messages.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Insert stores a single message.
func (s *Store) Insert(ctx context.Context, m Message) error {
	if m.ReceivedAt.IsZero() {
		m.ReceivedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (channel, username, display_name, message, action, whisper, emotes, color, received_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		m.Channel, m.Username, m.DisplayName, m.Text, m.Action, m.Whisper, m.Emotes, m.Color, m.ReceivedAt)
	return err
}

// Recent returns up to limit messages for a channel, newest first.
func (s *Store) Recent(ctx context.Context, channel string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT channel, username, COALESCE(display_name,''), COALESCE(message,''), action, whisper,
		        COALESCE(emotes,''), COALESCE(color,''), received_at
		 FROM chat_messages WHERE channel = $1 ORDER BY received_at DESC LIMIT $2`,
		channel, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Channel, &m.Username, &m.DisplayName, &m.Text, &m.Action,
			&m.Whisper, &m.Emotes, &m.Color, &m.ReceivedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Recorder forwards every session notification to the wrapped listener and
// additionally persists channel messages and whispers.
type Recorder struct {
	session.Listener
	store *Store
}

func NewRecorder(next session.Listener, store *Store) *Recorder {
	return &Recorder{Listener: next, store: store}
}

func (r *Recorder) OnChannelMessage(u *user.User, text string, action bool, emotes string) {
	r.record(Message{
		Channel:     u.Channel,
		Username:    u.Name,
		DisplayName: u.DisplayName(),
		Text:        text,
		Action:      action,
		Emotes:      emotes,
		Color:       u.Color(),
	})
	r.Listener.OnChannelMessage(u, text, action, emotes)
}

func (r *Recorder) OnWhisper(u *user.User, text string, emotes string) {
	r.record(Message{
		Channel:     u.Channel,
		Username:    u.Name,
		DisplayName: u.DisplayName(),
		Text:        text,
		Whisper:     true,
		Emotes:      emotes,
		Color:       u.Color(),
	})
	r.Listener.OnWhisper(u, text, emotes)
}

func (r *Recorder) record(m Message) {
	if err := r.store.Insert(context.Background(), m); err != nil {
		slog.Error("failed to insert chat message", slog.Any("err", err))
	}
}
