// Package ledger is the append-only record of every message exchanged with a
// participant, keyed by phone number. Rows are immutable once written.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Message source channels.
const (
	SourceWhatsApp = "whatsapp"
	SourceMobile   = "mobile"
)

type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store persists messages in Postgres.
type Store struct {
	pool PgxPool
}

func NewStore(pool PgxPool) *Store {
	if pool == nil {
		return nil
	}
	return &Store{pool: pool}
}

// Message is a single relayed message. Step > 0 marks a stepped-flow turn;
// MessageSID is set only for platform-sent outbound messages.
type Message struct {
	ID         int64
	CreatedAt  time.Time
	From       string
	To         string
	Body       string
	Source     string
	Step       int
	IsCommand  bool
	IsFinal    bool
	MessageSID string
}

// ChatEntry is the history projection returned to API callers.
type ChatEntry struct {
	ID        int64     `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Body      string    `json:"message"`
}

const messageColumns = "id, created_at, from_number, to_number, body, source, step, is_command, is_final, message_sid"

// Insert appends a message and returns its assigned id. The id sequence is
// what defines "most recent" everywhere else in this package.
func (s *Store) Insert(ctx context.Context, q Querier, msg Message) (int64, error) {
	if q == nil {
		q = s.pool
	}
	query := `
		INSERT INTO messages (from_number, to_number, body, source, step, is_command, is_final, message_sid)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id
	`
	var id int64
	if err := q.QueryRow(ctx, query, msg.From, msg.To, msg.Body, msg.Source, msg.Step, msg.IsCommand, msg.IsFinal, msg.MessageSID).Scan(&id); err != nil {
		return 0, fmt.Errorf("ledger: insert message: %w", err)
	}
	return id, nil
}

// LatestFlowMessageTo returns the most recent stepped-flow message addressed
// to the number, or nil when the number has never been in a flow.
func (s *Store) LatestFlowMessageTo(ctx context.Context, number string) (*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE to_number = $1 AND step > 0
		ORDER BY id DESC
		LIMIT 1
	`
	msg, err := s.queryOne(ctx, query, number)
	if err != nil {
		return nil, fmt.Errorf("ledger: latest flow message: %w", err)
	}
	return msg, nil
}

// LatestMessageFrom returns the most recent message received from the number,
// or nil when nothing has been received from it.
func (s *Store) LatestMessageFrom(ctx context.Context, number string) (*Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE from_number = $1
		ORDER BY id DESC
		LIMIT 1
	`
	msg, err := s.queryOne(ctx, query, number)
	if err != nil {
		return nil, fmt.Errorf("ledger: latest message from: %w", err)
	}
	return msg, nil
}

func (s *Store) queryOne(ctx context.Context, query, number string) (*Message, error) {
	var msg Message
	row := s.pool.QueryRow(ctx, query, number)
	err := row.Scan(&msg.ID, &msg.CreatedAt, &msg.From, &msg.To, &msg.Body, &msg.Source, &msg.Step, &msg.IsCommand, &msg.IsFinal, &msg.MessageSID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessagesTo returns every message addressed to the number, most recent
// first.
func (s *Store) ListMessagesTo(ctx context.Context, number string) ([]ChatEntry, error) {
	query := `
		SELECT id, created_at, from_number, to_number, body
		FROM messages
		WHERE to_number = $1
		ORDER BY id DESC
	`
	rows, err := s.pool.Query(ctx, query, number)
	if err != nil {
		return nil, fmt.Errorf("ledger: list messages: %w", err)
	}
	defer rows.Close()
	var entries []ChatEntry
	for rows.Next() {
		var entry ChatEntry
		if err := rows.Scan(&entry.ID, &entry.CreatedAt, &entry.From, &entry.To, &entry.Body); err != nil {
			return nil, fmt.Errorf("ledger: scan chat entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
