package ledger

import (
	"context"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v3"
)

func messageRows() *pgxmock.Rows {
	return pgxmock.NewRows([]string{
		"id", "created_at", "from_number", "to_number", "body",
		"source", "step", "is_command", "is_final", "message_sid",
	})
}

func TestStoreInsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	mock.ExpectQuery("INSERT INTO messages").
		WithArgs("+14155552671", "+15550001111", "hello", SourceWhatsApp, 0, false, false, "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(7)))

	id, err := store.Insert(context.Background(), mock, Message{
		From:   "+14155552671",
		To:     "+15550001111",
		Body:   "hello",
		Source: SourceWhatsApp,
	})
	if err != nil {
		t.Fatalf("insert message: %v", err)
	}
	if id != 7 {
		t.Fatalf("expected id 7, got %d", id)
	}
}

func TestLatestFlowMessageTo(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	created := time.Now().Add(-5 * time.Minute)
	mock.ExpectQuery("SELECT id, created_at").
		WithArgs("+14155552671").
		WillReturnRows(messageRows().
			AddRow(int64(12), created, "+15550001111", "+14155552671", "Step two?", SourceWhatsApp, 2, false, false, "SM12"))

	msg, err := store.LatestFlowMessageTo(context.Background(), "+14155552671")
	if err != nil {
		t.Fatalf("latest flow message: %v", err)
	}
	if msg == nil || msg.Step != 2 || msg.MessageSID != "SM12" {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestLatestFlowMessageToNoRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	mock.ExpectQuery("SELECT id, created_at").
		WithArgs("+19990000000").
		WillReturnRows(messageRows())

	msg, err := store.LatestFlowMessageTo(context.Background(), "+19990000000")
	if err != nil {
		t.Fatalf("expected nil error on empty result, got %v", err)
	}
	if msg != nil {
		t.Fatalf("expected nil message, got %+v", msg)
	}
}

func TestLatestMessageFrom(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	mock.ExpectQuery("SELECT id, created_at").
		WithArgs("+14155552671").
		WillReturnRows(messageRows().
			AddRow(int64(3), time.Now(), "+14155552671", "+15550001111", "hi", SourceMobile, 0, false, false, ""))

	msg, err := store.LatestMessageFrom(context.Background(), "+14155552671")
	if err != nil {
		t.Fatalf("latest message from: %v", err)
	}
	if msg == nil || msg.Source != SourceMobile {
		t.Fatalf("unexpected message: %+v", msg)
	}
}

func TestListMessagesTo(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock: %v", err)
	}
	defer mock.Close()

	store := &Store{pool: mock}
	now := time.Now()
	mock.ExpectQuery("SELECT id, created_at, from_number, to_number, body").
		WithArgs("+14155552671").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at", "from_number", "to_number", "body"}).
			AddRow(int64(9), now, "+15550001111", "+14155552671", "second").
			AddRow(int64(4), now.Add(-time.Hour), "+15550001111", "+14155552671", "first"))

	entries, err := store.ListMessagesTo(context.Background(), "+14155552671")
	if err != nil {
		t.Fatalf("list messages: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != 9 || entries[0].Body != "second" {
		t.Fatalf("expected most recent first, got %+v", entries[0])
	}
}
