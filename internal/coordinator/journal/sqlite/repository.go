// Package sqlite stores the checkout journal in SQLite.
//
// WAL mode is enabled on Open so the status endpoint can read while a
// checkout is writing.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Keiou-shim/FlexOrder-DesignPatterns/internal/coordinator/journal"

	// Pure-Go driver; no CGO needed in the container image.
	_ "modernc.org/sqlite"
)

// schema is applied on every Open. The table is append-only; the latest row
// per checkout_id is the current state of that attempt.
const schema = `
CREATE TABLE IF NOT EXISTS checkout_journal (
    id              INTEGER PRIMARY KEY AUTOINCREMENT,
    checkout_id     TEXT        NOT NULL,
    status          TEXT        NOT NULL,
    stage           TEXT        NOT NULL DEFAULT '',

    -- JSON summary of the priced order, only on STARTED rows.
    payload         TEXT,

    final_total     TEXT        NOT NULL DEFAULT '',
    error_messages  TEXT        NOT NULL DEFAULT '[]',
    trace_id        TEXT        NOT NULL DEFAULT '',
    span_id         TEXT        NOT NULL DEFAULT '',
    recorded_at     TEXT        NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checkout_journal_checkout_id ON checkout_journal(checkout_id, recorded_at);
CREATE INDEX IF NOT EXISTS idx_checkout_journal_trace_id ON checkout_journal(trace_id);
`

// timeLayout is fixed width so that recorded_at sorts correctly as TEXT.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Repository is the SQLite implementation of journal.Store.
type Repository struct {
	db *sql.DB
}

var _ journal.Store = (*Repository)(nil)

// Open opens (or creates) the database at path and applies the schema.
//
//	repo, err := sqlite.Open("./data/checkout.db")
func Open(path string) (*Repository, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}

	// One writer connection; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// Save appends entry. It is safe to call concurrently.
func (r *Repository) Save(ctx context.Context, entry *journal.Entry) error {
	const q = `
		INSERT INTO checkout_journal
			(checkout_id, status, stage, payload, final_total, error_messages, trace_id, span_id, recorded_at)
		VALUES
			(?, ?, ?, ?, ?, ?, ?, ?, ?)`

	errJSON, err := encodeErrors(entry.Errors)
	if err != nil {
		return fmt.Errorf("sqlite: encode errors for %q: %w", entry.CheckoutID, err)
	}

	_, err = r.db.ExecContext(ctx, q,
		entry.CheckoutID,
		string(entry.Status),
		entry.Stage,
		nullableString(entry.Payload),
		entry.FinalTotal,
		errJSON,
		entry.TraceID,
		entry.SpanID,
		entry.RecordedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save journal entry for %q: %w", entry.CheckoutID, err)
	}
	return nil
}

const selectColumns = `
		SELECT checkout_id, status, stage, COALESCE(payload,''), final_total,
		       error_messages, trace_id, span_id, recorded_at
		FROM   checkout_journal`

// GetLatest returns the most recent entry for checkoutID.
func (r *Repository) GetLatest(ctx context.Context, checkoutID string) (*journal.Entry, error) {
	q := selectColumns + `
		WHERE  checkout_id = ?
		ORDER  BY recorded_at DESC, id DESC
		LIMIT  1`

	entry, err := scanEntry(r.db.QueryRowContext(ctx, q, checkoutID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlite: checkout %q: %w", checkoutID, journal.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get latest for %q: %w", checkoutID, err)
	}
	return entry, nil
}

// List returns every entry of checkoutID in the order it was written.
func (r *Repository) List(ctx context.Context, checkoutID string) ([]*journal.Entry, error) {
	q := selectColumns + `
		WHERE  checkout_id = ?
		ORDER  BY recorded_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, q, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list %q: %w", checkoutID, err)
	}
	defer rows.Close()

	var out []*journal.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: list %q: %w", checkoutID, err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: list %q: %w", checkoutID, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("sqlite: checkout %q: %w", checkoutID, journal.ErrNotFound)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*journal.Entry, error) {
	var (
		entry      journal.Entry
		status     string
		errJSON    string
		recordedAt string
	)
	err := row.Scan(
		&entry.CheckoutID,
		&status,
		&entry.Stage,
		&entry.Payload,
		&entry.FinalTotal,
		&errJSON,
		&entry.TraceID,
		&entry.SpanID,
		&recordedAt,
	)
	if err != nil {
		return nil, err
	}
	entry.Status = journal.Status(status)

	if err := json.Unmarshal([]byte(errJSON), &entry.Errors); err != nil {
		return nil, fmt.Errorf("decode error_messages: %w", err)
	}
	if len(entry.Errors) == 0 {
		entry.Errors = nil
	}

	entry.RecordedAt, err = parseRecordedAt(recordedAt)
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return nil
}

func encodeErrors(errs []string) (string, error) {
	if len(errs) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(errs)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// nullableString stores NULL for an empty string so only STARTED rows carry a
// payload.
func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseRecordedAt(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse recorded_at %q: %w", s, err)
	}
	return t, nil
}
