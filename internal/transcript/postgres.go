package transcript

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/voxbridge/voxbridge/internal/relay"
)

var _ Store = (*PostgresStore)(nil)

const ddlTranscriptEntries = `
CREATE TABLE IF NOT EXISTS transcript_entries (
    id            BIGSERIAL    PRIMARY KEY,
    session_id    TEXT         NOT NULL,
    source        TEXT         NOT NULL,
    from_language TEXT         NOT NULL,
    to_language   TEXT         NOT NULL,
    original      TEXT         NOT NULL,
    translated    TEXT         NOT NULL,
    spoken_at     TIMESTAMPTZ  NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_transcript_entries_session_spoken
    ON transcript_entries (session_id, spoken_at);
`

// PostgresStore is a Store backed by a transcript_entries table. All methods
// are safe for concurrent use.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database at dsn and ensures the
// transcript schema exists. The migration is idempotent.
func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("transcript store: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("transcript store: ping: %w", err)
	}
	if _, err := pool.Exec(ctx, ddlTranscriptEntries); err != nil {
		pool.Close()
		return nil, fmt.Errorf("transcript store: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Append implements [Store].
func (s *PostgresStore) Append(ctx context.Context, e Entry) error {
	const q = `
		INSERT INTO transcript_entries
		    (session_id, source, from_language, to_language, original, translated, spoken_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.pool.Exec(ctx, q,
		e.SessionID,
		string(e.Source),
		e.FromLanguage,
		e.ToLanguage,
		e.Original,
		e.Translated,
		e.SpokenAt,
	)
	if err != nil {
		return fmt.Errorf("transcript store: append: %w", err)
	}
	return nil
}

// BySession implements [Store].
func (s *PostgresStore) BySession(ctx context.Context, sessionID string) ([]Entry, error) {
	const q = `
		SELECT session_id, source, from_language, to_language, original, translated, spoken_at
		FROM   transcript_entries
		WHERE  session_id = $1
		ORDER  BY spoken_at, id`

	rows, err := s.pool.Query(ctx, q, sessionID)
	if err != nil {
		return nil, fmt.Errorf("transcript store: by session: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Entry, error) {
		var (
			e      Entry
			source string
		)
		if err := row.Scan(
			&e.SessionID,
			&source,
			&e.FromLanguage,
			&e.ToLanguage,
			&e.Original,
			&e.Translated,
			&e.SpokenAt,
		); err != nil {
			return Entry{}, err
		}
		e.Source = relay.ParticipantType(source)
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("transcript store: scan rows: %w", err)
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Close releases the underlying connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}
