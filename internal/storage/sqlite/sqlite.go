package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FranksOps/seoscope/internal/storage"
	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"
)

// ensure sqliteBackend implements storage.Backend
var _ storage.Backend = (*sqliteBackend)(nil)

type sqliteBackend struct {
	db *sql.DB
}

// created_at holds Unix nanoseconds so range filters compare numerically.
const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	domain TEXT NOT NULL,
	total INTEGER NOT NULL,
	record TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS scans_domain_created ON scans (domain, created_at);
`

// New creates a new SQLite-backed storage.Backend.
func New(dsn string) (storage.Backend, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &sqliteBackend{db: db}, nil
}

func (b *sqliteBackend) Save(ctx context.Context, record *storage.ScanRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	query, args, err := sq.Insert("scans").
		Columns("id", "url", "domain", "total", "record", "created_at").
		Values(record.ID, record.URL, record.Domain, record.Scores.Total, string(data), record.CreatedAt.UnixNano()).
		Suffix("ON CONFLICT (id) DO UPDATE SET record = excluded.record, total = excluded.total").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("save scan %s: %w", record.ID, err)
	}
	return nil
}

func (b *sqliteBackend) Get(ctx context.Context, id string) (*storage.ScanRecord, error) {
	query, args, err := sq.Select("record").From("scans").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var data string
	err = b.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	return decode([]byte(data))
}

func (b *sqliteBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.ScanRecord, error) {
	q := sq.Select("record").From("scans").OrderBy("created_at DESC", "id DESC")
	if filter.URL != "" {
		q = q.Where(sq.Eq{"url": filter.URL})
	}
	if filter.Domain != "" {
		q = q.Where(sq.Eq{"domain": filter.Domain})
	}
	if filter.Since != nil {
		q = q.Where(sq.GtOrEq{"created_at": filter.Since.UnixNano()})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		if filter.Limit <= 0 {
			// SQLite only accepts OFFSET after LIMIT.
			q = q.Limit(uint64(1<<62))
		}
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	results := []*storage.ScanRecord{}
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r, err := decode([]byte(data))
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}

	return results, nil
}

func (b *sqliteBackend) Close() error {
	return b.db.Close()
}

func decode(data []byte) (*storage.ScanRecord, error) {
	var r storage.ScanRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &r, nil
}
