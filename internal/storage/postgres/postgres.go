package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/FranksOps/seoscope/internal/storage"
	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ensure postgresBackend implements storage.Backend
var _ storage.Backend = (*postgresBackend)(nil)

type postgresBackend struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS scans (
	id TEXT PRIMARY KEY,
	url TEXT NOT NULL,
	domain TEXT NOT NULL,
	total INTEGER NOT NULL,
	record JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS scans_domain_created ON scans (domain, created_at);
`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// New creates a new Postgres-backed storage.Backend.
func New(ctx context.Context, dsn string) (storage.Backend, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &postgresBackend{pool: pool}, nil
}

func (b *postgresBackend) Save(ctx context.Context, record *storage.ScanRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	query, args, err := psql.Insert("scans").
		Columns("id", "url", "domain", "total", "record", "created_at").
		Values(record.ID, record.URL, record.Domain, record.Scores.Total, data, record.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET record = EXCLUDED.record, total = EXCLUDED.total").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := b.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save scan %s: %w", record.ID, err)
	}
	return nil
}

func (b *postgresBackend) Get(ctx context.Context, id string) (*storage.ScanRecord, error) {
	query, args, err := psql.Select("record").From("scans").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var data []byte
	err = b.pool.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scan %s: %w", id, err)
	}
	return decode(data)
}

func (b *postgresBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.ScanRecord, error) {
	q := psql.Select("record").From("scans").OrderBy("created_at DESC", "id DESC")
	if filter.URL != "" {
		q = q.Where(sq.Eq{"url": filter.URL})
	}
	if filter.Domain != "" {
		q = q.Where(sq.Eq{"domain": filter.Domain})
	}
	if filter.Since != nil {
		q = q.Where(sq.GtOrEq{"created_at": *filter.Since})
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := b.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query scans: %w", err)
	}
	defer rows.Close()

	results := []*storage.ScanRecord{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r, err := decode(data)
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

func (b *postgresBackend) Close() error {
	b.pool.Close()
	return nil
}

func decode(data []byte) (*storage.ScanRecord, error) {
	var r storage.ScanRecord
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return &r, nil
}
