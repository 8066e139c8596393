package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/mtanig/nicocal/backend/internal/models"
)

// Postgres implements Store on top of a Postgres database.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to Postgres and verifies connectivity.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Postgres{db: db}, nil
}

// Close releases the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// Ensure creates the schema, including the unique indexes the Store
// contract relies on.
func (p *Postgres) Ensure(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS broadcasts (
    key TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    open_time TIMESTAMPTZ NOT NULL,
    start_time TIMESTAMPTZ NOT NULL,
    type TEXT NOT NULL DEFAULT '',
    password BOOLEAN NOT NULL DEFAULT FALSE,
    premium_only BOOLEAN NOT NULL DEFAULT FALSE,
    link TEXT NOT NULL UNIQUE
);
CREATE INDEX IF NOT EXISTS idx_broadcasts_open_time ON broadcasts(open_time);
CREATE TABLE IF NOT EXISTS keyword_indexes (
    key TEXT PRIMARY KEY,
    keyword TEXT NOT NULL,
    broadcast_key TEXT NOT NULL,
    open_time TIMESTAMPTZ NOT NULL,
    UNIQUE (keyword, broadcast_key)
);
CREATE INDEX IF NOT EXISTS idx_keyword_indexes_open_time ON keyword_indexes(open_time);
`)
	if err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (p *Postgres) PutBroadcasts(ctx context.Context, broadcasts []models.Broadcast, overwrite bool) ([]string, error) {
	if len(broadcasts) == 0 {
		return nil, nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `
INSERT INTO broadcasts (key, title, description, open_time, start_time, type, password, premium_only, link)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (link) DO NOTHING
RETURNING key`
	if overwrite {
		query = `
INSERT INTO broadcasts (key, title, description, open_time, start_time, type, password, premium_only, link)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (link) DO UPDATE SET
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    open_time = EXCLUDED.open_time,
    start_time = EXCLUDED.start_time,
    type = EXCLUDED.type,
    password = EXCLUDED.password,
    premium_only = EXCLUDED.premium_only
RETURNING key`
	}

	keys := make([]string, 0, len(broadcasts))
	for _, b := range broadcasts {
		key := b.Key
		if key == "" {
			key = uuid.NewString()
		}

		var affected string
		err := tx.QueryRowContext(ctx, query,
			key, b.Title, b.Description, b.OpenTime, b.StartTime, b.Type, b.Password, b.PremiumOnly, b.Link,
		).Scan(&affected)
		if errors.Is(err, sql.ErrNoRows) {
			// Conflicting link under the skip policy.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("put broadcast %s: %w", b.Link, err)
		}
		keys = append(keys, affected)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return keys, nil
}

func (p *Postgres) BroadcastByLink(ctx context.Context, link string) (*models.Broadcast, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, selectBroadcast+` WHERE link = $1`, link))
}

func (p *Postgres) BroadcastByKey(ctx context.Context, key string) (*models.Broadcast, error) {
	return p.scanOne(p.db.QueryRowContext(ctx, selectBroadcast+` WHERE key = $1`, key))
}

func (p *Postgres) BroadcastsOpenedBetween(ctx context.Context, start time.Time, end *time.Time) ([]models.Broadcast, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if end == nil {
		rows, err = p.db.QueryContext(ctx, selectBroadcast+` WHERE open_time >= $1 ORDER BY open_time ASC`, start)
	} else {
		rows, err = p.db.QueryContext(ctx, selectBroadcast+` WHERE open_time >= $1 AND open_time <= $2 ORDER BY open_time ASC`, start, *end)
	}
	if err != nil {
		return nil, fmt.Errorf("query broadcasts: %w", err)
	}
	defer rows.Close()

	var out []models.Broadcast
	for rows.Next() {
		var b models.Broadcast
		if err := rows.Scan(&b.Key, &b.Title, &b.Description, &b.OpenTime, &b.StartTime, &b.Type, &b.Password, &b.PremiumOnly, &b.Link); err != nil {
			return nil, fmt.Errorf("scan broadcast: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) PutIndexes(ctx context.Context, indexes []models.KeywordIndex) ([]string, error) {
	if len(indexes) == 0 {
		return nil, nil
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	keys := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		key := idx.Key
		if key == "" {
			key = uuid.NewString()
		}

		var inserted string
		err := tx.QueryRowContext(ctx, `
INSERT INTO keyword_indexes (key, keyword, broadcast_key, open_time)
VALUES ($1, $2, $3, $4)
ON CONFLICT (keyword, broadcast_key) DO NOTHING
RETURNING key`,
			key, idx.Keyword, idx.BroadcastKey, idx.OpenTime,
		).Scan(&inserted)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("put index %q: %w", idx.Keyword, err)
		}
		keys = append(keys, inserted)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return keys, nil
}

func (p *Postgres) CountIndexes(ctx context.Context, keyword, broadcastKey string) (int, error) {
	var count int
	err := p.db.QueryRowContext(ctx,
		`SELECT count(*) FROM keyword_indexes WHERE keyword = $1 AND broadcast_key = $2`,
		keyword, broadcastKey,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count indexes: %w", err)
	}
	return count, nil
}

func (p *Postgres) DeleteIndexesBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx, `DELETE FROM keyword_indexes WHERE open_time <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old indexes: %w", err)
	}
	return res.RowsAffected()
}

func (p *Postgres) DeleteAllIndexes(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, `DELETE FROM keyword_indexes`); err != nil {
		return fmt.Errorf("delete all indexes: %w", err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

const selectBroadcast = `SELECT key, title, description, open_time, start_time, type, password, premium_only, link FROM broadcasts`

func (p *Postgres) scanOne(row *sql.Row) (*models.Broadcast, error) {
	var b models.Broadcast
	err := row.Scan(&b.Key, &b.Title, &b.Description, &b.OpenTime, &b.StartTime, &b.Type, &b.Password, &b.PremiumOnly, &b.Link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan broadcast: %w", err)
	}
	return &b, nil
}
