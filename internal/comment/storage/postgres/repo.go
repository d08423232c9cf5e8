package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/wb-go/wbf/retry"
	"github.com/wb-go/wbf/zlog"

	"github.com/MyNameIsWhaaat/commentforest/internal/comment/storage"
)

const schema = `
	CREATE TABLE IF NOT EXISTS forests (
		root_id    TEXT PRIMARY KEY,
		snapshot   JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

type Repo struct {
	db *sql.DB
}

var _ storage.Repository = (*Repo)(nil)

func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

// Open connects through the pgx stdlib driver and pings until the server
// answers or the strategy gives up.
func Open(ctx context.Context, dsn string, strategy retry.Strategy) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	attempt := 0
	err = retry.Do(func() error {
		attempt++
		if err := db.PingContext(ctx); err != nil {
			zlog.Logger.Warn().Err(err).Int("attempt", attempt).Msg("postgres ping failed")
			return err
		}
		return nil
	}, strategy)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// Migrate creates the forests table when it is missing.
func (r *Repo) Migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

func (r *Repo) Exists(ctx context.Context, rootID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM forests WHERE root_id=$1`, rootID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *Repo) Save(ctx context.Context, rootID string, snapshot []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO forests(root_id, snapshot)
		VALUES ($1, $2::jsonb)
		ON CONFLICT (root_id) DO UPDATE
		SET snapshot = EXCLUDED.snapshot, updated_at = now()
	`, rootID, string(snapshot))
	return err
}

func (r *Repo) Load(ctx context.Context, rootID string) ([]byte, error) {
	var snapshot string
	err := r.db.QueryRowContext(ctx, `
		SELECT snapshot::text
		FROM forests
		WHERE root_id=$1
	`, rootID).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(snapshot), nil
}

func (r *Repo) Delete(ctx context.Context, rootID string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM forests WHERE root_id=$1`, rootID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
