package snapshot

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hivdash/hivdash/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const snapshotCols = `id, kind, source, query, payload, fetched_at`

func (r *repoPG) scanRow(row pgx.Row) (*Snapshot, error) {
	var s Snapshot
	var payload []byte
	if err := row.Scan(&s.ID, &s.Kind, &s.Source, &s.Query, &payload, &s.FetchedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	s.Payload = payload
	return &s, nil
}

func (r *repoPG) Create(ctx context.Context, s *Snapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO fetch_snapshot (id, kind, source, query, payload, fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.ID, s.Kind, string(s.Source), s.Query, []byte(s.Payload), s.FetchedAt)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return r.scanRow(r.conn(ctx).QueryRow(ctx, `SELECT `+snapshotCols+` FROM fetch_snapshot WHERE id = $1`, id))
}

func (r *repoPG) List(ctx context.Context, kind string, limit, offset int) ([]*Snapshot, int, error) {
	where := ` WHERE ($1::text = '' OR kind = $1)`

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM fetch_snapshot`+where, kind).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshots: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+snapshotCols+` FROM fetch_snapshot`+where+` ORDER BY fetched_at DESC LIMIT $2 OFFSET $3`,
		kind, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var items []*Snapshot
	for rows.Next() {
		s, err := r.scanRow(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}
