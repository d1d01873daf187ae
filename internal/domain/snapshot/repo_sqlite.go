package snapshot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hivdash/hivdash/internal/platform/statsapi"
)

// timeLayout is fixed width so that text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type repoSQLite struct{ db *sql.DB }

// NewRepoSQLite stores snapshots in a SQLite database that has had
// SQLiteMigrations applied.
func NewRepoSQLite(db *sql.DB) Repository {
	return &repoSQLite{db: db}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (r *repoSQLite) scanRow(row rowScanner) (*Snapshot, error) {
	var (
		s         Snapshot
		id        string
		source    string
		payload   string
		fetchedAt string
	)
	if err := row.Scan(&id, &s.Kind, &source, &s.Query, &payload, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("parse snapshot id %q: %w", id, err)
	}
	at, err := time.Parse(timeLayout, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("parse fetched_at %q: %w", fetchedAt, err)
	}
	s.ID = parsed
	s.Source = statsapi.Source(source)
	s.Payload = []byte(payload)
	s.FetchedAt = at
	return &s, nil
}

func (r *repoSQLite) Create(ctx context.Context, s *Snapshot) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fetch_snapshot (id, kind, source, query, payload, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.Kind, string(s.Source), s.Query, string(s.Payload),
		s.FetchedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

func (r *repoSQLite) GetByID(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	return r.scanRow(r.db.QueryRowContext(ctx,
		`SELECT `+snapshotCols+` FROM fetch_snapshot WHERE id = ?`, id.String()))
}

func (r *repoSQLite) List(ctx context.Context, kind string, limit, offset int) ([]*Snapshot, int, error) {
	where := ` WHERE (?1 = '' OR kind = ?1)`

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM fetch_snapshot`+where, kind).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count snapshots: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+snapshotCols+` FROM fetch_snapshot`+where+` ORDER BY fetched_at DESC LIMIT ?2 OFFSET ?3`,
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
