package out

import (
	"context"
	"database/sql"
	"fmt"

	"bnkchallenge/internal/modules/catalog/domain"
	catalogout "bnkchallenge/internal/modules/catalog/port/out"
	"bnkchallenge/internal/platform/sqlitedb"
)

type SQLiteStateStore struct {
	db *sql.DB
}

func NewSQLiteStateStore(ctx context.Context, db *sql.DB) (*SQLiteStateStore, error) {
	s := &SQLiteStateStore{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStateStore) ensureSchema(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS mission_likes (
  mission_id TEXT PRIMARY KEY,
  liked INTEGER NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS mission_participation (
  mission_id TEXT PRIMARY KEY,
  status TEXT NOT NULL,
  updated_at TEXT NOT NULL
)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create catalog state tables: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStateStore) Likes(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mission_id, liked FROM mission_likes`)
	if err != nil {
		return nil, fmt.Errorf("query likes: %w", err)
	}
	defer rows.Close()
	out := map[string]bool{}
	for rows.Next() {
		var (
			id    string
			liked bool
		)
		if err := rows.Scan(&id, &liked); err != nil {
			return nil, fmt.Errorf("scan like: %w", err)
		}
		out[id] = liked
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate likes: %w", err)
	}
	return out, nil
}

func (s *SQLiteStateStore) SetLike(ctx context.Context, missionID string, liked bool) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO mission_likes (mission_id, liked) VALUES (?, ?)
ON CONFLICT(mission_id) DO UPDATE SET liked=excluded.liked`, missionID, liked)
	if err != nil {
		return fmt.Errorf("set like: %w", err)
	}
	return nil
}

func (s *SQLiteStateStore) Participations(ctx context.Context) (map[string]catalogout.Participation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT mission_id, status, updated_at FROM mission_participation`)
	if err != nil {
		return nil, fmt.Errorf("query participation: %w", err)
	}
	defer rows.Close()
	out := map[string]catalogout.Participation{}
	for rows.Next() {
		var id, status, updated string
		if err := rows.Scan(&id, &status, &updated); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		at, err := sqlitedb.ParseTime(updated)
		if err != nil {
			return nil, err
		}
		out[id] = catalogout.Participation{Status: domain.ParticipationStatus(status), UpdatedAt: at}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate participation: %w", err)
	}
	return out, nil
}

func (s *SQLiteStateStore) SetParticipation(ctx context.Context, missionID string, p catalogout.Participation) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO mission_participation (mission_id, status, updated_at) VALUES (?, ?, ?)
ON CONFLICT(mission_id) DO UPDATE SET status=excluded.status, updated_at=excluded.updated_at`,
		missionID, string(p.Status), sqlitedb.FormatTime(p.UpdatedAt))
	if err != nil {
		return fmt.Errorf("set participation: %w", err)
	}
	return nil
}
