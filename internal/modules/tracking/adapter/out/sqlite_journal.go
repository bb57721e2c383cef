package out

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bnkchallenge/internal/modules/tracking/domain"
	"bnkchallenge/internal/platform/sqlitedb"
)

// SQLiteJournal keeps one row per finished tracking session.
type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(ctx context.Context, db *sql.DB) (*SQLiteJournal, error) {
	j := &SQLiteJournal{db: db}
	if err := j.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return j, nil
}

func (j *SQLiteJournal) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS tracking_sessions (
  id TEXT PRIMARY KEY,
  mission_id TEXT NOT NULL,
  state TEXT NOT NULL,
  accumulated_ms INTEGER NOT NULL,
  samples INTEGER NOT NULL,
  reward INTEGER NOT NULL,
  coin_balance INTEGER NOT NULL,
  started_at TEXT NOT NULL,
  ended_at TEXT NOT NULL
);
`
	if _, err := j.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create tracking_sessions table: %w", err)
	}
	return nil
}

func (j *SQLiteJournal) Record(ctx context.Context, record domain.SessionRecord) error {
	const stmt = `
INSERT INTO tracking_sessions (id, mission_id, state, accumulated_ms, samples, reward, coin_balance, started_at, ended_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  state=excluded.state,
  accumulated_ms=excluded.accumulated_ms,
  samples=excluded.samples,
  reward=excluded.reward,
  coin_balance=excluded.coin_balance,
  ended_at=excluded.ended_at;
`
	_, err := j.db.ExecContext(ctx, stmt,
		record.SessionID,
		record.MissionID,
		string(record.State),
		record.AccumulatedDwell.Milliseconds(),
		record.Samples,
		record.Reward,
		record.CoinBalance,
		sqlitedb.FormatTime(record.StartedAt),
		sqlitedb.FormatTime(record.EndedAt),
	)
	if err != nil {
		return fmt.Errorf("record tracking session: %w", err)
	}
	return nil
}

// List returns the latest sessions first. A non-positive limit returns all.
func (j *SQLiteJournal) List(ctx context.Context, limit int) ([]domain.SessionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT id, mission_id, state, accumulated_ms, samples, reward, coin_balance, started_at, ended_at
FROM tracking_sessions
ORDER BY ended_at DESC, id DESC
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query tracking sessions: %w", err)
	}
	defer rows.Close()

	var out []domain.SessionRecord
	for rows.Next() {
		var (
			rec              domain.SessionRecord
			state            string
			accumulatedMS    int64
			started, endedAt string
		)
		if err := rows.Scan(&rec.SessionID, &rec.MissionID, &state, &accumulatedMS, &rec.Samples, &rec.Reward, &rec.CoinBalance, &started, &endedAt); err != nil {
			return nil, fmt.Errorf("scan tracking session: %w", err)
		}
		rec.State = domain.State(state)
		rec.AccumulatedDwell = time.Duration(accumulatedMS) * time.Millisecond
		if rec.StartedAt, err = sqlitedb.ParseTime(started); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = sqlitedb.ParseTime(endedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracking sessions: %w", err)
	}
	return out, nil
}
