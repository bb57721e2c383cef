package out

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bnkchallenge/internal/modules/wallet/domain"
	"bnkchallenge/internal/platform/sqlitedb"
)

type SQLiteLedger struct {
	db *sql.DB
}

func NewSQLiteLedger(ctx context.Context, db *sql.DB) (*SQLiteLedger, error) {
	l := &SQLiteLedger{db: db}
	if err := l.ensureSchema(ctx); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *SQLiteLedger) ensureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS wallet_ledger (
  seq INTEGER PRIMARY KEY AUTOINCREMENT,
  id TEXT NOT NULL UNIQUE,
  mission_id TEXT NOT NULL,
  reward INTEGER NOT NULL,
  balance INTEGER NOT NULL,
  confirmed INTEGER NOT NULL,
  created_at TEXT NOT NULL
);
`
	if _, err := l.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create wallet_ledger table: %w", err)
	}
	return nil
}

func (l *SQLiteLedger) Append(ctx context.Context, e domain.Entry) error {
	_, err := l.db.ExecContext(ctx, `
INSERT INTO wallet_ledger (id, mission_id, reward, balance, confirmed, created_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.MissionID, e.Reward, e.Balance, e.Confirmed, sqlitedb.FormatTime(e.At))
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

const selectEntries = `SELECT id, mission_id, reward, balance, confirmed, created_at FROM wallet_ledger ORDER BY seq DESC`

func (l *SQLiteLedger) Latest(ctx context.Context) (domain.Entry, bool, error) {
	row := l.db.QueryRowContext(ctx, selectEntries+` LIMIT 1`)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Entry{}, false, nil
	}
	if err != nil {
		return domain.Entry{}, false, err
	}
	return e, true, nil
}

// List returns entries newest first. A non-positive limit returns all.
func (l *SQLiteLedger) List(ctx context.Context, limit int) ([]domain.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := l.db.QueryContext(ctx, selectEntries+` LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()
	var out []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.Entry, error) {
	var (
		e       domain.Entry
		created string
	)
	if err := s.Scan(&e.ID, &e.MissionID, &e.Reward, &e.Balance, &e.Confirmed, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Entry{}, err
		}
		return domain.Entry{}, fmt.Errorf("scan ledger entry: %w", err)
	}
	at, err := sqlitedb.ParseTime(created)
	if err != nil {
		return domain.Entry{}, err
	}
	e.At = at
	return e, nil
}
