// Package storage persists expense records in a local SQLite database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"hazine/internal/core"

	_ "modernc.org/sqlite"
)

const selectColumns = "id, date, category, amount, description, mission, image_path"

// Store is the record store. All access goes through one long-lived
// connection; every write is a single atomic statement, so a failed call
// never leaves a partial mutation behind.
type Store struct {
	db *sql.DB
}

// New opens (creating if absent) the database at dbPath and applies the
// schema migrations.
func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Create validates and inserts a new expense, returning the assigned id.
func (s *Store) Create(ctx context.Context, e core.Expense) (int64, error) {
	if err := e.Validate(); err != nil {
		return 0, err
	}

	res, err := s.db.ExecContext(ctx,
		"INSERT INTO expenses(date, category, amount, description, mission, image_path) VALUES (?, ?, ?, ?, ?, ?)",
		e.Date.String(), e.Category, e.Amount, e.Description, e.Mission, e.ImagePath)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("read inserted id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"date", e.Date.String(),
		"category", e.Category,
		"amount", e.Amount,
		"mission", e.Mission)

	return id, nil
}

// Update replaces all mutable fields of the record with the given id.
func (s *Store) Update(ctx context.Context, id int64, e core.Expense) error {
	if err := e.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		"UPDATE expenses SET date=?, category=?, amount=?, description=?, mission=?, image_path=? WHERE id=?",
		e.Date.String(), e.Category, e.Amount, e.Description, e.Mission, e.ImagePath, id)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense updated", "id", id)
	return nil
}

// Delete removes the record. The referenced receipt file, if any, is left
// alone.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id=?", id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// Get retrieves a single expense by id.
func (s *Store) Get(ctx context.Context, id int64) (core.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+selectColumns+" FROM expenses WHERE id=?", id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, core.ErrNotFound
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// ListAll returns every expense, newest first (date desc, id desc).
func (s *Store) ListAll(ctx context.Context) ([]core.Expense, error) {
	return s.queryList(ctx,
		"SELECT "+selectColumns+" FROM expenses ORDER BY date DESC, id DESC")
}

// FilterList returns the expenses matching every supplied predicate of f,
// in the same newest-first order as ListAll. An empty filter is ListAll.
func (s *Store) FilterList(ctx context.Context, f core.Filter) ([]core.Expense, error) {
	query := "SELECT " + selectColumns + " FROM expenses WHERE 1=1"
	var args []any
	if f.From != nil {
		query += " AND date >= ?"
		args = append(args, f.From.String())
	}
	if f.To != nil {
		query += " AND date <= ?"
		args = append(args, f.To.String())
	}
	if f.Mission != "" {
		// instr keeps the match case-sensitive; LIKE folds ASCII case.
		query += " AND instr(mission, ?) > 0"
		args = append(args, f.Mission)
	}
	query += " ORDER BY date DESC, id DESC"
	return s.queryList(ctx, query, args...)
}

// ListByMission returns the expenses whose mission matches exactly,
// oldest first (date asc, id asc). Reports read chronologically, the
// reverse of the listing view.
func (s *Store) ListByMission(ctx context.Context, mission string) ([]core.Expense, error) {
	return s.queryList(ctx,
		"SELECT "+selectColumns+" FROM expenses WHERE mission = ? ORDER BY date ASC, id ASC",
		mission)
}

func (s *Store) queryList(ctx context.Context, query string, args ...any) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(r rowScanner) (core.Expense, error) {
	var (
		e                             core.Expense
		dateStr                       string
		description, mission, imgPath sql.NullString
	)
	if err := r.Scan(&e.ID, &dateStr, &e.Category, &e.Amount, &description, &mission, &imgPath); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDay(dateStr)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored date %q: %w", dateStr, err)
	}
	e.Date = d
	e.Description = description.String
	e.Mission = mission.String
	e.ImagePath = imgPath.String
	return e, nil
}
