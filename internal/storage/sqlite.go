// Package storage persists daily records in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"daily_tracker/internal/records"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	driverName = "sqlite"

	// Fixed width so that lexical order equals chronological order.
	timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

	selectColumns = `id, date, sales, expenses, profit, notes, created_at, updated_at`
)

// SQLiteStorage implements records.Storage on top of a SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ records.Storage = (*SQLiteStorage)(nil)

// DSN builds the connection string for dbPath. Transactions take the write
// lock up front so read-modify-write sequences cannot interleave.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
}

// NewSQLiteStorage opens (creating if needed) the database at dbPath and
// applies pending migrations.
func NewSQLiteStorage(dbPath string, logger *zap.Logger) (*SQLiteStorage, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	version, err := RunMigrations(dsn, logger)
	if err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("sqlite storage ready", zap.String("path", dbPath), zap.Uint("schema_version", version))
	return &SQLiteStorage{db: db, logger: logger}, nil
}

// Close releases the underlying connection pool.
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStorage) Create(ctx context.Context, r *records.DailyRecord) error {
	if r.ID == "" {
		return records.ErrEmptyID
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO daily_records (`+selectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID,
		r.Date.Format(records.DateLayout),
		r.Sales.String(),
		r.Expenses.String(),
		r.Profit.String(),
		r.Notes,
		r.CreatedAt.UTC().Format(timestampLayout),
		r.UpdatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) Read(ctx context.Context, id string) (*records.DailyRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM daily_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select record: %w", err)
	}
	return r, nil
}

func (s *SQLiteStorage) GetAll(ctx context.Context) ([]*records.DailyRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM daily_records ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select records: %w", err)
	}
	defer rows.Close()

	all := make([]*records.DailyRecord, 0)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return all, nil
}

// Update runs the read, mutate and write inside one immediate transaction.
func (s *SQLiteStorage) Update(ctx context.Context, id string, mutate records.MutateFunc) (*records.DailyRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin update: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM daily_records WHERE id = ?`, id)
	r, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, records.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select record for update: %w", err)
	}

	if err := mutate(r); err != nil {
		return nil, err
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE daily_records SET sales = ?, expenses = ?, profit = ?, notes = ?, updated_at = ? WHERE id = ?`,
		r.Sales.String(),
		r.Expenses.String(),
		r.Profit.String(),
		r.Notes,
		r.UpdatedAt.UTC().Format(timestampLayout),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("update record: %w", err)
	} else if n == 0 {
		return nil, records.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit update: %w", err)
	}
	return r, nil
}

// Delete is a single conditional statement; zero affected rows means the
// record did not exist.
func (s *SQLiteStorage) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM daily_records WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*records.DailyRecord, error) {
	var (
		r                          records.DailyRecord
		date, createdAt, updatedAt string
	)
	if err := sc.Scan(&r.ID, &date, &r.Sales, &r.Expenses, &r.Profit, &r.Notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if r.Date, err = time.Parse(records.DateLayout, date); err != nil {
		return nil, fmt.Errorf("parse date %q: %w", date, err)
	}
	if r.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	if r.UpdatedAt, err = time.Parse(timestampLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", updatedAt, err)
	}
	return &r, nil
}
