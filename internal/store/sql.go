package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/i474232898/weather-data-collector/internal/report"
	"github.com/i474232898/weather-data-collector/internal/weather"
)

const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// TableName is the single table holding weather rows.
const TableName = "wetter"

var (
	// ErrClosed is returned by every operation after Close.
	ErrClosed = errors.New("store is closed")
	// ErrUnsupportedDriver is returned by Open for unknown drivers.
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)

var schemas = map[string]string{
	DriverSQLite: `CREATE TABLE IF NOT EXISTS wetter (
        ID INTEGER PRIMARY KEY,
        Ort TEXT,
        Temperature REAL,
        Description_DE TEXT,
        Description_EN TEXT
    )`,
	DriverMySQL: `CREATE TABLE IF NOT EXISTS wetter (
        ID BIGINT AUTO_INCREMENT PRIMARY KEY,
        Ort TEXT,
        Temperature DOUBLE,
        Description_DE TEXT,
        Description_EN TEXT
    )`,
}

// SQLStore persists rows in the wetter table of a SQLite or MySQL database.
type SQLStore struct {
	mu     sync.Mutex
	db     *sql.DB
	driver string
	table  report.Table
	closed bool
}

// Options configures how rows are labelled when rendered.
type Options struct {
	Table report.Table
}

// Open opens (or creates) the database and initializes the schema.
// For SQLite the dsn is a file path; missing parent directories are created.
func Open(ctx context.Context, driver, dsn string, opts Options) (*SQLStore, error) {
	if _, ok := schemas[driver]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "." && !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				zap.L().Error("create database directory", zap.String("dir", dir), zap.Error(err))
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		zap.L().Error("open database", zap.String("driver", driver), zap.Error(err))
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}
	if driver == DriverSQLite {
		// One writer, and the transaction must see its own connection.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, driver: driver, table: opts.Table}
	if err := s.Init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Init creates the wetter table if it does not exist. It is safe to call
// repeatedly and never touches existing rows.
func (s *SQLStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	if _, err := s.db.ExecContext(ctx, schemas[s.driver]); err != nil {
		zap.L().Error("create table", zap.String("table", TableName), zap.Error(err))
		return fmt.Errorf("create table %s: %w", TableName, err)
	}
	return nil
}

// InsertBatch pairs the observations into rows and inserts them in a single
// transaction. An incomplete set inserts nothing.
func (s *SQLStore) InsertBatch(ctx context.Context, set *weather.ObservationSet) (int, error) {
	rows, err := set.Rows()
	if err != nil {
		zap.L().Error("refusing to insert batch", zap.Error(err))
		return 0, err
	}
	return s.insertRows(ctx, rows)
}

func (s *SQLStore) insertRows(ctx context.Context, rows []weather.Row) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, ErrClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		zap.L().Error("begin insert transaction", zap.Error(err))
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				zap.L().Error("rollback insert transaction", zap.Error(rbErr))
			}
			zap.L().Error("insert rolled back", zap.String("table", TableName), zap.Error(err))
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO wetter (Ort, Temperature, Description_DE, Description_EN) VALUES (?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err = stmt.ExecContext(ctx, r.Place, r.Temperature, r.DescriptionPrimary, r.DescriptionSecondary); err != nil {
			return 0, fmt.Errorf("insert %s: %w", r.Place, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return len(rows), nil
}

// All returns every stored row in insertion order.
func (s *SQLStore) All(ctx context.Context) ([]weather.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}

	rows, err := s.db.QueryContext(ctx, `SELECT ID, Ort, Temperature, Description_DE, Description_EN FROM wetter ORDER BY ID`)
	if err != nil {
		zap.L().Error("query rows", zap.String("table", TableName), zap.Error(err))
		return nil, fmt.Errorf("query %s: %w", TableName, err)
	}
	defer rows.Close()

	out := make([]weather.Row, 0)
	for rows.Next() {
		var (
			r         weather.Row
			place     sql.NullString
			temp      sql.NullFloat64
			primary   sql.NullString
			secondary sql.NullString
		)
		if err := rows.Scan(&r.ID, &place, &temp, &primary, &secondary); err != nil {
			return nil, fmt.Errorf("scan %s: %w", TableName, err)
		}
		r.Place = place.String
		r.Temperature = temp.Float64
		r.DescriptionPrimary = primary.String
		r.DescriptionSecondary = secondary.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// RenderAll writes every stored row as a text table to w.
func (s *SQLStore) RenderAll(ctx context.Context, w io.Writer) error {
	rows, err := s.All(ctx)
	if err != nil {
		return err
	}
	return s.table.Render(w, rows)
}

// Close releases the database handle. Calling it more than once is a no-op.
func (s *SQLStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.db.Close(); err != nil {
		zap.L().Error("close database", zap.Error(err))
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
