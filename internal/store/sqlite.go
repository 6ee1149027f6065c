package store

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore persists parsed sales rows instead of the raw upload. Rows
// without an id_venta get a generated one when saved.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.configure(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.createSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) configure() error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := s.db.ExecContext(context.Background(), pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

func (s *SQLiteStore) createSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS datasets (
		name TEXT PRIMARY KEY,
		format TEXT NOT NULL,
		size INTEGER NOT NULL,
		columns TEXT NOT NULL,
		uploaded_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS sales (
		dataset TEXT NOT NULL REFERENCES datasets(name) ON DELETE CASCADE,
		seq INTEGER NOT NULL,
		id_venta TEXT NOT NULL,
		fecha TEXT NOT NULL DEFAULT '',
		hora TEXT NOT NULL DEFAULT '',
		latitud REAL NOT NULL DEFAULT 0,
		longitud REAL NOT NULL DEFAULT 0,
		producto TEXT NOT NULL DEFAULT '',
		categoria TEXT NOT NULL DEFAULT '',
		cantidad REAL NOT NULL DEFAULT 0,
		precio REAL NOT NULL DEFAULT 0,
		present INTEGER NOT NULL,
		PRIMARY KEY (dataset, seq)
	);
	CREATE INDEX IF NOT EXISTS idx_sales_categoria ON sales(dataset, categoria);
	`
	_, err := s.db.ExecContext(context.Background(), query)
	return err
}

func (s *SQLiteStore) Path() string { return s.path }

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]models.DatasetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, format, size, uploaded_at FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	out := make([]models.DatasetInfo, 0)
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInfo(row scanner, extra ...any) (models.DatasetInfo, error) {
	var (
		info     models.DatasetInfo
		uploaded string
	)
	dest := append([]any{&info.Name, &info.Format, &info.Size, &uploaded}, extra...)
	if err := row.Scan(dest...); err != nil {
		return models.DatasetInfo{}, err
	}
	t, err := time.Parse(time.RFC3339Nano, uploaded)
	if err != nil {
		return models.DatasetInfo{}, fmt.Errorf("parse upload time of %s: %w", info.Name, err)
	}
	info.ModTime = t
	return info, nil
}

func (s *SQLiteStore) stat(ctx context.Context, name string) (models.DatasetInfo, []string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT name, format, size, uploaded_at, columns FROM datasets WHERE name = ?`, name)
	var columns string
	info, err := scanInfo(row, &columns)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DatasetInfo{}, nil, ErrNotFound
	}
	if err != nil {
		return models.DatasetInfo{}, nil, fmt.Errorf("stat %s: %w", name, err)
	}
	return info, strings.Split(columns, ","), nil
}

func (s *SQLiteStore) Stat(ctx context.Context, name string) (models.DatasetInfo, error) {
	info, _, err := s.stat(ctx, name)
	return info, err
}

func (s *SQLiteStore) Load(ctx context.Context, name string) (*dataset.Table, models.DatasetInfo, error) {
	info, columns, err := s.stat(ctx, name)
	if err != nil {
		return nil, models.DatasetInfo{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id_venta, fecha, hora, latitud, longitud, producto, categoria, cantidad, precio, present
		FROM sales WHERE dataset = ? ORDER BY seq`, name)
	if err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("load %s: %w", name, err)
	}
	defer rows.Close()

	table := &dataset.Table{Name: name, Columns: columns}
	for rows.Next() {
		var (
			tx      models.Transaction
			date    string
			present int64
		)
		if err := rows.Scan(&tx.ID, &date, &tx.Time, &tx.Latitude, &tx.Longitude,
			&tx.ProductName, &tx.Category, &tx.Quantity, &tx.UnitPrice, &present); err != nil {
			return nil, models.DatasetInfo{}, fmt.Errorf("scan %s: %w", name, err)
		}
		tx.Present = models.Field(present)
		if tx.Has(models.FieldDate) {
			if tx.Date, err = time.Parse(time.RFC3339, date); err != nil {
				return nil, models.DatasetInfo{}, fmt.Errorf("parse date in %s: %w", name, err)
			}
		}
		table.Rows = append(table.Rows, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, models.DatasetInfo{}, err
	}
	return table, info, nil
}

// Save decodes and validates the upload and replaces any dataset stored
// under the same name in one transaction.
func (s *SQLiteStore) Save(ctx context.Context, name string, r io.Reader) (*dataset.Table, models.DatasetInfo, error) {
	safe, err := SafeName(name)
	if err != nil {
		return nil, models.DatasetInfo{}, err
	}
	format, err := dataset.FormatFromName(safe)
	if err != nil {
		return nil, models.DatasetInfo{}, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("read upload: %w", err)
	}
	table, err := dataset.Decode(ctx, safe, format, bytes.NewReader(raw))
	if err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("decode %s: %w", safe, err)
	}
	if _, err := dataset.Validate(table, dataset.MapColumns...); err != nil {
		return nil, models.DatasetInfo{}, err
	}

	columns := table.Columns
	if !table.HasColumn(dataset.ColumnID) {
		columns = append([]string{dataset.ColumnID}, columns...)
	}
	for i := range table.Rows {
		if !table.Rows[i].Has(models.FieldID) {
			table.Rows[i].ID = uuid.NewString()
			table.Rows[i].Present |= models.FieldID
		}
	}
	table.Columns = columns

	info := models.DatasetInfo{Name: safe, Size: int64(len(raw)), ModTime: time.Now().UTC(), Format: format}
	if err := s.replace(ctx, info, table); err != nil {
		return nil, models.DatasetInfo{}, err
	}
	return table, info, nil
}

func (s *SQLiteStore) replace(ctx context.Context, info models.DatasetInfo, table *dataset.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM sales WHERE dataset = ?`, info.Name); err != nil {
		return fmt.Errorf("clear %s: %w", info.Name, err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO datasets (name, format, size, columns, uploaded_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET format = excluded.format, size = excluded.size,
			columns = excluded.columns, uploaded_at = excluded.uploaded_at`,
		info.Name, info.Format, info.Size, strings.Join(table.Columns, ","), info.ModTime.Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("save %s: %w", info.Name, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sales (dataset, seq, id_venta, fecha, hora, latitud, longitud, producto, categoria, cantidad, precio, present)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range table.Rows {
		var date string
		if row.Has(models.FieldDate) {
			date = row.Date.Format(time.RFC3339)
		}
		if _, err := stmt.ExecContext(ctx, info.Name, i, row.ID, date, row.Time, row.Latitude, row.Longitude,
			row.ProductName, row.Category, row.Quantity, row.UnitPrice, int64(row.Present)); err != nil {
			return fmt.Errorf("insert row %d of %s: %w", i, info.Name, err)
		}
	}
	return tx.Commit()
}
