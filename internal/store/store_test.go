package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCSV = `fecha,hora,latitud,longitud,producto,categoria,cantidad,precio
2024-01-05,9:15 AM,19.4326,-99.1332,Arroz,Food,2,10
2024-01-06,1:00 PM,19.4330,-99.1335,Gasa,Medicine,1,4.5
`

const missingColumnsCSV = `fecha,producto,cantidad
2024-01-05,Arroz,2
`

func TestSafeName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"ventas.csv", "ventas.csv", false},
		{"../../etc/passwd", "passwd", false},
		{`C:\Users\ana\ventas enero.xlsx`, "ventas_enero.xlsx", false},
		{".hidden.csv", "hidden.csv", false},
		{"..", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SafeName(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidName)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileStoreSaveLoadList(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	table, info, err := s.Save(ctx, "../ventas enero.csv", strings.NewReader(validCSV))
	require.NoError(t, err)
	assert.Equal(t, "ventas_enero.csv", info.Name)
	assert.Equal(t, dataset.FormatCSV, info.Format)
	assert.Equal(t, int64(len(validCSV)), info.Size)
	assert.Len(t, table.Rows, 2)

	loaded, loadedInfo, err := s.Load(ctx, "ventas_enero.csv")
	require.NoError(t, err)
	assert.Equal(t, table.Rows, loaded.Rows)
	assert.Equal(t, info.Identity(), loadedInfo.Identity())

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0o600))
	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ventas_enero.csv", list[0].Name)
}

func TestFileStoreRejectsInvalidUploads(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Save(ctx, "ventas.csv", strings.NewReader(missingColumnsCSV))
	var schemaErr *dataset.SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{dataset.ColumnLatitude, dataset.ColumnLongitude}, schemaErr.Missing)

	_, _, err = s.Save(ctx, "ventas.xls", strings.NewReader(validCSV))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must not be kept")
}

func TestFileStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	_, _, err = s.Load(ctx, "missing.csv")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.Stat(ctx, "../secret.csv")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "db", "sales.db"))
	require.NoError(t, err)
	defer s.Close()

	saved, info, err := s.Save(ctx, "ventas.csv", strings.NewReader(validCSV))
	require.NoError(t, err)
	assert.Equal(t, "ventas.csv", info.Name)
	assert.Equal(t, dataset.ColumnID, saved.Columns[0])
	for _, row := range saved.Rows {
		assert.True(t, row.Has(models.FieldID))
		assert.Len(t, row.ID, 36)
	}

	loaded, loadedInfo, err := s.Load(ctx, "ventas.csv")
	require.NoError(t, err)
	assert.Equal(t, saved.Columns, loaded.Columns)
	assert.Equal(t, saved.Rows, loaded.Rows)
	assert.True(t, info.ModTime.Equal(loadedInfo.ModTime))

	_, _, err = s.Save(ctx, "ventas.csv", strings.NewReader(validCSV[:strings.Index(validCSV, "2024-01-06")]))
	require.NoError(t, err)
	reloaded, _, err := s.Load(ctx, "ventas.csv")
	require.NoError(t, err)
	assert.Len(t, reloaded.Rows, 1, "saving again replaces the rows")

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, _, err = s.Load(ctx, "other.csv")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _, err = s.Save(ctx, "bad.csv", strings.NewReader(missingColumnsCSV))
	var schemaErr *dataset.SchemaError
	assert.True(t, errors.As(err, &schemaErr))
}

func TestWatcherReportsChanges(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	changed := make(chan string, 8)
	w, err := NewWatcher(dir, func(name string) {
		calls.Add(1)
		changed <- name
	}, nil)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "ventas.csv")
	for range 3 {
		require.NoError(t, os.WriteFile(path, []byte(validCSV), 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o600))

	select {
	case name := <-changed:
		assert.Equal(t, "ventas.csv", name)
	case <-time.After(3 * time.Second):
		t.Fatal("no change reported")
	}
	time.Sleep(3 * debounceInterval)
	assert.Equal(t, int32(1), calls.Load(), "burst of writes must collapse")
}
