package store

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/models"
)

var (
	ErrNotFound          = errors.New("dataset not found")
	ErrInvalidName       = errors.New("invalid dataset name")
	ErrUnsupportedFormat = dataset.ErrUnsupportedFormat
)

// Store persists uploaded sales sheets. Save rejects, and does not keep,
// a sheet that lacks the map columns.
type Store interface {
	List(ctx context.Context) ([]models.DatasetInfo, error)
	Stat(ctx context.Context, name string) (models.DatasetInfo, error)
	Load(ctx context.Context, name string) (*dataset.Table, models.DatasetInfo, error)
	Save(ctx context.Context, name string, r io.Reader) (*dataset.Table, models.DatasetInfo, error)
	Close() error
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SafeName reduces an uploaded file name to a plain base name that cannot
// escape the upload directory.
func SafeName(name string) (string, error) {
	name = filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	name = unsafeChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.TrimLeft(name, "._")
	if name == "" {
		return "", ErrInvalidName
	}
	return name, nil
}
