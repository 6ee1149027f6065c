package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"geosales-dashboard/internal/dataset"
	"geosales-dashboard/internal/models"
)

// FileStore keeps each upload as a file in one directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) Close() error { return nil }

func (s *FileStore) List(ctx context.Context) ([]models.DatasetInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read upload dir: %w", err)
	}
	out := make([]models.DatasetInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		format, err := dataset.FormatFromName(e.Name())
		if err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, infoFrom(fi, format))
	}
	slices.SortFunc(out, func(a, b models.DatasetInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

func (s *FileStore) path(name string) (string, string, error) {
	safe, err := SafeName(name)
	if err != nil || safe != name {
		return "", "", ErrNotFound
	}
	format, err := dataset.FormatFromName(name)
	if err != nil {
		return "", "", err
	}
	return filepath.Join(s.dir, name), format, nil
}

func (s *FileStore) Stat(ctx context.Context, name string) (models.DatasetInfo, error) {
	p, format, err := s.path(name)
	if err != nil {
		return models.DatasetInfo{}, err
	}
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return models.DatasetInfo{}, ErrNotFound
	}
	if err != nil {
		return models.DatasetInfo{}, fmt.Errorf("stat %s: %w", name, err)
	}
	return infoFrom(fi, format), nil
}

func (s *FileStore) Load(ctx context.Context, name string) (*dataset.Table, models.DatasetInfo, error) {
	info, err := s.Stat(ctx, name)
	if err != nil {
		return nil, models.DatasetInfo{}, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	table, err := dataset.Decode(ctx, name, info.Format, f)
	if err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("decode %s: %w", name, err)
	}
	return table, info, nil
}

// Save writes the upload under a safe name, then decodes and validates it.
// A file that fails either step is removed again.
func (s *FileStore) Save(ctx context.Context, name string, r io.Reader) (*dataset.Table, models.DatasetInfo, error) {
	safe, err := SafeName(name)
	if err != nil {
		return nil, models.DatasetInfo{}, err
	}
	if _, err := dataset.FormatFromName(safe); err != nil {
		return nil, models.DatasetInfo{}, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		return nil, models.DatasetInfo{}, fmt.Errorf("write upload: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("write upload: %w", err)
	}

	table, err := decodeFile(ctx, tmp.Name(), safe)
	if err != nil {
		return nil, models.DatasetInfo{}, err
	}
	if _, err := dataset.Validate(table, dataset.MapColumns...); err != nil {
		return nil, models.DatasetInfo{}, err
	}

	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, safe)); err != nil {
		return nil, models.DatasetInfo{}, fmt.Errorf("store upload: %w", err)
	}
	info, err := s.Stat(ctx, safe)
	if err != nil {
		return nil, models.DatasetInfo{}, err
	}
	return table, info, nil
}

func decodeFile(ctx context.Context, path, name string) (*dataset.Table, error) {
	format, err := dataset.FormatFromName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	table, err := dataset.Decode(ctx, name, format, f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}
	return table, nil
}

func infoFrom(fi fs.FileInfo, format string) models.DatasetInfo {
	return models.DatasetInfo{Name: fi.Name(), Size: fi.Size(), ModTime: fi.ModTime(), Format: format}
}
