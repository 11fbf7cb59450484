package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// DefaultFileName is the suggested project file name.
const DefaultFileName = "cadastre-project.json"

// FileStore keeps the project state in a JSON file.
type FileStore struct {
	path   string
	logger zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates a file-backed store writing to path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFileName
	}
	return &FileStore{
		path:   path,
		logger: log.With().Str("component", "project-store").Str("store", "file").Logger(),
	}
}

// Path returns the project file path.
func (f *FileStore) Path() string {
	return f.path
}

// Save implements Store. The file is replaced atomically.
func (f *FileStore) Save(ctx context.Context, s *State) (err error) {
	defer func() { observe("file", "save", err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project state: %w", err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write project file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close project file: %w", err)
	}
	if err = os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("rename project file: %w", err)
	}

	stateSizeBytes.WithLabelValues("file").Set(float64(len(data)))
	f.logger.Info().
		Str("project", s.Name).
		Str("path", f.path).
		Int("lands", len(s.Lands)).
		Msg("Project saved")

	return nil
}

// Load implements Store.
func (f *FileStore) Load(ctx context.Context) (s *State, err error) {
	defer func() { observe("file", "load", err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read project file: %w", err)
	}

	return decodeState(data)
}
