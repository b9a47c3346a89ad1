// Package store persists the single customer profile as a JSON document.
//
// There is no locking across Load and Save: two requests that both
// read-modify-write the profile race and the last Save wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boddenberg/tys-station-agent/internal/domain"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

const (
	profileFileMode = 0o600
	profileDirMode  = 0o700
	tempFilePattern = ".profile-*.json.tmp"
)

var tracer = otel.Tracer("store")

// FileStore keeps the profile document at a fixed path.
type FileStore struct {
	path   string
	logger *zap.Logger

	// write is swapped in tests to count disk writes.
	write func(path string, data []byte) error
}

// NewFileStore creates a store backed by the JSON file at path.
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{
		path:   filepath.Clean(path),
		logger: logger,
		write:  writeAtomic,
	}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load returns the persisted profile. A missing file is not an error: the
// default trial profile is written once and returned.
func (s *FileStore) Load(ctx context.Context) (*domain.CustomerProfile, error) {
	_, span := tracer.Start(ctx, "FileStore.Load")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, &domain.ErrStore{Op: "read", Err: err}
		}

		doc := domain.Document{Profile: domain.DefaultProfile()}
		if err := s.persist(doc); err != nil {
			return nil, err
		}
		s.logger.Info("profile store initialised with trial profile", zap.String("path", s.path))
		return &doc.Profile, nil
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ErrStore{Op: "decode", Err: err}
	}
	return &doc.Profile, nil
}

// Check reports whether the document is readable without creating it.
// A missing file is healthy; the default is written on first Load.
func (s *FileStore) Check(ctx context.Context) error {
	_, span := tracer.Start(ctx, "FileStore.Check")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &domain.ErrStore{Op: "read", Err: err}
	}

	var doc domain.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &domain.ErrStore{Op: "decode", Err: err}
	}
	return nil
}

// Save overwrites the whole document with profile.
func (s *FileStore) Save(ctx context.Context, profile *domain.CustomerProfile) error {
	_, span := tracer.Start(ctx, "FileStore.Save")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}
	if profile == nil {
		return &domain.ErrStore{Op: "encode", Err: errors.New("nil profile")}
	}
	return s.persist(domain.Document{Profile: *profile})
}

func (s *FileStore) persist(doc domain.Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return &domain.ErrStore{Op: "encode", Err: err}
	}
	if err := s.write(s.path, data); err != nil {
		return &domain.ErrStore{Op: "write", Err: err}
	}
	return nil
}

// writeAtomic replaces path through a temp file so readers never see a torn document.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, profileDirMode); err != nil {
		return fmt.Errorf("create profile directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profile file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp profile file: %w", err)
	}
	if err := tempFile.Chmod(profileFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profile file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profile file: %w", err)
	}
	if err := os.Rename(tempName, path); err != nil {
		return fmt.Errorf("replace profile file: %w", err)
	}

	cleanup = false
	return nil
}
