// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
)

// SessionDirPrefix names every session directory: `session-<id>`. The
// messaging bridge resolves LocalAuth sessions by the same convention.
const SessionDirPrefix = "session-"

var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// sessionDirectory is the file-system implementation of [SessionStore].
type sessionDirectory struct {
	root   string
	logger *logger.Logger
}

// NewSessionDirectory ensures the root directory exists and returns a
// [SessionStore] rooted there.
func NewSessionDirectory(cfg config.Sessions, log *logger.Logger) (SessionStore, error) {
	root, err := filepath.Abs(cfg.Root)
	if err != nil {
		return nil, fmt.Errorf("error resolving sessions root: %w", err)
	}

	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("error creating sessions root: %w", err)
	}

	log.Debug().Str("root", root).Msg("session directory store is ready")
	return &sessionDirectory{root: root, logger: log}, nil
}

// ValidateSessionID reports ErrInvalidSessionID for ids that cannot be used
// as a directory suffix.
func ValidateSessionID(id string) error {
	if !sessionIDPattern.MatchString(id) {
		return fmt.Errorf("%w: %q", ErrInvalidSessionID, id)
	}
	return nil
}

func (s *sessionDirectory) Create(id string, replace bool) (string, error) {
	dir, err := s.path(id)
	if err != nil {
		return "", err
	}

	entries, err := os.ReadDir(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return "", fmt.Errorf("error reading session directory: %w", err)
	case len(entries) > 0 && !replace:
		return "", fmt.Errorf("%w: %s", ErrSessionExists, id)
	case len(entries) > 0:
		s.logger.Info().Str("session_id", id).Msg("replacing existing session directory")
		if err := os.RemoveAll(dir); err != nil {
			return "", fmt.Errorf("error clearing session directory: %w", err)
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating session directory: %w", err)
	}

	return dir, nil
}

func (s *sessionDirectory) Locate(id string) (string, error) {
	dir, err := s.path(id)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || (err == nil && !info.IsDir()) {
		return "", fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("error locating session directory: %w", err)
	}

	return dir, nil
}

func (s *sessionDirectory) Clear(id string) error {
	dir, err := s.path(id)
	if err != nil {
		return err
	}

	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("error clearing session directory: %w", err)
	}

	return nil
}

func (s *sessionDirectory) List() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions root: %w", err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), SessionDirPrefix) {
			continue
		}
		id := strings.TrimPrefix(entry.Name(), SessionDirPrefix)
		if ValidateSessionID(id) == nil {
			ids = append(ids, id)
		}
	}

	return ids, nil
}

func (s *sessionDirectory) path(id string) (string, error) {
	if err := ValidateSessionID(id); err != nil {
		return "", err
	}
	return filepath.Join(s.root, SessionDirPrefix+id), nil
}
