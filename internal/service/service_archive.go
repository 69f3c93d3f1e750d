// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/MKhiriev/go-session-keeper/internal/adapter"
	"github.com/MKhiriev/go-session-keeper/internal/config"
	"github.com/MKhiriev/go-session-keeper/internal/logger"
	"github.com/MKhiriev/go-session-keeper/internal/store"
	"github.com/MKhiriev/go-session-keeper/internal/utils"
	"github.com/MKhiriev/go-session-keeper/models"
	"github.com/klauspost/compress/zip"
)

// zipMagic is the local file header signature every ZIP archive starts with.
var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// bareSessionDir is the top-level directory name used by archives that were
// zipped from inside a LocalAuth folder without the id suffix.
const bareSessionDir = "session"

var errSizeLimit = errors.New("size limit reached")

type archiveIngester struct {
	sessions store.SessionStore
	fetcher  adapter.ArchiveFetcher
	ids      *utils.UUIDGenerator

	tempDir string
	maxSize int64
	replace bool

	logger *logger.Logger
}

// NewArchiveIngester returns an ingester extracting into sessions. fetcher
// may be nil when URL restores are not offered.
func NewArchiveIngester(sessions store.SessionStore, fetcher adapter.ArchiveFetcher, cfg config.Sessions, logger *logger.Logger) ArchiveIngester {
	maxSize := cfg.MaxArchiveSize
	if maxSize <= 0 {
		maxSize = math.MaxInt64
	}

	return &archiveIngester{
		sessions: sessions,
		fetcher:  fetcher,
		ids:      utils.NewUUIDGenerator(),
		tempDir:  cfg.TempDir,
		maxSize:  maxSize,
		replace:  !cfg.KeepExisting,
		logger:   logger,
	}
}

func (i *archiveIngester) FromReader(ctx context.Context, source models.ArchiveSource, r io.Reader) (models.ExtractedSession, error) {
	return i.ingest(ctx, source, func(tmp io.Writer) error {
		if _, err := io.Copy(tmp, r); err != nil {
			if errors.Is(err, errSizeLimit) {
				return err
			}
			return fmt.Errorf("%w: error reading archive: %w", ErrArchiveFetch, err)
		}
		return nil
	})
}

func (i *archiveIngester) FromURL(ctx context.Context, url string) (models.ExtractedSession, error) {
	if i.fetcher == nil {
		return models.ExtractedSession{}, fmt.Errorf("%w: archive downloads are not configured", ErrInternal)
	}

	source := models.ArchiveSource{Kind: models.ArchiveSourceURL, Location: url}
	return i.ingest(ctx, source, func(tmp io.Writer) error {
		if _, err := i.fetcher.Fetch(ctx, url, tmp); err != nil {
			if errors.Is(err, errSizeLimit) {
				return err
			}
			return fmt.Errorf("%w: %w", ErrArchiveFetch, err)
		}
		return nil
	})
}

func (i *archiveIngester) FromFile(ctx context.Context, path string) (models.ExtractedSession, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.ExtractedSession{}, fmt.Errorf("%w: error opening archive: %w", ErrArchiveFetch, err)
	}
	defer f.Close()

	return i.FromReader(ctx, models.ArchiveSource{Kind: models.ArchiveSourceInbox, Location: path}, f)
}

// ingest spools the archive into a temp file through fill, then validates and
// extracts it. The temp file is removed on every path.
func (i *archiveIngester) ingest(ctx context.Context, source models.ArchiveSource, fill func(io.Writer) error) (models.ExtractedSession, error) {
	tmp, err := os.CreateTemp(i.tempDir, "session-archive-*.zip")
	if err != nil {
		return models.ExtractedSession{}, fmt.Errorf("%w: error creating temp file: %w", ErrInternal, err)
	}
	defer func() {
		tmp.Close()
		if err := os.Remove(tmp.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			i.logger.Warn().Err(err).Str("file", tmp.Name()).Msg("error removing temp archive")
		}
	}()

	w := &limitedWriter{w: tmp, remaining: i.maxSize}
	if err := fill(w); err != nil {
		if errors.Is(err, errSizeLimit) {
			return models.ExtractedSession{}, fmt.Errorf("%w: more than %d bytes", ErrArchiveTooLarge, i.maxSize)
		}
		return models.ExtractedSession{}, err
	}

	i.logger.Debug().Str("source", source.String()).Int64("bytes", w.written).Msg("archive received")
	return i.extract(ctx, tmp, w.written, source)
}

func (i *archiveIngester) extract(ctx context.Context, archive io.ReaderAt, size int64, source models.ArchiveSource) (models.ExtractedSession, error) {
	magic := make([]byte, len(zipMagic))
	if n, _ := archive.ReadAt(magic, 0); n < len(zipMagic) || !bytes.Equal(magic, zipMagic) {
		return models.ExtractedSession{}, ErrArchiveInvalid
	}

	zr, err := zip.NewReader(archive, size)
	if err != nil {
		return models.ExtractedSession{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	id, prefix := archiveLayout(zr.File)
	if id == "" {
		id = i.ids.Generate()
	}

	dir, err := i.sessions.Create(id, i.replace)
	if err != nil {
		return models.ExtractedSession{}, fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	files, err := i.unpack(ctx, zr.File, prefix, dir)
	if err == nil && files == 0 {
		err = fmt.Errorf("%w: archive holds no files", ErrExtraction)
	}
	if err != nil {
		if clearErr := i.sessions.Clear(id); clearErr != nil {
			i.logger.Error().Err(clearErr).Str("session_id", id).Msg("error clearing partial session directory")
		}
		return models.ExtractedSession{}, err
	}

	i.logger.Info().Str("session_id", id).Int("files", files).Str("source", source.String()).Msg("session extracted")
	return models.ExtractedSession{
		ID:          id,
		Path:        dir,
		Source:      source,
		ExtractedAt: time.Now(),
	}, nil
}

// unpack writes the regular files of the archive below dir and returns
// their count.
func (i *archiveIngester) unpack(ctx context.Context, files []*zip.File, prefix, dir string) (int, error) {
	written := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return written, fmt.Errorf("%w: %w", ErrExtraction, err)
		}

		name := strings.TrimPrefix(f.Name, prefix)
		if name == "" {
			continue
		}

		target, err := entryPath(dir, name)
		if err != nil {
			return written, err
		}

		mode := f.Mode()
		switch {
		case mode.IsDir():
			if err := os.MkdirAll(target, 0o755); err != nil {
				return written, fmt.Errorf("%w: %w", ErrExtraction, err)
			}
		case mode.IsRegular():
			if err := writeEntry(f, target); err != nil {
				return written, err
			}
			written++
		default:
			return written, fmt.Errorf("%w: unsupported entry %q (%s)", ErrExtraction, f.Name, mode.Type())
		}
	}

	return written, nil
}

func writeEntry(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: error opening %q: %w", ErrExtraction, f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}

	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return fmt.Errorf("%w: error writing %q: %w", ErrExtraction, f.Name, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrExtraction, err)
	}
	return nil
}

// entryPath resolves an archive entry below dir and rejects names that
// escape it.
func entryPath(dir, name string) (string, error) {
	if strings.HasPrefix(name, "/") || strings.Contains(name, `\`) || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: illegal entry path %q", ErrExtraction, name)
	}

	target := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: entry %q escapes the session directory", ErrExtraction, name)
	}

	return target, nil
}

// archiveLayout finds the session id and the top-level directory to strip.
// The first `session-<id>/` directory names the session; a bare `session/`
// directory is stripped and leaves the id to be generated.
func archiveLayout(files []*zip.File) (id, prefix string) {
	for _, f := range files {
		top, _, nested := strings.Cut(f.Name, "/")
		if !nested {
			continue
		}

		if top == bareSessionDir {
			return "", top + "/"
		}
		if candidate, ok := strings.CutPrefix(top, store.SessionDirPrefix); ok && store.ValidateSessionID(candidate) == nil {
			return candidate, top + "/"
		}
	}

	return "", ""
}

// limitedWriter fails with errSizeLimit once more than remaining bytes are
// written.
type limitedWriter struct {
	w         io.Writer
	remaining int64
	written   int64
}

func (l *limitedWriter) Write(p []byte) (int, error) {
	if int64(len(p)) > l.remaining {
		return 0, errSizeLimit
	}

	n, err := l.w.Write(p)
	l.remaining -= int64(n)
	l.written += int64(n)
	return n, err
}
