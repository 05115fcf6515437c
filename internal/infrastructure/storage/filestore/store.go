package filestore

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/VietNe/UIT-Master-NT2211.CH180-Final-Project/internal/core/domain"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
	tmpExt   = ".tmp"
)

// Config locates the model slot on disk.
type Config struct {
	Dir  string
	Name string
}

// Store keeps a single named blob in a directory. Uploads stream into a
// private temp file and are committed with rename(2), so readers opening the
// path see either the previous file or the new one.
type Store struct {
	dir  string
	name string
	path string
	log  zerolog.Logger

	commitMu   sync.Mutex
	generation atomic.Uint64
}

// New creates the directory if needed and removes temp files left behind by
// an interrupted upload.
func New(cfg Config, log zerolog.Logger) (*Store, error) {
	if cfg.Dir == "" || cfg.Name == "" {
		return nil, errors.New("filestore: dir and name are required")
	}
	if strings.ContainsRune(cfg.Name, os.PathSeparator) {
		return nil, fmt.Errorf("filestore: name %q must not contain a path separator", cfg.Name)
	}
	if err := os.MkdirAll(cfg.Dir, dirPerm); err != nil {
		return nil, fmt.Errorf("filestore: create dir: %w", err)
	}

	s := &Store{
		dir:  cfg.Dir,
		name: cfg.Name,
		path: filepath.Join(cfg.Dir, cfg.Name),
		log:  log.With().Str("component", "filestore").Logger(),
	}
	s.removeStaleTemps()
	return s, nil
}

// Path returns the location of the committed blob.
func (s *Store) Path() string { return s.path }

// Generation counts committed uploads since the store was opened.
func (s *Store) Generation() uint64 { return s.generation.Load() }

// Exists reports whether a committed blob is present.
func (s *Store) Exists() bool {
	fi, err := os.Stat(s.path)
	return err == nil && fi.Mode().IsRegular()
}

// Upload replaces the blob with the contents of r.
func (s *Store) Upload(ctx context.Context, r io.Reader) (*domain.ArtifactAck, error) {
	if r == nil {
		return nil, domain.ErrEmptyPayload
	}

	tmp, err := os.CreateTemp(s.dir, "."+s.name+".*"+tmpExt)
	if err != nil {
		return nil, s.ioFailure("create temp file", err)
	}
	tmpName := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	src := &sourceReader{ctx: ctx, r: r}
	n, err := io.Copy(io.MultiWriter(tmp, h), src)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if src.err != nil {
			s.log.Warn().Err(src.err).Int64("read", n).Msg("upload source failed")
			return nil, fmt.Errorf("%w: %w", domain.ErrBadPayload, src.err)
		}
		return nil, s.ioFailure("write temp file", err)
	}
	if n == 0 {
		return nil, domain.ErrEmptyPayload
	}
	if err := tmp.Sync(); err != nil {
		return nil, s.ioFailure("sync temp file", err)
	}
	if err := tmp.Chmod(filePerm); err != nil {
		return nil, s.ioFailure("chmod temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, s.ioFailure("close temp file", err)
	}

	s.commitMu.Lock()
	defer s.commitMu.Unlock()

	if err := os.Rename(tmpName, s.path); err != nil {
		return nil, s.ioFailure("rename into place", err)
	}
	committed = true
	if err := syncDir(s.dir); err != nil {
		// The rename is visible already; durability of the directory entry is best effort.
		s.log.Warn().Err(err).Msg("directory sync failed after commit")
	}
	gen := s.generation.Add(1)

	ack := &domain.ArtifactAck{
		ID:          uuid.NewString(),
		Size:        n,
		SHA256:      hex.EncodeToString(h.Sum(nil)),
		CommittedAt: time.Now().UTC(),
		Generation:  gen,
	}
	s.log.Info().
		Str("id", ack.ID).
		Int64("size", ack.Size).
		Str("sha256", ack.SHA256).
		Uint64("generation", gen).
		Msg("artifact committed")
	return ack, nil
}

// Download opens the committed blob. The caller must close the reader. An
// open handle keeps reading the same file even if an upload commits meanwhile.
func (s *Store) Download(ctx context.Context) (io.ReadCloser, *domain.ArtifactInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	// Generation is sampled before opening: a commit racing with this call can
	// only make the reported generation older than the content, never newer.
	gen := s.generation.Load()
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, domain.ErrArtifactNotFound
		}
		return nil, nil, s.ioFailure("open artifact", err)
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, nil, s.ioFailure("stat artifact", err)
	}
	if !fi.Mode().IsRegular() {
		_ = f.Close()
		return nil, nil, domain.ErrArtifactNotFound
	}

	return f, &domain.ArtifactInfo{
		Name:       s.name,
		Size:       fi.Size(),
		ModifiedAt: fi.ModTime().UTC(),
		Generation: gen,
	}, nil
}

func (s *Store) ioFailure(op string, err error) error {
	s.log.Error().Err(err).Str("op", op).Str("path", s.path).Msg("artifact storage failure")
	return fmt.Errorf("%w: %s: %w", domain.ErrIOFailure, op, err)
}

func (s *Store) removeStaleTemps() {
	matches, err := filepath.Glob(filepath.Join(s.dir, "."+s.name+".*"+tmpExt))
	if err != nil {
		return
	}
	for _, m := range matches {
		if err := os.Remove(m); err != nil {
			s.log.Warn().Err(err).Str("file", m).Msg("could not remove stale temp file")
			continue
		}
		s.log.Info().Str("file", m).Msg("removed stale temp file")
	}
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// sourceReader stops a copy once ctx is done and remembers read errors so
// they are told apart from failures writing the temp file.
type sourceReader struct {
	ctx context.Context
	r   io.Reader
	err error
}

func (s *sourceReader) Read(p []byte) (int, error) {
	if err := s.ctx.Err(); err != nil {
		return 0, err
	}
	n, err := s.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		s.err = err
	}
	return n, err
}
