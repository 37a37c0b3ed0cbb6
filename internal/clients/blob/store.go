package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"collab-server/internal/observability"

	"github.com/google/uuid"
)

// Store persists uploaded content files on local disk and hands back a URL
// the API serves them under.
type Store struct {
	dir     string
	baseURL string
	logger  *observability.Logger
}

// NewStore creates a disk-backed blob store rooted at dir
func NewStore(dir, baseURL string, logger *observability.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
	}, nil
}

// Put writes the file contents under a generated key and returns the key and
// public URL. The original file name only contributes its extension.
func (s *Store) Put(ctx context.Context, fileName string, contents io.Reader) (string, string, int64, error) {
	key := uuid.New().String() + sanitizeExt(fileName)
	path := filepath.Join(s.dir, key)

	f, err := os.Create(path)
	if err != nil {
		s.logger.Error(ctx, "failed to create blob file", err)
		return "", "", 0, fmt.Errorf("failed to create blob file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, contents)
	if err != nil {
		os.Remove(path)
		s.logger.Error(ctx, "failed to write blob file", err)
		return "", "", 0, fmt.Errorf("failed to write blob file: %w", err)
	}

	return key, s.baseURL + "/" + key, size, nil
}

// Open returns a reader for a stored blob
func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	// Keys are generated UUIDs; reject anything path-like
	if key != filepath.Base(key) {
		return nil, fmt.Errorf("invalid blob key")
	}
	f, err := os.Open(filepath.Join(s.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("blob %s not found", key)
		}
		s.logger.Error(ctx, "failed to open blob file", err)
		return nil, fmt.Errorf("failed to open blob file: %w", err)
	}
	return f, nil
}

func sanitizeExt(fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	for _, r := range ext {
		if r != '.' && (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
