package secret

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// maxSecretFileSize bounds how much of a secret file is read.
const maxSecretFileSize = 64 << 10

// FileProvider resolves a reference as a file path and returns the file's
// contents with surrounding whitespace trimmed. Mounted tokens are the
// typical use.
type FileProvider struct {
	dir string
}

// NewFileProvider creates a FileProvider. Relative references are resolved
// against dir; an empty dir uses the working directory.
func NewFileProvider(dir string) *FileProvider {
	return &FileProvider{dir: dir}
}

// Name returns "file".
func (p *FileProvider) Name() string { return "file" }

// Resolve reads the secret file at ref.
func (p *FileProvider) Resolve(ctx context.Context, ref string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := ref
	if !filepath.IsAbs(path) && p.dir != "" {
		path = filepath.Join(p.dir, path)
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: file %s", ErrNotFound, path)
		}
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxSecretFileSize+1))
	if err != nil {
		return "", err
	}
	if len(data) > maxSecretFileSize {
		return "", fmt.Errorf("secret: file %s exceeds %d bytes", path, maxSecretFileSize)
	}
	return strings.TrimSpace(string(data)), nil
}

var _ Provider = (*FileProvider)(nil)
