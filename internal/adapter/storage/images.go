package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/spf13/afero"
)

var _ port.ImageStorage = (*ImageStorage)(nil)

var imageExts = map[string]struct{}{
	".png":  {},
	".jpg":  {},
	".jpeg": {},
	".gif":  {},
	".webp": {},
}

// An ImageStorage keeps uploaded product images in a directory
// and serves them under the URL prefix.
type ImageStorage struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
}

func NewImageStorage(fs afero.Fs, dir, urlPrefix string) (ImageStorage, error) {
	const op = "NewImageStorage"

	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return ImageStorage{}, fmt.Errorf("%s: %w", op, err)
	}
	return ImageStorage{fs: fs, dir: dir, urlPrefix: urlPrefix}, nil
}

// SaveImage stores the upload under a generated name
// and returns the URL path of the stored file.
func (s ImageStorage) SaveImage(
	ctx context.Context, up domain.ImageUpload,
) (string, error) {
	const op = "ImageStorage.SaveImage"
	log := slog.With("op", op)

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	ext := strings.ToLower(filepath.Ext(up.Filename))
	if _, ok := imageExts[ext]; !ok {
		return "", fmt.Errorf("%s: %w: %q", op, domain.ErrUnsupportedImage, ext)
	}

	name := uuid.NewString() + ext
	fp := filepath.Join(s.dir, name)

	f, err := s.fs.OpenFile(fp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.Copy(f, up.Content); err != nil {
		_ = f.Close()
		if rmErr := s.fs.Remove(fp); rmErr != nil {
			log.Error("failed to remove partial upload", "err", rmErr)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("image stored", "file", name)
	return path.Join(s.urlPrefix, name), nil
}

// Handler serves the stored images; mount it under the URL prefix
// with the prefix stripped.
func (s ImageStorage) Handler() http.Handler {
	return http.FileServer(afero.NewHttpFs(s.fs).Dir(s.dir))
}
