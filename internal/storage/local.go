package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// LocalUploader writes images under <dir>/products and serves them from
// <urlPrefix>/products.
type LocalUploader struct {
	dir       string
	urlPrefix string
}

func NewLocalUploader(dir, urlPrefix string) *LocalUploader {
	return &LocalUploader{dir: dir, urlPrefix: urlPrefix}
}

func (u *LocalUploader) Upload(ctx context.Context, dataURI string) (Asset, error) {
	img, err := DecodeDataURI(dataURI)
	if err != nil {
		return Asset{}, err
	}
	if err := ctx.Err(); err != nil {
		return Asset{}, err
	}
	key := fmt.Sprintf("products/%s.%s", uuid.NewString(), img.Ext)
	full := filepath.Join(u.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Asset{}, fmt.Errorf("media dir: %w", err)
	}
	if err := os.WriteFile(full, img.Data, 0o644); err != nil {
		return Asset{}, fmt.Errorf("write %s: %w", key, err)
	}
	return Asset{PublicID: key, URL: u.urlPrefix + "/" + key}, nil
}
