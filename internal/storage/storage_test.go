package storage_test

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchside/internal/storage"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\nfake")

func pngURI() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)
}

func TestDecodeDataURI(t *testing.T) {
	img, err := storage.DecodeDataURI(pngURI())
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, "png", img.Ext)
	assert.Equal(t, pngBytes, img.Data)

	for _, bad := range []string{
		"",
		"https://example.com/bat.png",
		"data:image/png,rawbytes",
		"data:text/plain;base64,aGVsbG8=",
		"data:image/png;base64,%%%",
		"data:image/png;base64,",
	} {
		_, err := storage.DecodeDataURI(bad)
		assert.True(t, errors.Is(err, storage.ErrBadDataURI), bad)
	}
}

func TestLocalUploaderWritesFile(t *testing.T) {
	dir := t.TempDir()
	u := storage.NewLocalUploader(dir, "/media")

	asset, err := u.Upload(context.Background(), pngURI())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(asset.PublicID, "products/"))
	assert.True(t, strings.HasSuffix(asset.PublicID, ".png"))
	assert.Equal(t, "/media/"+asset.PublicID, asset.URL)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(asset.PublicID)))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, data)
}

func TestS3UploaderPutsObject(t *testing.T) {
	var mu sync.Mutex
	var method, path, acl string
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		method, path, acl = r.Method, r.URL.Path, r.Header.Get("X-Amz-Acl")
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	u := storage.NewS3Uploader(storage.S3Config{
		Endpoint: srv.URL, Region: "us-east-1", AccessKey: "key", SecretKey: "secret",
		Bucket: "media", PublicURL: "https://cdn.example.com/",
	})
	require.NotNil(t, u)

	asset, err := u.Upload(context.Background(), pngURI())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodPut, method)
	assert.Equal(t, "/media/"+asset.PublicID, path)
	assert.Equal(t, "public-read", acl)
	assert.Contains(t, string(body), "fake")
	assert.Equal(t, "https://cdn.example.com/"+asset.PublicID, asset.URL)
}

func TestS3UploaderNeedsConfig(t *testing.T) {
	assert.Nil(t, storage.NewS3Uploader(storage.S3Config{Endpoint: "http://x"}))
}
