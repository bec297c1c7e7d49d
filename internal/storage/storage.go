// Package storage uploads product images, given as base64 data URIs, to an
// image host and returns where they can be served from.
package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// Asset is one stored image.
type Asset struct {
	PublicID string
	URL      string
}

// Uploader stores one data URI.
type Uploader interface {
	Upload(ctx context.Context, dataURI string) (Asset, error)
}

// MaxImageBytes caps a single decoded image.
const MaxImageBytes = 5 << 20

var ErrBadDataURI = errors.New("image must be a base64 data URI")

var extByType = map[string]string{
	"image/jpeg":    "jpg",
	"image/png":     "png",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/avif":    "avif",
	"image/svg+xml": "svg",
}

// Image is a decoded data URI.
type Image struct {
	ContentType string
	Ext         string
	Data        []byte
}

// DecodeDataURI parses "data:<mime>;base64,<payload>". Only image types
// listed in extByType are accepted.
func DecodeDataURI(uri string) (Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return Image{}, ErrBadDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return Image{}, ErrBadDataURI
	}
	ctype, enc, ok := strings.Cut(meta, ";")
	if !ok || !strings.EqualFold(enc, "base64") {
		return Image{}, ErrBadDataURI
	}
	ctype = strings.ToLower(ctype)
	ext, ok := extByType[ctype]
	if !ok {
		return Image{}, fmt.Errorf("%w: unsupported type %q", ErrBadDataURI, ctype)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes {
		return Image{}, fmt.Errorf("%w: image larger than %d bytes", ErrBadDataURI, MaxImageBytes)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrBadDataURI, err)
	}
	if len(data) == 0 {
		return Image{}, fmt.Errorf("%w: empty payload", ErrBadDataURI)
	}
	return Image{ContentType: ctype, Ext: ext, Data: data}, nil
}

func (im Image) reader() *bytes.Reader { return bytes.NewReader(im.Data) }
