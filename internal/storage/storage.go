// Package storage keeps uploaded file bytes on local disk or in Google Cloud
// Storage.  File metadata lives in the files table; this package only deals
// with object keys.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned by Open for a key with no object.
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned for keys that are empty, absolute or escape the
// storage root.
var ErrInvalidKey = errors.New("invalid object key")

// Storage is implemented by Local and GCS.
type Storage interface {
	Name() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewKey builds <tenant>/<yyyy>/<mm>/<uuid><ext> for an upload.  The
// extension is taken from the original name, lower cased.
func NewKey(tenantSlug, originalName string, now time.Time) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(originalName, `\`, "/"))))
	if len(ext) > 10 || strings.ContainsAny(ext, " /") {
		ext = ""
	}
	return path.Join(tenantSlug, now.UTC().Format("2006"), now.UTC().Format("01"), uuid.NewString()+ext)
}

// CleanKey normalizes a key and rejects traversal.
func CleanKey(key string) (string, error) {
	k := strings.TrimSpace(strings.ReplaceAll(key, `\`, "/"))
	if k == "" || strings.HasPrefix(k, "/") {
		return "", ErrInvalidKey
	}
	for _, part := range strings.Split(k, "/") {
		if part == ".." {
			return "", ErrInvalidKey
		}
	}
	c := path.Clean(k)
	if c == "." || c == "" {
		return "", ErrInvalidKey
	}
	return c, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(key, "/")
}
