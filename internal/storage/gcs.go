package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS stores objects in a Google Cloud Storage bucket.  Public reads are
// expected to be granted on the bucket (uniform access), not per object.
type GCS struct {
	Client        *storage.Client
	Bucket        string
	PublicBaseURL string
}

// NewGCS creates a client from credFile, or from application default
// credentials when credFile is empty.
func NewGCS(ctx context.Context, bucket, credFile, publicBaseURL string) (*GCS, error) {
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errors.New("gcs: bucket is empty")
	}
	var opts []option.ClientOption
	if credFile != "" {
		opts = append(opts, option.WithCredentialsFile(credFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: new client: %w", err)
	}
	if publicBaseURL == "" {
		publicBaseURL = "https://storage.googleapis.com/" + bucket
	}
	return &GCS{Client: client, Bucket: bucket, PublicBaseURL: publicBaseURL}, nil
}

func (g *GCS) Name() string { return "gcs" }

func (g *GCS) object(key string) (*storage.ObjectHandle, error) {
	k, err := CleanKey(key)
	if err != nil {
		return nil, err
	}
	return g.Client.Bucket(g.Bucket).Object(k), nil
}

// Put uploads r.  The object only becomes visible when the writer closes
// without error; on failure the context is cancelled to abort the upload.
func (g *GCS) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) error {
	obj, err := g.object(key)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("gcs: upload %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("gcs: finalize %s: %w", key, err)
	}
	return nil
}

func (g *GCS) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := g.object(key)
	if err != nil {
		return nil, err
	}
	rc, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	return rc, err
}

func (g *GCS) Delete(ctx context.Context, key string) error {
	obj, err := g.object(key)
	if err != nil {
		return err
	}
	if err := obj.Delete(ctx); err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return err
	}
	return nil
}

func (g *GCS) URL(key string) string { return joinURL(g.PublicBaseURL, key) }

// Close releases the client.
func (g *GCS) Close() error { return g.Client.Close() }
