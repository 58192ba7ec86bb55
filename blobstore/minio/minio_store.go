package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"path"
	"slices"

	"github.com/minio/minio-go/v7"

	"github.com/hupe1980/vecscan/blobstore"
)

// Store keeps each blob as one object in a bucket. Blob names are used as
// object keys unchanged; wrap the store with blobstore.WithPrefix to place a
// VectorMap under a key prefix.
type Store struct {
	client *minio.Client
	bucket string
}

var _ blobstore.Store = (*Store)(nil)

func NewStore(client *minio.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// notFound maps a missing object (or bucket) onto blobstore.ErrNotFound.
func notFound(name string, err error) error {
	resp := minio.ToErrorResponse(err)
	switch {
	case resp.Code == "NoSuchKey", resp.Code == "NoSuchBucket", resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", name, blobstore.ErrNotFound)
	}
	return fmt.Errorf("minio get %s: %w", name, err)
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(name, err)
	}
	defer func() { _ = obj.Close() }()

	// GetObject is lazy; Stat forces the request and sizes the buffer.
	info, err := obj.Stat()
	if err != nil {
		return nil, notFound(name, err)
	}
	buf := bytes.NewBuffer(make([]byte, 0, info.Size))
	if _, err := io.Copy(buf, obj); err != nil {
		return nil, notFound(name, err)
	}
	return buf.Bytes(), nil
}

// Put uploads a single object; S3 semantics make the replacement atomic.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	_, err := s.client.PutObject(ctx, s.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType(name)})
	if err != nil {
		return fmt.Errorf("minio put %s: %w", name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	err := s.client.RemoveObject(ctx, s.bucket, name, minio.RemoveObjectOptions{})
	if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		return fmt.Errorf("minio delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("minio list %q: %w", prefix, obj.Err)
		}
		names = append(names, obj.Key)
	}
	slices.Sort(names)
	return names, nil
}

// JSON sidecars are served as JSON; table blobs are opaque.
func contentType(name string) string {
	if path.Ext(name) == ".json" {
		return "application/json"
	}
	return "application/octet-stream"
}
