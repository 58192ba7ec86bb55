package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/hupe1980/vecscan/blobstore"
	"github.com/hupe1980/vecscan/internal/hash"
)

// UploadConfig tunes how Put sends a blob.
type UploadConfig struct {
	// MultipartThreshold is the blob size from which the multipart uploader
	// takes over from a single PutObject. Only table blobs of large maps
	// reach it; sidecars always go in one request.
	MultipartThreshold int64

	// PartSize and Concurrency are passed to manager.Uploader.
	PartSize    int64
	Concurrency int

	// LeavePartsOnError keeps parts of a failed multipart upload.
	LeavePartsOnError bool
}

// DefaultUploadConfig uses 8MiB parts from 16MiB up with five workers.
func DefaultUploadConfig() UploadConfig {
	return UploadConfig{
		MultipartThreshold: 16 << 20,
		PartSize:           8 << 20,
		Concurrency:        5,
	}
}

// Store keeps each blob as one object in a bucket, keyed by blob name.
// Wrap it with blobstore.WithPrefix to place a VectorMap under a prefix.
type Store struct {
	client    Client
	uploader  *manager.Uploader
	bucket    string
	threshold int64
}

var _ blobstore.Store = (*Store)(nil)

func NewStore(client Client, bucket string, cfg UploadConfig) *Store {
	if cfg.MultipartThreshold <= 0 {
		cfg.MultipartThreshold = DefaultUploadConfig().MultipartThreshold
	}
	return &Store{
		client: client,
		uploader: manager.NewUploader(client, func(u *manager.Uploader) {
			if cfg.PartSize > 0 {
				u.PartSize = cfg.PartSize
			}
			if cfg.Concurrency > 0 {
				u.Concurrency = cfg.Concurrency
			}
			u.LeavePartsOnError = cfg.LeavePartsOnError
		}),
		bucket:    bucket,
		threshold: cfg.MultipartThreshold,
	}
}

func (s *Store) Get(ctx context.Context, name string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", name, blobstore.ErrNotFound)
		}
		return nil, fmt.Errorf("s3 get %s: %w", name, err)
	}
	defer func() { _ = out.Body.Close() }()

	buf := bytes.NewBuffer(make([]byte, 0, max(aws.ToInt64(out.ContentLength), 0)))
	if _, err := io.Copy(buf, out.Body); err != nil {
		return nil, fmt.Errorf("s3 read %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Put sends blobs below the multipart threshold in one PutObject carrying a
// precomputed CRC32C; larger ones go through the uploader, which checksums
// every part.
func (s *Store) Put(ctx context.Context, name string, data []byte) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(name),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(name)),
	}

	var err error
	if int64(len(data)) < s.threshold {
		in.ContentLength = aws.Int64(int64(len(data)))
		in.ChecksumCRC32C = aws.String(hash.CRC32CBase64(data))
		_, err = s.client.PutObject(ctx, in)
	} else {
		in.ChecksumAlgorithm = types.ChecksumAlgorithmCrc32c
		_, err = s.uploader.Upload(ctx, in)
	}
	if err != nil {
		return fmt.Errorf("s3 put %s: %w", name, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, name string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil && !isNotFound(err) {
		return fmt.Errorf("s3 delete %s: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	in := &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)}
	if prefix != "" {
		in.Prefix = aws.String(prefix)
	}

	var names []string
	pages := s3.NewListObjectsV2Paginator(s.client, in)
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3 list %q: %w", prefix, err)
		}
		for _, obj := range page.Contents {
			names = append(names, aws.ToString(obj.Key))
		}
	}
	slices.Sort(names)
	return names, nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nsk)
}

func contentType(name string) string {
	if path.Ext(name) == ".json" {
		return "application/json"
	}
	return "application/octet-stream"
}
