package s3

import (
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecscan/blobstore"
	"github.com/hupe1980/vecscan/blobstore/storetest"
	"github.com/hupe1980/vecscan/internal/hash"
)

func TestStore_Get(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "vectors", DefaultUploadConfig())
	ctx := context.Background()

	t.Run("NotFound", func(t *testing.T) {
		client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Key) == "vectors.bin.zst"
		})).Return(nil, &types.NoSuchKey{}).Once()

		_, err := store.Get(ctx, "vectors.bin.zst")
		assert.ErrorIs(t, err, blobstore.ErrNotFound)
	})

	t.Run("Success", func(t *testing.T) {
		client.On("GetObject", mock.Anything, mock.MatchedBy(func(in *s3.GetObjectInput) bool {
			return aws.ToString(in.Bucket) == "vectors" && aws.ToString(in.Key) == "en/strings.json"
		})).Return(&s3.GetObjectOutput{
			Body:          io.NopCloser(strings.NewReader(`["duck|NOUN"]`)),
			ContentLength: aws.Int64(13),
		}, nil).Once()

		data, err := store.Get(ctx, "en/strings.json")
		require.NoError(t, err)
		assert.Equal(t, `["duck|NOUN"]`, string(data))
	})

	client.AssertExpectations(t)
}

func TestStore_PutSingleRequest(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "vectors", DefaultUploadConfig())

	data := []byte(`[["duck|NOUN",120]]`)
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "freqs.json" &&
			aws.ToString(in.ContentType) == "application/json" &&
			aws.ToString(in.ChecksumCRC32C) == hash.CRC32CBase64(data) &&
			aws.ToInt64(in.ContentLength) == int64(len(data))
	})).Run(func(args mock.Arguments) {
		body, _ := io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
		assert.Equal(t, data, body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "freqs.json", data))
	client.AssertExpectations(t)
}

func TestStore_PutThroughUploader(t *testing.T) {
	client := new(MockS3Client)
	cfg := DefaultUploadConfig()
	cfg.MultipartThreshold = 1
	store := NewStore(client, "vectors", cfg)

	// Below the part size the uploader still issues a single PutObject.
	client.On("PutObject", mock.Anything, mock.MatchedBy(func(in *s3.PutObjectInput) bool {
		return aws.ToString(in.Key) == "vectors.bin.zst" &&
			aws.ToString(in.ContentType) == "application/octet-stream" &&
			in.ChecksumAlgorithm == types.ChecksumAlgorithmCrc32c
	})).Run(func(args mock.Arguments) {
		_, _ = io.ReadAll(args.Get(1).(*s3.PutObjectInput).Body)
	}).Return(&s3.PutObjectOutput{}, nil).Once()

	require.NoError(t, store.Put(context.Background(), "vectors.bin.zst", []byte("table")))
	client.AssertExpectations(t)
}

func TestStore_Delete(t *testing.T) {
	client := new(MockS3Client)
	store := NewStore(client, "vectors", DefaultUploadConfig())

	client.On("DeleteObject", mock.Anything, mock.MatchedBy(func(in *s3.DeleteObjectInput) bool {
		return aws.ToString(in.Key) == "vectors.bin.lz4"
	})).Return(nil, &types.NoSuchKey{}).Once()

	assert.NoError(t, store.Delete(context.Background(), "vectors.bin.lz4"))
	client.AssertExpectations(t)
}

func TestStore_ListPages(t *testing.T) {
	client := new(MockS3Client)
	store := blobstore.WithPrefix(NewStore(client, "vectors", DefaultUploadConfig()), "en")

	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return in.ContinuationToken == nil && aws.ToString(in.Prefix) == "en/"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated:           aws.Bool(true),
		NextContinuationToken: aws.String("next"),
		Contents:              []types.Object{{Key: aws.String("en/vectors.bin")}},
	}, nil).Once()
	client.On("ListObjectsV2", mock.Anything, mock.MatchedBy(func(in *s3.ListObjectsV2Input) bool {
		return aws.ToString(in.ContinuationToken) == "next"
	})).Return(&s3.ListObjectsV2Output{
		IsTruncated: aws.Bool(false),
		Contents:    []types.Object{{Key: aws.String("en/freqs.json")}},
	}, nil).Once()

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []string{"freqs.json", "vectors.bin"}, names)
	client.AssertExpectations(t)
}

// Runs against a real bucket when S3_BUCKET is set.
func TestStore_Integration(t *testing.T) {
	bucket := os.Getenv("S3_BUCKET")
	if bucket == "" {
		t.Skip("S3_BUCKET not set")
	}

	store, err := New(context.Background(), bucket)
	require.NoError(t, err)
	storetest.Run(t, blobstore.WithPrefix(store, "storetest-vecscan/"))
}
