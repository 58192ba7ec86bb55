// Package s3 stores VectorMap blobs in Amazon S3 through aws-sdk-go-v2.
//
//	store, err := s3.New(ctx, "vectors", s3.WithRegion("eu-central-1"))
//	err = vm.Save(ctx, blobstore.WithPrefix(store, "en/"))
//
// Small blobs are written with a single PutObject carrying a CRC32C
// checksum. Table blobs at or above UploadConfig.MultipartThreshold are
// streamed through the multipart uploader. WithEndpoint targets
// S3-compatible services and switches to path-style addressing.
package s3
