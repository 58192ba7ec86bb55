// Package minio stores VectorMap blobs in MinIO or any S3-compatible
// service reachable through github.com/minio/minio-go/v7.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds: credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	})
//	store := blobstore.WithPrefix(miniostore.NewStore(client, "vectors"), "en/")
//	err = vm.Save(ctx, store)
package minio
