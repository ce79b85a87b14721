// Package minio provides a blobstore.BlobStore implementation for MinIO
// and other S3-compatible object stores, using the official MinIO Go SDK.
//
// Usage:
//
//	client, err := minio.New("play.min.io", &minio.Options{
//	    Creds: credentials.NewStaticV4(accessKey, secretKey, ""),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	store := miniostore.NewStore(client, "embeddings", "escomatch/")
package minio
