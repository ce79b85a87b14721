// Package s3 provides a blobstore.BlobStore implementation for Amazon S3
// using aws-sdk-go-v2 and the s3 transfer manager.
//
// Usage:
//
//	store, err := s3store.NewDefaultStore(ctx, "my-bucket", "escomatch/")
//	if err != nil {
//	    log.Fatal(err)
//	}
package s3
