// Package s3 provides an Amazon S3 implementation of blobstore.Store.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("vecsight/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	model, err := novelty.Load(ctx, store, "reference.vsm")
//
// Writes go through the SDK's managed uploader, so large reference models are
// sent as multipart uploads. Reads fetch the whole object in one GET.
package s3
