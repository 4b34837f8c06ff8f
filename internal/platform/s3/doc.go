// Package s3 provides a small client for S3-compatible object storage.
//
// It backs the remote storage manifest: objects are read and written whole,
// and a missing object is reported as [ErrObjectNotFound] so callers can
// treat it as empty state. Any endpoint speaking the S3 protocol works,
// including AWS S3 and Hetzner Object Storage.
package s3
