package storage

import (
	"context"

	"github.com/pkg/errors"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob" // file:// buckets
	_ "gocloud.dev/blob/memblob"  // mem:// buckets
	"gocloud.dev/gcerrors"
)

// BlobStore writes objects to any gocloud.dev bucket URL.
type BlobStore struct {
	bucket  *blob.Bucket
	baseURL string
}

// NewBlobStore opens bucketURL. Objects are reported as baseURL/key.
func NewBlobStore(ctx context.Context, bucketURL, baseURL string) (*BlobStore, error) {
	bucket, err := blob.OpenBucket(ctx, bucketURL)
	if err != nil {
		return nil, errors.Wrapf(err, "open bucket %s", bucketURL)
	}
	return &BlobStore{bucket: bucket, baseURL: baseURL}, nil
}

func (s *BlobStore) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	err := s.bucket.WriteAll(ctx, key, data, &blob.WriterOptions{ContentType: contentType})
	if err != nil {
		return "", errors.Wrapf(err, "write object %s", key)
	}
	return publicURL(s.baseURL, key), nil
}

// Get returns the object body and its stored content type.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	attrs, err := s.bucket.Attributes(ctx, key)
	if err != nil {
		if gcerrors.Code(err) == gcerrors.NotFound {
			return nil, "", ErrObjectNotFound
		}
		return nil, "", errors.Wrapf(err, "stat object %s", key)
	}
	data, err := s.bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, "", errors.Wrapf(err, "read object %s", key)
	}
	return data, attrs.ContentType, nil
}

func (s *BlobStore) Close() error {
	return s.bucket.Close()
}
