package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
	"gocloud.dev/blob/s3blob"
	"gocloud.dev/gcerrors"

	"github.com/filevault/filevault/internal"
)

// BucketStore implements BlobStore on top of a gocloud bucket, so the same
// code serves local disk and any S3-compatible backend.
type BucketStore struct {
	bucket *blob.Bucket
}

func NewBucketStore(bucket *blob.Bucket) *BucketStore {
	return &BucketStore{bucket: bucket}
}

// OpenBucket opens the configured blob backend.
func OpenBucket(ctx context.Context, cfg internal.StorageConfig) (*blob.Bucket, error) {
	switch cfg.Provider {
	case "local":
		return fileblob.OpenBucket(cfg.LocalDir, &fileblob.Options{CreateDir: true})
	case "s3":
		s3Config := aws.Config{
			Credentials:  credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretKey, cfg.S3Token),
			BaseEndpoint: aws.String(cfg.S3Endpoint),
			Region:       cfg.S3Region,
		}
		client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
			o.UsePathStyle = true
		})
		return s3blob.OpenBucketV2(ctx, client, cfg.Bucket, nil)
	default:
		return nil, fmt.Errorf("unknown storage provider %q", cfg.Provider)
	}
}

func (s *BucketStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	writeCtx, cancelWrite := context.WithCancel(ctx)
	defer cancelWrite()

	w, err := s.bucket.NewWriter(writeCtx, key, nil)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(w, r)
	if err != nil {
		// cancel before Close so the partial write is aborted, not committed
		cancelWrite()
		_ = w.Close()
		return n, err
	}

	if err := w.Close(); err != nil {
		return n, err
	}

	return n, nil
}

func (s *BucketStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.bucket.NewReader(ctx, key, nil)
}

func (s *BucketStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Delete(ctx, key)
	if err != nil && gcerrors.Code(err) == gcerrors.NotFound {
		return nil
	}
	return err
}

func (s *BucketStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.bucket.Exists(ctx, key)
}
