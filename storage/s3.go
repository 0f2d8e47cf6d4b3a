package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type S3Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	// Region skips the bucket location lookup when set.
	Region string
	Bucket string
}

// unknownSizePartSize bounds the part buffer minio allocates for streams of
// unknown length; left at zero it sizes parts for a 5TiB object.
const unknownSizePartSize = 16 << 20

// S3 stores blobs in a bucket of any S3 compatible service.
type S3 struct {
	client *minio.Client
	bucket string
}

func NewS3(cfg S3Config) (*S3, error) {
	if strings.TrimSpace(cfg.AccessKey) == "" || strings.TrimSpace(cfg.SecretKey) == "" {
		return nil, fmt.Errorf("object storage credentials are not configured")
	}
	client, err := minio.New(strings.TrimSpace(cfg.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(cfg.AccessKey), strings.TrimSpace(cfg.SecretKey), ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to create s3 client: %w", err)
	}
	return &S3{client: client, bucket: cfg.Bucket}, nil
}

func (s *S3) StoreFile(ctx context.Context, r io.Reader, b Blob) (string, error) {
	contentType := b.ContentType
	if strings.TrimSpace(contentType) == "" {
		contentType = "application/octet-stream"
	}

	opts := minio.PutObjectOptions{ContentType: contentType}
	size := b.Size
	if size <= 0 {
		size = -1
		opts.PartSize = unknownSizePartSize
	}
	info, err := s.client.PutObject(ctx, s.bucket, b.Name, r, size, opts)
	if err != nil {
		return "", fmt.Errorf("unable to put object %s: %w", b.Name, err)
	}
	return fmt.Sprintf("s3://%s/%s", info.Bucket, info.Key), nil
}
