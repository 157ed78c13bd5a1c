package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used here.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads audio files to S3.
type S3Store struct {
	client     S3API
	bucket     string
	cdnBaseURL string // e.g. "https://audio.example.com"
}

// NewS3Store creates an S3 store. bucket is the default bucket for Upload;
// Save takes the bucket from its s3:// destination.
func NewS3Store(client S3API, bucket, cdnBaseURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, cdnBaseURL: strings.TrimSuffix(cdnBaseURL, "/")}
}

func (s *S3Store) Save(ctx context.Context, dest string, r io.Reader, size int64) error {
	bucket, key, ok := ParseS3URL(dest)
	if !ok {
		return fmt.Errorf("invalid S3 destination %q: want s3://bucket/key", dest)
	}
	return s.put(ctx, bucket, key, r, size)
}

// Upload stores the audio under key in the default bucket and returns its
// public URL.
func (s *S3Store) Upload(ctx context.Context, key string, r io.Reader, size int64) (url string, err error) {
	if s.bucket == "" {
		return "", fmt.Errorf("no default S3 bucket configured")
	}
	if err := s.put(ctx, s.bucket, key, r, size); err != nil {
		return "", err
	}
	return s.URL(key), nil
}

// URL returns the public URL for key, or an s3:// URL without a CDN.
func (s *S3Store) URL(key string) string {
	if s.cdnBaseURL == "" {
		return "s3://" + s.bucket + "/" + key
	}
	return s.cdnBaseURL + "/" + key
}

func (s *S3Store) put(ctx context.Context, bucket, key string, r io.Reader, size int64) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String("audio/mpeg"),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return fmt.Errorf("upload to s3://%s/%s: %w", bucket, key, err)
	}
	return nil
}
