package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	"lostlink/internal/utils"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectStorage handles uploads of item photos and claim proof images to S3.
type ObjectStorage struct {
	client *s3.Client
	bucket string
}

// NewObjectStorage creates a new S3-backed storage client
func NewObjectStorage(client *s3.Client, bucket string) *ObjectStorage {
	return &ObjectStorage{
		client: client,
		bucket: bucket,
	}
}

// Upload streams a file under the given directory prefix and returns the
// generated object key.
func (s *ObjectStorage) Upload(ctx context.Context, prefix, filename string, body io.Reader, contentType string) (string, error) {
	key := path.Join(prefix, utils.NanoIDSize(16)+path.Ext(filename))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}

	return key, nil
}

// Delete removes an object by key.
func (s *ObjectStorage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}

	return nil
}

// PresignedURL returns a time-limited GET URL for an object key, so image
// links in API responses work without a public bucket.
func (s *ObjectStorage) PresignedURL(ctx context.Context, key string) (string, error) {
	presigner := s3.NewPresignClient(s.client)

	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}

	return req.URL, nil
}
