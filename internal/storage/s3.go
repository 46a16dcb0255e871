package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/yamacamp/backend/internal/config"
)

// keyPrefix namespaces stored objects inside the bucket
const keyPrefix = "yamacamp"

// s3Client is the subset of the S3 API the store uses, extracted so tests
// can substitute a fake
type s3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Storage implements Storage on an S3-compatible media host
type s3Storage struct {
	client  s3Client
	bucket  string
	baseURL string
}

// NewS3Storage creates a new s3Storage instance from config. A non-empty
// Endpoint points the client at a MinIO-compatible host.
func NewS3Storage(ctx context.Context, cfg config.S3Config, baseURL string) (*s3Storage, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &s3Storage{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Store uploads the file content under a generated object key
func (s *s3Storage) Store(ctx context.Context, reader io.Reader, originalFilename string) (*StoredImage, error) {
	filename := GenerateFilename(originalFilename)
	key := fmt.Sprintf("%s/%s", keyPrefix, filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        reader,
		ContentType: aws.String(contentTypeForFilename(filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file: %w", err)
	}

	return &StoredImage{
		URL:      fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key),
		Filename: filename,
	}, nil
}

// Delete removes a stored object by filename
func (s *s3Storage) Delete(ctx context.Context, filename string) error {
	key := fmt.Sprintf("%s/%s", keyPrefix, filename)

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}
