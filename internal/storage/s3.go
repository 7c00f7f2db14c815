// Package storage stores document file bytes in an S3-compatible bucket.
// Supports AWS S3, MinIO, Wasabi, and other S3-compatible services.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// Config holds connection settings for the blob store.
type Config struct {
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint (MinIO, Wasabi, etc.), empty for AWS
	AccessKeyID     string
	SecretAccessKey string
	PresignTTL      time.Duration
}

// BlobStore is the document byte store backed by an S3 bucket. Presigned URLs
// let clients upload and download without the bytes transiting the server.
type BlobStore struct {
	client     *s3.Client
	presign    *s3.PresignClient
	bucket     string
	presignTTL time.Duration
}

// New builds a BlobStore from config. Static credentials are used when
// provided; otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config) (*BlobStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("blob store: bucket is required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("blob store: failed to load config: %w", err)
	}

	clientOpts := []func(*s3.Options){}
	if cfg.Endpoint != "" {
		clientOpts = append(clientOpts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		})
	}

	client := s3.NewFromConfig(awsCfg, clientOpts...)
	ttl := cfg.PresignTTL
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}

	return &BlobStore{
		client:     client,
		presign:    s3.NewPresignClient(client),
		bucket:     cfg.Bucket,
		presignTTL: ttl,
	}, nil
}

// GenerateKey builds the storage key for a new upload. Keys are prefixed by
// organization so tenant blobs never collide, and carry a timestamp plus a
// random suffix so re-uploads of the same filename stay distinct.
func GenerateKey(orgID uuid.UUID, filename string) string {
	ext := strings.TrimPrefix(path.Ext(filename), ".")
	if ext == "" {
		ext = "bin"
	}
	// First group of a v4 UUID, eight hex characters.
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%s/documents/%s_%s.%s",
		orgID, time.Now().UTC().Format("20060102_150405"), suffix, ext)
}

// Put uploads file bytes under the given key.
func (b *BlobStore) Put(ctx context.Context, key, mimeType string, body io.Reader, size int64) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(mimeType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return fmt.Errorf("blob store: put %s: %w", key, err)
	}
	return nil
}

// PresignPut returns a URL the client can PUT the file bytes to directly.
func (b *BlobStore) PresignPut(ctx context.Context, key, mimeType string) (string, error) {
	req, err := b.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(b.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(mimeType),
	}, s3.WithPresignExpires(b.presignTTL))
	if err != nil {
		return "", fmt.Errorf("blob store: presign put %s: %w", key, err)
	}
	return req.URL, nil
}

// PresignGet returns a time-limited download URL. The filename is carried in
// the content disposition so browsers save the file under its original name.
func (b *BlobStore) PresignGet(ctx context.Context, key, filename string) (string, error) {
	disposition := fmt.Sprintf("attachment; filename=%q", filename)
	req, err := b.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket:                     aws.String(b.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(disposition),
	}, s3.WithPresignExpires(b.presignTTL))
	if err != nil {
		return "", fmt.Errorf("blob store: presign get %s: %w", key, err)
	}
	return req.URL, nil
}

// Exists reports whether an object is present under the key.
func (b *BlobStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("blob store: head %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the object under the key. Deleting a missing object is not
// an error.
func (b *BlobStore) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("blob store: delete %s: %w", key, err)
	}
	return nil
}
