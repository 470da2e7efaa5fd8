package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/example/referdby/internal/config"
)

const maxReceiptNameLength = 96

// BlobStore persists receipt photos and returns their public URL.
type BlobStore interface {
	Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
}

// NewBlobStore selects the store named by cfg.Driver.
func NewBlobStore(ctx context.Context, cfg config.StorageConfig) (BlobStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalBlobStore(cfg.LocalDir, cfg.PublicURL), nil
	case "s3":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.S3Region))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return NewS3BlobStore(s3.NewFromConfig(awsCfg), cfg.S3Bucket, cfg.S3Region), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ReceiptPath namespaces a receipt under its restaurant:
// {restaurantId}/{unixMillis}-{sanitizedFilename}.
func ReceiptPath(restaurantID uuid.UUID, at time.Time, filename string) string {
	return fmt.Sprintf("%s/%d-%s", restaurantID, at.UnixMilli(), SanitizeFilename(filename))
}

// SanitizeFilename keeps letters, digits, dots, dashes and underscores.
func SanitizeFilename(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	clean := strings.Trim(b.String(), "._")
	if clean == "" {
		clean = "receipt"
	}
	if len(clean) > maxReceiptNameLength {
		clean = clean[len(clean)-maxReceiptNameLength:]
	}
	return clean
}

func validKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

// LocalBlobStore writes receipts under a directory served by the HTTP layer.
type LocalBlobStore struct {
	dir       string
	publicURL string
}

// NewLocalBlobStore constructs a LocalBlobStore.
func NewLocalBlobStore(dir, publicURL string) *LocalBlobStore {
	return &LocalBlobStore{dir: dir, publicURL: strings.TrimRight(publicURL, "/")}
}

// Dir is the root directory receipts are written to.
func (s *LocalBlobStore) Dir() string {
	return s.dir
}

func (s *LocalBlobStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create receipt dir: %w", err)
	}
	file, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create receipt file: %w", err)
	}
	written, copyErr := io.Copy(file, body)
	closeErr := file.Close()
	if err := errors.Join(copyErr, closeErr); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("write receipt: %w", err)
	}
	if size > 0 && written != size {
		_ = os.Remove(target)
		return "", fmt.Errorf("write receipt: wrote %d of %d bytes", written, size)
	}
	log.Printf("[Storage] stored %s (%d bytes)", key, written)
	return s.publicURL + "/" + key, nil
}

// S3PutAPI is the subset of the S3 client used for receipts.
type S3PutAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3BlobStore stores receipts in an S3 bucket.
type S3BlobStore struct {
	client S3PutAPI
	bucket string
	region string
}

// NewS3BlobStore constructs an S3BlobStore.
func NewS3BlobStore(client S3PutAPI, bucket, region string) *S3BlobStore {
	return &S3BlobStore{client: client, bucket: bucket, region: region}
}

func (s *S3BlobStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if err := validKey(key); err != nil {
		return "", err
	}
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	log.Printf("[Storage] stored s3://%s/%s", s.bucket, key)
	return s.objectURL(key), nil
}

func (s *S3BlobStore) objectURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if s.region == "" || s.region == "us-east-1" {
		return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, escaped)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, escaped)
}
