package services

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type memoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func newMemoryBlobStore() *memoryBlobStore {
	return &memoryBlobStore{objects: map[string][]byte{}}
}

func (m *memoryBlobStore) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()
	return "https://blobs.test/" + key, nil
}

func (m *memoryBlobStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

type fakeS3 struct {
	input *s3.PutObjectInput
	err   error
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestReceiptPath(t *testing.T) {
	restaurantID := uuid.MustParse("2b0c7d3e-5f4a-4c61-9a8e-0d1f2e3c4b5a")
	at := time.UnixMilli(1760000000123)

	require.Equal(t,
		"2b0c7d3e-5f4a-4c61-9a8e-0d1f2e3c4b5a/1760000000123-my_bill__1_.jpg",
		ReceiptPath(restaurantID, at, "My Bill (1).JPG"))
	require.Equal(t, "passwd", SanitizeFilename("../../etc/passwd"))
	require.Equal(t, "receipt", SanitizeFilename("..."))
	require.Equal(t, "x.png", SanitizeFilename(`C:\Users\me\x.png`))
	require.Len(t, SanitizeFilename(strings.Repeat("a", 300)+".jpg"), maxReceiptNameLength)
}

func TestLocalBlobStoreUpload(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalBlobStore(dir, "http://localhost:8080/uploads/")
	key := ReceiptPath(uuid.New(), time.Now(), "bill.jpg")

	url, err := store.Upload(context.Background(), key, bytes.NewReader([]byte("jpeg")), 4, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080/uploads/"+key, url)

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(key)))
	require.NoError(t, err)
	require.Equal(t, "jpeg", string(data))

	_, err = store.Upload(context.Background(), key, bytes.NewReader([]byte("again")), 5, "image/jpeg")
	require.Error(t, err, "receipts are never overwritten")

	_, err = store.Upload(context.Background(), "../escape.jpg", bytes.NewReader(nil), 0, "")
	require.Error(t, err)
}

func TestS3BlobStoreUpload(t *testing.T) {
	client := &fakeS3{}
	store := NewS3BlobStore(client, "receipts", "eu-west-1")

	url, err := store.Upload(context.Background(), "r1/1-bill.jpg", bytes.NewReader([]byte("x")), 1, "image/jpeg")
	require.NoError(t, err)
	require.Equal(t, "https://receipts.s3.eu-west-1.amazonaws.com/r1/1-bill.jpg", url)
	require.Equal(t, "receipts", aws.ToString(client.input.Bucket))
	require.Equal(t, "r1/1-bill.jpg", aws.ToString(client.input.Key))
	require.Equal(t, int64(1), aws.ToInt64(client.input.ContentLength))
	require.Equal(t, "image/jpeg", aws.ToString(client.input.ContentType))

	client.err = errors.New("access denied")
	_, err = store.Upload(context.Background(), "r1/2-bill.jpg", bytes.NewReader(nil), 0, "")
	require.ErrorContains(t, err, "access denied")
}
