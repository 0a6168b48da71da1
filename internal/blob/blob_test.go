package blob

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPhotoKey(t *testing.T) {
	at := time.UnixMilli(1718000000123)

	assert.Equal(t, "user-1/1718000000123.jpg", PhotoKey("user-1", at, "Me At The Beach.JPG"))
	assert.Equal(t, "user-1/1718000000123.png", PhotoKey("user-1", at, "dir/avatar.png"))
	assert.Equal(t, "user-1/1718000000123", PhotoKey("user-1", at, "noext"))
}

// Needs a live MinIO: TEST_MINIO_ENDPOINT=localhost:9000 with the default
// minioadmin credentials.
func TestMinIO_Put(t *testing.T) {
	endpoint := os.Getenv("TEST_MINIO_ENDPOINT")
	if endpoint == "" {
		t.Skip("TEST_MINIO_ENDPOINT not set")
	}
	ctx := context.Background()

	store, err := NewMinIO(ctx, Config{
		Endpoint:  endpoint,
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "student-photos-test",
		PublicURL: "https://cdn.example/photos/",
		Timeout:   5 * time.Second,
	})
	require.NoError(t, err)

	data := []byte("fake image bytes")
	url, err := store.Put(ctx, "u1/1.png", bytes.NewReader(data), int64(len(data)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/photos/u1/1.png", url)
}
