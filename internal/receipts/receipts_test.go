package receipts

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Upload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	u := &Local{Dir: dir, BaseURL: "/uploads/"}

	ref, err := u.Upload(context.Background(), "proof.PNG", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, "/uploads/receipt-"))
	require.True(t, strings.HasSuffix(ref, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(ref, "/uploads/")))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))
}

func TestObjectKey_DropsUnknownExtension(t *testing.T) {
	assert.False(t, strings.Contains(objectKey("../../evil.sh"), ".sh"))
	assert.True(t, strings.HasSuffix(objectKey("scan.pdf"), ".pdf"))
	assert.NotEqual(t, objectKey("a.png"), objectKey("a.png"))
}

func TestPublicBase(t *testing.T) {
	assert.Equal(t, "http://minio:9000/receipts", publicBase("http://minio:9000/", "receipts", "us-east-1"))
	assert.Equal(t, "https://receipts.s3.eu-west-1.amazonaws.com", publicBase("", "receipts", "eu-west-1"))
}

func TestS3_Upload(t *testing.T) {
	var (
		mu   sync.Mutex
		path string
		body []byte
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		path = r.URL.Path
		body, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	u, err := NewS3(context.Background(), S3Config{
		Bucket:    "receipts",
		Endpoint:  srv.URL,
		AccessKey: "key",
		SecretKey: "secret",
	})
	require.NoError(t, err)

	ref, err := u.Upload(context.Background(), "proof.jpg", "image/jpeg", bytes.NewReader([]byte("jpeg-bytes")))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(ref, srv.URL+"/receipts/receipt-"))

	mu.Lock()
	defer mu.Unlock()
	assert.True(t, strings.HasPrefix(path, "/receipts/receipt-"))
	assert.Contains(t, string(body), "jpeg-bytes")
}

func TestNewS3_RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	require.Error(t, err)
}
