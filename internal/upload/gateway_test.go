package upload

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pscheid92/countdown/internal/adapter/metrics"
	"github.com/pscheid92/countdown/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- Mock implementations ---

type mockBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
	putErr  error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockBlobStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	m.types[key] = contentType
	return nil
}

func (m *mockBlobStore) PublicURL(key string) string {
	return "https://blobs.example.com/bucket/" + key
}

func (m *mockBlobStore) Check(context.Context) error { return nil }

func newTestGateway(t *testing.T, blobs domain.BlobStore) (*Gateway, *metrics.UploadMetrics) {
	t.Helper()
	m := metrics.NewUploadMetrics(prometheus.NewRegistry())
	return NewGateway(blobs, m), m
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		filename string
		wantExt  string
		wantErr  error
	}{
		{"photo.png", "png", nil},
		{"photo.JPG", "jpg", nil},
		{"photo.Jpeg", "jpeg", nil},
		{"party.final.gif", "gif", nil},
		{"photo.EXE", "", domain.ErrInvalidExtension},
		{"photo.png.exe", "", domain.ErrInvalidExtension},
		{"photo", "", domain.ErrInvalidExtension},
		{"photo.", "", domain.ErrInvalidExtension},
		{"", "", domain.ErrNoFile},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			ext, err := Validate(tt.filename)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantExt, ext)
		})
	}
}

// --- Store ---

func TestStore_WritesUUIDKeyWithContentType(t *testing.T) {
	blobs := newMockBlobStore()
	g, m := newTestGateway(t, blobs)

	fixed := uuid.MustParse("6f1c1c8e-1f1b-4c55-9a59-0b8f43d1c2aa")
	g.newID = func() uuid.UUID { return fixed }

	key, err := g.Store(context.Background(), strings.NewReader("png-bytes"), "png")
	require.NoError(t, err)

	assert.Equal(t, fixed.String()+".png", key)
	assert.Equal(t, []byte("png-bytes"), blobs.objects[key])
	assert.Equal(t, "image/png", blobs.types[key])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(metrics.UploadResultStored)))
}

func TestStore_JPEGContentType(t *testing.T) {
	blobs := newMockBlobStore()
	g, _ := newTestGateway(t, blobs)

	key, err := g.Store(context.Background(), strings.NewReader("jpg"), "jpg")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", blobs.types[key])
	assert.True(t, strings.HasSuffix(key, ".jpg"))
}

func TestStore_UniqueKeys(t *testing.T) {
	blobs := newMockBlobStore()
	g, _ := newTestGateway(t, blobs)

	first, err := g.Store(context.Background(), strings.NewReader("a"), "gif")
	require.NoError(t, err)
	second, err := g.Store(context.Background(), strings.NewReader("b"), "gif")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Len(t, blobs.objects, 2)
}

func TestStore_TooLarge(t *testing.T) {
	blobs := newMockBlobStore()
	g, m := newTestGateway(t, blobs)

	_, err := g.Store(context.Background(), bytes.NewReader(make([]byte, MaxBytes+1)), "png")
	assert.ErrorIs(t, err, domain.ErrFileTooLarge)
	assert.Empty(t, blobs.objects)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(metrics.UploadResultRejected)))
}

func TestStore_EmptyFile(t *testing.T) {
	g, _ := newTestGateway(t, newMockBlobStore())

	_, err := g.Store(context.Background(), strings.NewReader(""), "png")
	assert.ErrorIs(t, err, domain.ErrNoFile)
}

func TestStore_UnknownExtension(t *testing.T) {
	g, _ := newTestGateway(t, newMockBlobStore())

	_, err := g.Store(context.Background(), strings.NewReader("x"), "exe")
	assert.ErrorIs(t, err, domain.ErrInvalidExtension)
}

func TestStore_BlobErrorBecomesStorageFailure(t *testing.T) {
	blobs := newMockBlobStore()
	blobs.putErr = errors.New("bucket is on fire: secret-internal-detail")
	g, m := newTestGateway(t, blobs)

	_, err := g.Store(context.Background(), strings.NewReader("png"), "png")
	require.ErrorIs(t, err, domain.ErrStorageFailure)
	assert.NotContains(t, err.Error(), "secret-internal-detail")
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(metrics.UploadResultFailed)))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestStore_ReadErrorBecomesStorageFailure(t *testing.T) {
	g, _ := newTestGateway(t, newMockBlobStore())

	_, err := g.Store(context.Background(), failingReader{}, "png")
	assert.ErrorIs(t, err, domain.ErrStorageFailure)
}

func TestPublicURL_DelegatesToBlobStore(t *testing.T) {
	g, _ := newTestGateway(t, newMockBlobStore())
	assert.Equal(t, "https://blobs.example.com/bucket/a.png", g.PublicURL("a.png"))
}

// --- SanitizeKey ---

func TestSanitizeKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"6f1c1c8e-1f1b-4c55-9a59-0b8f43d1c2aa.png", "6f1c1c8e-1f1b-4c55-9a59-0b8f43d1c2aa.png"},
		{"../../etc/passwd", "passwd"},
		{`..\..\windows\win.ini`, "win.ini"},
		{"..hidden.png", "hidden.png"},
		{"my photo.png", "my_photo.png"},
		{"emoji🎄.gif", "emoji.gif"},
		{"a/b/../c.jpg", "c.jpg"},
		{"...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeKey(tt.in))
		})
	}
}
