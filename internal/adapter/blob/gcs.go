package blob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"cloud.google.com/go/storage"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/pscheid92/countdown/internal/domain"
	"github.com/pscheid92/countdown/internal/platform/retry"
	"google.golang.org/api/googleapi"
)

// DefaultGCSHost serves objects of publicly readable buckets.
const DefaultGCSHost = "storage.googleapis.com"

const gcsWriteTimeout = 30 * time.Second

var gcsRetryPolicy = retry.Policy{
	MaxAttempts:      3,
	InitialBackoff:   200 * time.Millisecond,
	MaxBackoff:       2 * time.Second,
	ThrottledBackoff: 1 * time.Second,
}

type putFunc func(ctx context.Context, key string, data []byte, contentType string) error
type checkFunc func(ctx context.Context) error

// GCSStore writes uploads to a Google Cloud Storage bucket that is readable by
// allUsers. Writes are retried on transient errors and short-circuited while
// the bucket keeps failing.
type GCSStore struct {
	bucket string
	host   string
	put    putFunc
	check  checkFunc
	close  func() error
	policy retry.Policy
	cb     circuitbreaker.CircuitBreaker[any]
}

var _ domain.BlobStore = (*GCSStore)(nil)

// NewGCSStore connects using Application Default Credentials.
func NewGCSStore(ctx context.Context, bucket, host string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	handle := client.Bucket(bucket)

	put := func(ctx context.Context, key string, data []byte, contentType string) error {
		ctx, cancel := context.WithTimeout(ctx, gcsWriteTimeout)
		defer cancel()

		w := handle.Object(key).NewWriter(ctx)
		w.ContentType = contentType
		w.CacheControl = "public, max-age=86400"
		if _, err := w.Write(data); err != nil {
			_ = w.Close()
			return fmt.Errorf("failed to write object: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("failed to finalize object: %w", err)
		}
		return nil
	}
	check := func(ctx context.Context) error {
		if _, err := handle.Attrs(ctx); err != nil {
			return fmt.Errorf("failed to read bucket attributes: %w", err)
		}
		return nil
	}

	s := newGCSStore(bucket, host, put, check)
	s.close = client.Close
	return s, nil
}

func newGCSStore(bucket, host string, put putFunc, check checkFunc) *GCSStore {
	if host == "" {
		host = DefaultGCSHost
	}

	cb := circuitbreaker.NewBuilder[any]().
		WithFailureRateThreshold(0.6, 5, 30*time.Second).
		WithDelay(30 * time.Second).
		WithSuccessThreshold(1).
		OnStateChanged(func(e circuitbreaker.StateChangedEvent) {
			slog.Warn("Circuit breaker state changed",
				"component", "gcs",
				"bucket", bucket,
				"from", e.OldState.String(),
				"to", e.NewState.String(),
			)
		}).
		Build()

	policy := gcsRetryPolicy
	policy.OnRetry = func(attempt int, err error, backoff time.Duration) {
		slog.Warn("Retrying GCS write", "bucket", bucket, "attempt", attempt, "backoff", backoff, "error", err)
	}

	return &GCSStore{
		bucket: bucket,
		host:   host,
		put:    put,
		check:  check,
		policy: policy,
		cb:     cb,
	}
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	if !s.cb.TryAcquirePermit() {
		return fmt.Errorf("gcs put %s: %w", key, circuitbreaker.ErrOpen)
	}

	err := retry.DoVoid(ctx, s.policy, classifyGCSError, func(ctx context.Context) error {
		return s.put(ctx, key, data, contentType)
	})
	if err != nil {
		s.cb.RecordError(err)
		return fmt.Errorf("gcs put %s: %w", key, err)
	}

	s.cb.RecordSuccess()
	return nil
}

// PublicURL follows the https://<host>/<bucket>/<key> pattern of public buckets.
func (s *GCSStore) PublicURL(key string) string {
	return fmt.Sprintf("https://%s/%s/%s", s.host, url.PathEscape(s.bucket), url.PathEscape(key))
}

func (s *GCSStore) Check(ctx context.Context) error {
	return s.check(ctx)
}

func (s *GCSStore) Close() error {
	if s.close == nil {
		return nil
	}
	if err := s.close(); err != nil {
		return fmt.Errorf("failed to close storage client: %w", err)
	}
	return nil
}

func classifyGCSError(err error) retry.Action {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return retry.Stop
	}
	if errors.Is(err, storage.ErrBucketNotExist) {
		return retry.Stop
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusTooManyRequests:
			return retry.After
		case apiErr.Code == http.StatusRequestTimeout:
			return retry.Retry
		case apiErr.Code >= 400 && apiErr.Code < 500:
			return retry.Stop
		}
	}
	return retry.Retry
}
