package api

import (
	"context"
	"encoding"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"talentinsight/common/cache"
	"talentinsight/common/cache/memory"
	"talentinsight/common/cache/redis"
	"talentinsight/common/errors"
	"talentinsight/common/telemetry"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

var tracer = telemetry.GetTracer("talentinsight/ingestion/api")

// Fetcher pulls one source's documents for a cycle. A FETCH error means the
// source is skipped until the next cycle.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]map[string]any, error)
}

// RetryPolicy bounds the exponential backoff applied to every request.
type RetryPolicy struct {
	MaxRetries      int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func (p RetryPolicy) backOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if p.InitialInterval > 0 {
		b.InitialInterval = p.InitialInterval
	}
	if p.MaxInterval > 0 {
		b.MaxInterval = p.MaxInterval
	}
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(max(p.MaxRetries, 0))), ctx)
}

// NewCache returns the redis cache when an address is configured and an
// in-process cache otherwise.
func NewCache(opts cache.Options) cache.Cache {
	if opts.RedisURL != "" {
		return redis.New(opts)
	}
	return memory.New(opts)
}

// httpClient performs cache-aside GETs of JSON APIs.
type httpClient struct {
	client   *http.Client
	cache    cache.Cache
	cacheTTL time.Duration
	prefix   string
	retry    RetryPolicy
	interval time.Duration
	logger   *zap.Logger
}

// statusError is an unexpected HTTP status.
type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status code: %d", e.code)
}

// getJSON decodes url into out, serving it from the cache when possible. out
// must round-trip through the cache as a BinaryMarshaler.
func (c *httpClient) getJSON(ctx context.Context, cacheKey, url string, header http.Header, out interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}) error {
	ctx, span := tracer.Start(ctx, "httpClient.getJSON")
	defer span.End()
	span.SetAttributes(telemetry.String("http.url", url))

	key := cache.Key(c.prefix, cacheKey)
	err := c.cache.Get(ctx, key, out)
	if err == nil {
		span.SetAttributes(telemetry.String("cache.result", "hit"))
		c.logger.Debug("cache hit", zap.String("key", key))
		return nil
	} else if err != cache.ErrNotFound {
		span.SetAttributes(telemetry.String("cache.result", "error"))
		span.RecordError(err)
		c.logger.Warn("cache error", zap.String("key", key), zap.Error(err))
	} else {
		span.SetAttributes(telemetry.String("cache.result", "miss"))
	}

	attempts := 0
	op := func() error {
		attempts++
		return c.do(ctx, url, header, out)
	}
	notify := func(err error, wait time.Duration) {
		c.logger.Warn("request failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempts),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	if err := backoff.RetryNotify(op, c.retry.backOff(ctx), notify); err != nil {
		span.RecordError(err)
		span.SetAttributes(telemetry.Int("http.attempts", attempts))
		return errors.Fetch(fmt.Sprintf("GET %s failed after %d attempts", url, attempts), err)
	}

	if err := c.cache.Set(ctx, key, out, c.cacheTTL); err != nil {
		c.logger.Warn("failed to cache response", zap.String("key", key), zap.Error(err))
	}
	return nil
}

func (c *httpClient) do(ctx context.Context, url string, header http.Header, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(err)
	}
	for k, v := range header {
		req.Header[k] = v
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("failed to close response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		err := &statusError{code: resp.StatusCode}
		// client errors other than rate limiting will not fix themselves
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return backoff.Permanent(err)
		}
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// pause spaces out consecutive requests to the same API.
func (c *httpClient) pause(ctx context.Context) error {
	if c.interval <= 0 {
		return nil
	}
	t := time.NewTimer(c.interval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
