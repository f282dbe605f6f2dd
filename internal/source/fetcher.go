// Package source retrieves raw dataset payloads from upstream open-data portals.
package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/mkoziy/civic/exporter/internal/logging"
	"github.com/mkoziy/civic/exporter/internal/metrics"
	"github.com/mkoziy/civic/exporter/internal/ratelimit"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "civicsync/1.0 (+https://github.com/mkoziy/civic)"
	maxErrorBody     = 512
)

// Endpoint describes where and how a dataset is published.
type Endpoint struct {
	Dataset   string
	URL       string
	Kind      Kind
	RateLimit ratelimit.Config
}

// Options configures a Fetcher.
type Options struct {
	Timeout    time.Duration
	ScratchDir string
	UserAgent  string
	HTTPClient *http.Client
}

// Fetcher downloads dataset payloads with per-dataset rate limiting, bounded
// retries and a circuit breaker.
type Fetcher struct {
	httpClient *http.Client
	scratchDir string
	userAgent  string

	mu       sync.Mutex
	limiters map[string]ratelimit.Limiter
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts Options) *Fetcher {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	ua := opts.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	return &Fetcher{
		httpClient: client,
		scratchDir: opts.ScratchDir,
		userAgent:  ua,
		limiters:   make(map[string]ratelimit.Limiter),
		breakers:   make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Fetch retrieves the endpoint's payload and hands it to fn. Scratch files
// created for archives are removed when Fetch returns, whatever the outcome.
// Download failures are returned as *FetchError; errors from fn are returned as is.
func (f *Fetcher) Fetch(ctx context.Context, ep Endpoint, fn func(*Payload) error) error {
	if ep.URL == "" {
		return fmt.Errorf("%s: %w", ep.Dataset, ErrUnknownDataset)
	}

	payload := &Payload{Dataset: ep.Dataset, Kind: ep.Kind}
	if ep.Kind != KindArchive {
		var buf bytes.Buffer
		err := f.download(ctx, ep, func(body io.Reader) error {
			buf.Reset()
			_, err := buf.ReadFrom(body)
			return err
		})
		if err != nil {
			return err
		}
		payload.Body = buf.Bytes()
		return fn(payload)
	}

	dir, err := os.MkdirTemp(f.scratchDir, "civic-"+ep.Dataset+"-*")
	if err != nil {
		return &FetchError{Dataset: ep.Dataset, URL: ep.URL, Err: fmt.Errorf("create scratch dir: %w", err)}
	}
	defer func() {
		if rmErr := os.RemoveAll(dir); rmErr != nil {
			logging.Warn().Err(rmErr).Str("dir", dir).Msg("Failed to remove scratch directory")
		}
	}()

	archivePath := filepath.Join(dir, "payload.zip")
	out, err := os.Create(archivePath)
	if err != nil {
		return &FetchError{Dataset: ep.Dataset, URL: ep.URL, Err: fmt.Errorf("create archive file: %w", err)}
	}
	var size int64
	err = f.download(ctx, ep, func(body io.Reader) error {
		if err := out.Truncate(0); err != nil {
			return err
		}
		if _, err := out.Seek(0, io.SeekStart); err != nil {
			return err
		}
		n, err := io.Copy(out, body)
		size = n
		return err
	})
	if closeErr := out.Close(); err == nil && closeErr != nil {
		err = &FetchError{Dataset: ep.Dataset, URL: ep.URL, Err: closeErr}
	}
	if err != nil {
		return err
	}

	if size > 0 {
		entriesDir := filepath.Join(dir, "entries")
		if err := os.Mkdir(entriesDir, 0o700); err != nil {
			return &FetchError{Dataset: ep.Dataset, URL: ep.URL, Err: err}
		}
		files, unreadable, err := extractArchive(archivePath, entriesDir)
		if err != nil {
			return &FetchError{Dataset: ep.Dataset, URL: ep.URL, Attempts: 1, Err: err}
		}
		payload.Files = files
		payload.Unreadable = unreadable
		logging.Ctx(ctx).Debug().
			Int("entries", len(files)).
			Int("unreadable", len(unreadable)).
			Int64("bytes", size).
			Msg("Archive extracted")
	}

	return fn(payload)
}

// download performs the GET with bounded retries. sink is called with the
// response body of each successful attempt and must tolerate being called again.
func (f *Fetcher) download(ctx context.Context, ep Endpoint, sink func(io.Reader) error) error {
	cfg := ratelimit.Normalize(ep.RateLimit)
	limiter := f.limiter(ep.Dataset, cfg)
	breaker := f.breaker(ep.Dataset)

	for attempt := 0; ; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			return &FetchError{Dataset: ep.Dataset, URL: ep.URL, Attempts: attempt, Err: err}
		}

		_, err := breaker.Execute(func() (struct{}, error) {
			return struct{}{}, f.get(ctx, ep.URL, sink)
		})
		if err == nil {
			metrics.FetchAttempts.WithLabelValues(ep.Dataset, "ok").Inc()
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.FetchAttempts.WithLabelValues(ep.Dataset, "rejected").Inc()
			return &FetchError{Dataset: ep.Dataset, URL: ep.URL, Attempts: attempt + 1, Err: err}
		}

		if ctx.Err() != nil || !retryable(err) || !ratelimit.ShouldRetry(attempt, cfg.MaxRetries) {
			metrics.FetchAttempts.WithLabelValues(ep.Dataset, "error").Inc()
			return &FetchError{
				Dataset:    ep.Dataset,
				URL:        ep.URL,
				StatusCode: statusCode(err),
				Attempts:   attempt + 1,
				Err:        err,
			}
		}

		metrics.FetchAttempts.WithLabelValues(ep.Dataset, "retry").Inc()
		wait := limiter.RetryAfter(attempt + 1)
		if hint := retryAfter(err); hint > wait {
			wait = min(hint, cfg.MaxBackoff)
		}
		logging.Ctx(ctx).Warn().
			Err(err).
			Int("attempt", attempt+1).
			Dur("retry_in", wait).
			Msg("Upstream request failed, retrying")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return &FetchError{Dataset: ep.Dataset, URL: ep.URL, Attempts: attempt + 1, Err: ctx.Err()}
		case <-timer.C:
		}
	}
}

func (f *Fetcher) get(ctx context.Context, url string, sink func(io.Reader) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &statusError{
			code:       resp.StatusCode,
			body:       string(bytes.TrimSpace(body)),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()),
		}
	}

	if err := sink(resp.Body); err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	return nil
}

func (f *Fetcher) limiter(dataset string, cfg ratelimit.Config) ratelimit.Limiter {
	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[dataset]
	if !ok {
		l = ratelimit.NewLimiter(cfg)
		f.limiters[dataset] = l
	}
	return l
}

func (f *Fetcher) breaker(dataset string) *gobreaker.CircuitBreaker[struct{}] {
	f.mu.Lock()
	defer f.mu.Unlock()

	cb, ok := f.breakers[dataset]
	if ok {
		return cb
	}

	metrics.CircuitBreakerState.WithLabelValues(dataset).Set(0)
	cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        dataset,
		MaxRequests: 1,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// A 4xx says the request is wrong, not that the upstream is down.
			return err == nil || clientFault(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("dataset", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	f.breakers[dataset] = cb
	return cb
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
