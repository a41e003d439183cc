package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// Fetcher issues rate-limited GETs through the rendering proxy, retrying
// transient failures up to the configured budget. Status-level errors are
// deterministic and surface immediately.
type Fetcher struct {
	client     *resty.Client
	limiter    *RateLimiter
	retryTimes int
	retryWait  time.Duration
}

func NewFetcher(cfg Config, limiter *RateLimiter) *Fetcher {
	client := resty.New()
	client.SetBaseURL(cfg.ProxyURL)
	client.SetTimeout(cfg.FetchTimeout)
	client.SetHeader("User-Agent", "kicklens-scraper/1.0")

	return &Fetcher{
		client:     client,
		limiter:    limiter,
		retryTimes: cfg.RetryTimes,
		retryWait:  cfg.RetryWait,
	}
}

func (f *Fetcher) Fetch(ctx context.Context, req FetchRequest) FetchResult {
	var lastErr *FetchError

	for attempt := 1; attempt <= f.retryTimes; attempt++ {
		if err := f.limiter.Acquire(ctx); err != nil {
			return FetchResult{Request: req, Attempts: attempt - 1, Err: fmt.Errorf("rate limit wait: %w", err)}
		}
		PipelineStats.Attempts.Add(1)

		params := map[string]string{
			"api_key": req.APIKey,
			"url":     req.TargetURL,
		}
		if req.RenderJS {
			params["render_js"] = "true"
		}

		resp, err := f.client.R().SetContext(ctx).SetQueryParams(params).Get("")
		if err != nil {
			if ctx.Err() != nil {
				return FetchResult{Request: req, Attempts: attempt, Err: fmt.Errorf("attempt %d interrupted: %w", attempt, ctx.Err())}
			}
			kind := FetchConnectionFailure
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				kind = FetchTimeout
			}
			lastErr = &FetchError{Kind: kind, Attempts: attempt, Err: err}
		} else {
			code := resp.StatusCode()
			body := resp.Body()
			switch {
			case code == http.StatusTooManyRequests:
				slog.Warn("fetch attempt throttled by upstream", "attempt", attempt, "status", code)
				PipelineStats.FetchErrors.Add(1)
				return FetchResult{Request: req, Attempts: attempt, Err: &FetchError{Kind: FetchRateLimited, StatusCode: code, Attempts: attempt}}
			case code >= 300:
				slog.Warn("fetch attempt rejected", "attempt", attempt, "status", code)
				PipelineStats.FetchErrors.Add(1)
				return FetchResult{Request: req, Attempts: attempt, Err: &FetchError{Kind: FetchHTTPStatus, StatusCode: code, Attempts: attempt}}
			case len(body) > 0:
				slog.Info("fetch attempt succeeded", "attempt", attempt, "status", code, "bytes", len(body))
				PipelineStats.Fetched.Add(1)
				return FetchResult{Request: req, Body: body, Attempts: attempt}
			default:
				// 2xx with no body: treat as a truncated response and retry.
				lastErr = &FetchError{Kind: FetchConnectionFailure, Attempts: attempt, Err: fmt.Errorf("empty body (HTTP %d)", code)}
			}
		}

		slog.Warn("fetch attempt failed", "attempt", attempt, "kind", string(lastErr.Kind), "err", lastErr.Err)

		if attempt < f.retryTimes {
			if err := sleepCtx(ctx, f.retryWait); err != nil {
				return FetchResult{Request: req, Attempts: attempt, Err: fmt.Errorf("retry wait interrupted: %w", err)}
			}
		}
	}

	PipelineStats.FetchErrors.Add(1)
	return FetchResult{
		Request:  req,
		Attempts: f.retryTimes,
		Err:      &FetchError{Kind: FetchExhausted, Attempts: f.retryTimes, Err: lastErr},
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
