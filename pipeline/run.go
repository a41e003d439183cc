package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
)

// Pipeline composes fetch → parse → extract for a single request. It holds
// no per-invocation state; the only thing shared between invocations is the
// fetcher's rate limiter window.
type Pipeline struct {
	fetcher *Fetcher
}

func NewPipeline(cfg Config, limiter *RateLimiter) *Pipeline {
	return &Pipeline{fetcher: NewFetcher(cfg, limiter)}
}

// Run executes one fetch → parse → extract pass. It short-circuits on the
// first failing stage and tags the error with that stage; there are no
// partial results.
func (p *Pipeline) Run(ctx context.Context, req FetchRequest) ([]UserRecord, error) {
	res := p.fetcher.Fetch(ctx, req)
	if res.Err != nil {
		return nil, &PipelineError{Stage: StageFetch, Err: res.Err}
	}

	doc, err := ParseDocument(res.Body)
	if err != nil {
		return nil, &PipelineError{Stage: StageParse, Err: err}
	}

	records, err := ExtractRecords(doc)
	if err != nil {
		return nil, &PipelineError{Stage: StageExtract, Err: err}
	}

	return records, nil
}

// Run scrapes the given targets (or the configured default) concurrently,
// sharing one rate limiter across all of them, and writes extracted records
// to stdout as JSON lines.
func Run(targets []string) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg := LoadConfig()

	if cfg.APIKey == "" {
		slog.Error("SCRAPEOPS_API_KEY is required")
		os.Exit(1)
	}
	if len(targets) == 0 {
		targets = []string{cfg.TargetURL}
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	limiter := NewRateLimiter(cfg.RateCalls, cfg.RateWindow)
	pl := NewPipeline(cfg, limiter)

	out := json.NewEncoder(os.Stdout)
	var outMu sync.Mutex
	var failed atomic.Bool
	var wg sync.WaitGroup

	for _, target := range targets {
		wg.Add(1)
		go func(target string) {
			defer wg.Done()

			records, err := pl.Run(ctx, FetchRequest{
				TargetURL: target,
				APIKey:    cfg.APIKey,
				RenderJS:  cfg.RenderJS,
			})
			if err != nil {
				slog.Error("scrape failed", "target", target, "err", err)
				failed.Store(true)
				return
			}

			outMu.Lock()
			defer outMu.Unlock()
			for _, rec := range records {
				if err := out.Encode(rec); err != nil {
					slog.Error("write record", "target", target, "err", err)
					failed.Store(true)
					return
				}
			}
		}(target)
	}

	wg.Wait()

	slog.Info("scrape finished",
		"targets", len(targets),
		"attempts", PipelineStats.Attempts.Load(),
		"fetched", PipelineStats.Fetched.Load(),
		"fetch_errors", PipelineStats.FetchErrors.Load(),
		"records", PipelineStats.Extracted.Load(),
	)

	if failed.Load() {
		os.Exit(1)
	}
}
