package app

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/arvos-app/arvos-fetch/internal/cache"
	"github.com/arvos-app/arvos-fetch/internal/config"
	"github.com/arvos-app/arvos-fetch/internal/dispatch"
	"github.com/arvos-app/arvos-fetch/internal/domain"
	"github.com/arvos-app/arvos-fetch/internal/fetch"
	"github.com/arvos-app/arvos-fetch/internal/fixtures"
	"github.com/arvos-app/arvos-fetch/internal/logger"
	"github.com/arvos-app/arvos-fetch/pkg/httpclient"
	"github.com/arvos-app/arvos-fetch/pkg/publishers"
)

// Runtime wires the fetcher, its image cache, the dispatcher and the optional
// outcome publishers from configuration. Fetch delivers results on the caller's goroutine.
type Runtime struct {
	cfg        *config.Config
	session    domain.Session
	cache      cache.Cache
	fetcher    *fetch.Fetcher
	loop       *dispatch.Loop
	dispatcher *dispatch.Dispatcher
	fanout     *publishers.Fanout
	log        logger.Logger
}

// NewRuntime builds a runtime from config. Publishers are only created when a
// publishers file is configured; fixtures only when simulate_web is on.
func NewRuntime(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	var fixtureSource fetch.FixtureSource
	if cfg.SimulateWeb {
		resolver, err := fixtures.Load(cfg.FixturesDir, cfg.FixturesFile)
		if err != nil {
			return nil, fmt.Errorf("load fixtures: %w", err)
		}
		fixtureSource = resolver
		log.InfoObj("simulated web enabled", "fixtures_meta", map[string]any{
			"dir":     cfg.FixturesDir,
			"table":   cfg.FixturesFile,
			"entries": len(resolver.Entries()),
		})
	}

	fanout, err := buildFanout(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	imgCache, err := cache.New(cfg.CacheType, cfg.BBoltPath, cache.Options{
		TTL:             cfg.CacheTTL,
		CleanupInterval: cfg.CacheCleanup,
		Capacity:        cfg.CacheCapacity,
	})
	if err != nil {
		return nil, errors.Join(fmt.Errorf("init cache: %w", err), fanout.Close())
	}
	log.InfoObj("image cache initialized", "cache_config", map[string]any{
		"type":                     cfg.CacheType,
		"path":                     cfg.BBoltPath,
		"capacity":                 cfg.CacheCapacity,
		"ttl_seconds":              int(cfg.CacheTTL.Seconds()),
		"cleanup_interval_seconds": int(cfg.CacheCleanup.Seconds()),
	})

	session := cfg.Session()
	fetcher := fetch.New(session, fetch.Deps{
		Client:   httpclient.NewRestyClient(cfg.HTTPTimeout),
		Cache:    imgCache,
		Fixtures: fixtureSource,
		Log:      log,
	})
	loop := dispatch.NewLoop(log)

	return &Runtime{
		cfg:     cfg,
		session: session,
		cache:   imgCache,
		fetcher: fetcher,
		loop:    loop,
		dispatcher: dispatch.New(fetcher, dispatch.Options{
			PoolSize: cfg.PoolSize,
			Executor: loop,
			Log:      log,
		}),
		fanout: fanout,
		log:    log,
	}, nil
}

func buildFanout(ctx context.Context, cfg *config.Config, log logger.Logger) (*publishers.Fanout, error) {
	if cfg.PublishersFile == "" {
		return publishers.NewFanout(nil), nil
	}

	publisherReg, err := publishers.LoadRegistry(cfg.PublishersFile)
	if err != nil {
		return nil, fmt.Errorf("load publishers registry: %w", err)
	}
	enabled := publisherReg.Enabled()
	pubClients, err := publishers.BuildAll(ctx, publishers.DefaultRegistry(), enabled, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(enabled))
	for _, pubCfg := range enabled {
		summaries = append(summaries, map[string]string{
			"id":   pubCfg.ID,
			"type": pubCfg.Type,
		})
	}
	log.InfoObj("publishers registry loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubClients), nil
}

// Session returns the session requests are decorated with.
func (r *Runtime) Session() domain.Session { return r.session }

// BuildURL returns the request URL a text fetch of raw would use.
func (r *Runtime) BuildURL(raw string) string { return fetch.BuildURL(raw, r.session) }

// Fetch submits every URL and runs the delivery loop on the calling goroutine until
// each one has been delivered. Results keep the order of urls. When ctx ends first,
// a snapshot of the results delivered so far is returned along with ctx.Err(); the
// remaining outcomes are still logged and published when they arrive, but never
// written into the returned slice.
// Fetch shares one delivery loop, so calls must not overlap.
func (r *Runtime) Fetch(ctx context.Context, res dispatch.Resource, urls []string) ([]dispatch.Result, error) {
	if r == nil || r.dispatcher == nil {
		return nil, fmt.Errorf("runtime is not initialized")
	}
	if len(urls) == 0 {
		return nil, nil
	}

	start := time.Now()
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	b := newBatch(len(urls), cancel)
	// Late deliveries publish after ctx has ended.
	reportCtx := context.WithoutCancel(ctx)
	for i, url := range urls {
		r.dispatcher.Submit(res, url, resultSink(func(out dispatch.Result) {
			b.store(i, out)
			r.report(reportCtx, out)
		}))
	}

	if err := r.loop.Run(runCtx); err != nil && ctx.Err() != nil {
		return b.close(), ctx.Err()
	}
	results := b.close()

	failed := 0
	for _, out := range results {
		if !out.OK() {
			failed++
		}
	}
	r.log.InfoObj("fetch batch completed", "batch_meta", map[string]any{
		"resource":   res.String(),
		"count":      len(urls),
		"failed":     failed,
		"elapsed_ms": time.Since(start).Milliseconds(),
	})
	return results, nil
}

// batch collects the results of one Fetch call. Once closed it ignores stores.
type batch struct {
	mu        sync.Mutex
	results   []dispatch.Result
	remaining int
	closed    bool
	done      context.CancelFunc
}

func newBatch(n int, done context.CancelFunc) *batch {
	return &batch{results: make([]dispatch.Result, n), remaining: n, done: done}
}

func (b *batch) store(i int, out dispatch.Result) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.results[i] = out
	if b.remaining--; b.remaining == 0 {
		b.done()
	}
}

// close stops further stores and returns a copy owned by the caller.
func (b *batch) close() []dispatch.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	out := make([]dispatch.Result, len(b.results))
	copy(out, b.results)
	return out
}

// report logs a delivered outcome and publishes it to every configured sink.
// Publish failures are logged and never change the outcome.
func (r *Runtime) report(ctx context.Context, out dispatch.Result) {
	kind := ""
	if !out.OK() {
		kind = out.ErrKind.String()
	}
	r.log.InfoObj("fetch delivered", "fetch_result", map[string]any{
		"url":      out.URL,
		"resource": out.Resource.String(),
		"status":   out.Status,
		"kind":     kind,
	})

	if r.fanout.Size() == 0 {
		return
	}
	evt := publishers.NewEvent(r.session.SessionID, out.URL, out.Resource.String(), out.Status, kind, out.Payload, out.Image)
	if _, err := r.fanout.Publish(ctx, evt); err != nil {
		r.log.WarnObj("publishing fetch outcome failed", "publish_error", map[string]any{
			"url":   out.URL,
			"error": err.Error(),
		})
	}
}

// Close waits for in-flight fetches, delivers anything still queued, then releases
// publishers and the cache.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	r.dispatcher.Wait()
	r.loop.Drain()

	var errs []error
	if err := r.fanout.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := r.cache.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close cache: %w", err))
	}
	return errors.Join(errs...)
}

// resultSink adapts a function to both receiver interfaces.
type resultSink func(dispatch.Result)

func (f resultSink) OnFetchResult(res dispatch.Result) { f(res) }

func (f resultSink) OnResult(url, status, payload string, img image.Image) {
	f(dispatch.Result{URL: url, Status: status, Payload: payload, Image: img})
}
