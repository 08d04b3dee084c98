package dispatch

import (
	"context"
	"fmt"
	"image"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/arvos-app/arvos-fetch/internal/domain"
	"github.com/arvos-app/arvos-fetch/internal/logger"
)

const defaultPoolSize = 4

// Fetcher performs the blocking fetch work on a worker goroutine.
type Fetcher interface {
	FetchText(ctx context.Context, url string) domain.Outcome[string]
	FetchImage(ctx context.Context, url string) domain.Outcome[image.Image]
}

// Options configures a Dispatcher.
type Options struct {
	// PoolSize bounds how many fetches run at once.
	PoolSize int
	// Executor receives the delivery callbacks. The default is a Serial executor;
	// pass a Loop to deliver on the caller's goroutine, or Inline only for receivers
	// that are safe for concurrent use.
	Executor Executor
	Log      logger.Logger
}

// Dispatcher runs fetches off the caller's goroutine and delivers each outcome exactly once.
// There is no cancellation: a submitted fetch always completes and is delivered.
type Dispatcher struct {
	fetcher Fetcher
	sem     *semaphore.Weighted
	exec    Executor
	log     logger.Logger
	wg      sync.WaitGroup
}

// New builds a Dispatcher around f.
func New(f Fetcher, opts Options) *Dispatcher {
	size := opts.PoolSize
	if size <= 0 {
		size = defaultPoolSize
	}
	exec := opts.Executor
	if exec == nil {
		exec = &Serial{log: opts.Log}
	}
	return &Dispatcher{
		fetcher: f,
		sem:     semaphore.NewWeighted(int64(size)),
		exec:    exec,
		log:     logger.Ensure(opts.Log),
	}
}

// FetchText schedules a text fetch for url.
func (d *Dispatcher) FetchText(url string, r Receiver) { d.Submit(Text, url, r) }

// FetchImage schedules an image fetch for url.
func (d *Dispatcher) FetchImage(url string, r Receiver) { d.Submit(Image, url, r) }

// Submit schedules a fetch and returns immediately.
func (d *Dispatcher) Submit(res Resource, url string, r Receiver) {
	if r == nil {
		r = ReceiverFunc(func(string, string, string, image.Image) {})
	}
	d.wg.Add(1)
	go d.run(res, url, r)
}

// Wait blocks until every submitted fetch has been handed to the executor.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) run(res Resource, url string, r Receiver) {
	defer d.wg.Done()

	ctx := context.Background()
	// Acquire only fails on a done context.
	_ = d.sem.Acquire(ctx, 1)
	result := d.execute(ctx, res, url)
	d.sem.Release(1)

	d.exec.Post(func() { deliver(r, result) })
}

// execute runs the fetch, converting a panic into an exception outcome.
func (d *Dispatcher) execute(ctx context.Context, res Resource, url string) (result Result) {
	defer func() {
		if p := recover(); p != nil {
			d.log.ErrorObj("fetch panicked", "fetch_panic", map[string]any{
				"url":      url,
				"resource": res.String(),
				"panic":    fmt.Sprint(p),
			})
			result = failureResult(url, res, domain.Exception(fmt.Errorf("%v", p)))
		}
	}()

	switch res {
	case Text:
		return textResult(url, d.fetcher.FetchText(ctx, url))
	case Image:
		return imageResult(url, d.fetcher.FetchImage(ctx, url))
	default:
		return failureResult(url, res, domain.Exception(fmt.Errorf("unsupported resource %d", int(res))))
	}
}
