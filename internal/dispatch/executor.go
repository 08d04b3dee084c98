package dispatch

import (
	"context"
	"sync"

	"github.com/arvos-app/arvos-fetch/internal/logger"
)

// Executor runs delivery callbacks on the context the receiver expects.
type Executor interface {
	Post(fn func())
}

// Inline runs callbacks directly on the worker goroutine, possibly several at once.
// It is an opt-in for receivers that are safe for concurrent use.
type Inline struct{}

func (Inline) Post(fn func()) { fn() }

// Serial runs callbacks on the worker goroutine one at a time, so a receiver never
// sees overlapping calls. It is the Dispatcher default; use Loop to pin delivery
// to a specific goroutine.
type Serial struct {
	mu  sync.Mutex
	log logger.Logger
}

func (s *Serial) Post(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	safeCall(logger.Ensure(s.log), fn)
}

// Loop is a serial executor. Post never blocks; queued callbacks run one at a time on
// whichever goroutine calls Run or Drain, in the order they were posted.
type Loop struct {
	mu     sync.Mutex
	queue  []func()
	notify chan struct{}
	log    logger.Logger
}

// NewLoop creates an empty loop.
func NewLoop(log logger.Logger) *Loop {
	return &Loop{
		notify: make(chan struct{}, 1),
		log:    logger.Ensure(log),
	}
}

// Post enqueues fn.
func (l *Loop) Post(fn func()) {
	if fn == nil {
		return
	}
	l.mu.Lock()
	l.queue = append(l.queue, fn)
	l.mu.Unlock()

	select {
	case l.notify <- struct{}{}:
	default:
	}
}

// Run executes callbacks on the calling goroutine until ctx is done.
// Callbacks still queued when ctx ends stay queued for a later Run or Drain.
func (l *Loop) Run(ctx context.Context) error {
	for {
		l.Drain()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.notify:
		}
	}
}

// Drain executes every callback queued at the time of the call and returns how many ran.
func (l *Loop) Drain() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.mu.Unlock()

	for _, fn := range batch {
		safeCall(l.log, fn)
	}
	return len(batch)
}

// Pending reports the number of queued callbacks.
func (l *Loop) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.queue)
}

func safeCall(log logger.Logger, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorObj("receiver callback panicked", "panic", r)
		}
	}()
	fn()
}
