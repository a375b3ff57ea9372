package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/desertthunder/hsrx/internal/shared"
)

// DefaultInterval is the timer flush period of a [Batcher].
const DefaultInterval = 15 * time.Second

// BatcherOpts configures a [Batcher].
type BatcherOpts struct {
	Interval time.Duration
	// OnClose runs before the final flush, so points it writes are included.
	OnClose func()
	Logger  *log.Logger
}

// Batcher buffers points and flushes them to a [Sink].
//
// The timer starts with the first write. Whichever flush takes the buffer
// first owns its contents.
type Batcher struct {
	sink     Sink
	interval time.Duration
	onClose  func()
	logger   *log.Logger

	mu      sync.Mutex
	points  []Point
	started bool
	closing bool
	closed  bool
	stop    chan struct{}
	wg      sync.WaitGroup
}

// NewBatcher creates a [Batcher] over sink.
func NewBatcher(sink Sink, opts BatcherOpts) *Batcher {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	return &Batcher{
		sink:     sink,
		interval: opts.Interval,
		onClose:  opts.OnClose,
		logger:   opts.Logger,
		stop:     make(chan struct{}),
	}
}

// WritePoint buffers one point.
func (b *Batcher) WritePoint(series string, values map[string]any, tags map[string]string) {
	b.WritePoints([]Point{{Series: series, Values: values, Tags: tags}})
}

// WritePoints buffers points. Writes after Close are dropped.
func (b *Batcher) WritePoints(points []Point) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		b.logger.Debug("dropping points written after close", "count", len(points))
		return
	}
	b.points = append(b.points, points...)
	b.startLocked()
}

func (b *Batcher) startLocked() {
	if b.started {
		return
	}
	b.started = true
	b.wg.Add(1)
	go b.loop()
}

func (b *Batcher) loop() {
	defer b.wg.Done()
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.Flush(context.Background(), Deferred); err != nil {
				b.logger.Warn("metrics flush failed", "error", err)
			}
		case <-b.stop:
			return
		}
	}
}

// Pending is the number of buffered points.
func (b *Batcher) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.points)
}

// Flush swaps out the buffer and writes it to the sink.
func (b *Batcher) Flush(ctx context.Context, mode FlushMode) error {
	b.mu.Lock()
	points := b.points
	b.points = nil
	b.mu.Unlock()

	if len(points) == 0 {
		return nil
	}
	return b.sink.WritePoints(ctx, points, mode)
}

// Close runs the OnClose hook, stops the timer and flushes what remains in
// [Immediate] mode. Later calls do nothing.
func (b *Batcher) Close(ctx context.Context) error {
	b.mu.Lock()
	if b.closing {
		b.mu.Unlock()
		return nil
	}
	b.closing = true
	b.mu.Unlock()

	if b.onClose != nil {
		b.onClose()
	}

	b.mu.Lock()
	b.closed = true
	started := b.started
	b.mu.Unlock()

	if started {
		close(b.stop)
		b.wg.Wait()
	}

	return b.Flush(ctx, Immediate)
}
