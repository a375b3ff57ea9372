package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/valyala/fasthttp"

	"github.com/desertthunder/hsrx/internal/shared"
)

// FlushMode selects how a batch is delivered.
type FlushMode int

const (
	// Deferred queues the batch for a background sender.
	Deferred FlushMode = iota
	// Immediate writes the batch before returning.
	Immediate
)

func (m FlushMode) String() string {
	if m == Immediate {
		return "immediate"
	}
	return "deferred"
}

// Sink delivers batches of points.
type Sink interface {
	WritePoints(ctx context.Context, points []Point, mode FlushMode) error
}

// InfluxSink posts line-protocol batches to an InfluxDB write endpoint.
type InfluxSink struct {
	endpoint string
	client   *fasthttp.Client
	logger   *log.Logger
	timeout  time.Duration

	queue chan []byte
	wg    sync.WaitGroup
	once  sync.Once
	mu    sync.RWMutex
	done  bool
}

// NewInfluxSink creates a sink for endpoint and starts its background sender.
func NewInfluxSink(endpoint string, logger *log.Logger) *InfluxSink {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	s := &InfluxSink{
		endpoint: endpoint,
		client: &fasthttp.Client{
			MaxConnsPerHost:     4,
			ReadTimeout:         10 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: time.Minute,
		},
		logger:  logger,
		timeout: 10 * time.Second,
		queue:   make(chan []byte, 16),
	}

	s.wg.Add(1)
	go s.run()
	return s
}

func (s *InfluxSink) run() {
	defer s.wg.Done()
	for body := range s.queue {
		if err := s.post(context.Background(), body); err != nil {
			s.logger.Warn("failed to deliver metrics batch", "error", err)
		}
	}
}

// WritePoints encodes points into one body and delivers it according to mode.
// A batch with nothing to encode is a no-op.
func (s *InfluxSink) WritePoints(ctx context.Context, points []Point, mode FlushMode) error {
	body := Encode(points)
	if len(body) == 0 {
		return nil
	}

	if mode == Deferred && s.enqueue(body) {
		return nil
	}
	return s.post(ctx, body)
}

// enqueue hands body to the background sender without blocking.
func (s *InfluxSink) enqueue(body []byte) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.done {
		return false
	}
	select {
	case s.queue <- body:
		return true
	default:
		return false
	}
}

func (s *InfluxSink) post(ctx context.Context, body []byte) error {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(s.endpoint)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("text/plain")
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(s.timeout)
	}
	if err := s.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if code := resp.StatusCode(); code < 200 || code >= 300 {
		return fmt.Errorf("%w: metrics endpoint returned %d", shared.ErrAPIRequest, code)
	}
	return nil
}

// Close stops the background sender after it drains queued batches.
func (s *InfluxSink) Close() error {
	s.once.Do(func() {
		s.mu.Lock()
		s.done = true
		close(s.queue)
		s.mu.Unlock()
		s.wg.Wait()
	})
	return nil
}
