package alerting

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/iho/gowallet/internal/domain"
)

var (
	// ErrDispatcherClosed is returned by Close when called twice.
	ErrDispatcherClosed = errors.New("alert dispatcher closed")
	// ErrSinkUnavailable is returned when the circuit breaker rejects a delivery.
	ErrSinkUnavailable = errors.New("alert sink unavailable")
)

// Sink delivers a single fraud alert to an external system.
type Sink interface {
	Deliver(ctx context.Context, alert domain.FraudAlert) error
}

// Recorder receives dispatcher statistics.
type Recorder interface {
	AlertEnqueued()
	AlertDropped()
	AlertDelivered()
	AlertFailed()
	QueueDepth(n int)
	BreakerStateChanged(name string, state int)
}

// NopRecorder discards all statistics.
type NopRecorder struct{}

func (NopRecorder) AlertEnqueued()                  {}
func (NopRecorder) AlertDropped()                   {}
func (NopRecorder) AlertDelivered()                 {}
func (NopRecorder) AlertFailed()                    {}
func (NopRecorder) QueueDepth(int)                  {}
func (NopRecorder) BreakerStateChanged(string, int) {}

// Config for Dispatcher.
type Config struct {
	QueueSize       int           // Bounded queue size
	Workers         int           // Number of delivery workers
	DeliveryTimeout time.Duration // Per-alert sink timeout
	// BreakerFailures is the number of consecutive sink failures that opens
	// the circuit.
	BreakerFailures uint32
	BreakerTimeout  time.Duration // How long the circuit stays open
	Logger          zerolog.Logger
	Recorder        Recorder
}

// Stats is a point-in-time view of the dispatcher.
type Stats struct {
	QueueDepth int
	Enqueued   int64
	Dropped    int64
	Delivered  int64
	Failed     int64
}

// Dispatcher delivers fraud alerts asynchronously through a bounded queue.
// Dispatch never blocks: when the queue is full the alert is dropped.
type Dispatcher struct {
	sink     Sink
	queue    chan domain.FraudAlert
	cb       *gobreaker.CircuitBreaker
	timeout  time.Duration
	logger   zerolog.Logger
	recorder Recorder

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	enqueued  atomic.Int64
	dropped   atomic.Int64
	delivered atomic.Int64
	failed    atomic.Int64
}

// NewDispatcher creates a dispatcher and starts its workers. It must be
// closed with Close.
func NewDispatcher(sink Sink, cfg Config) *Dispatcher {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.DeliveryTimeout <= 0 {
		cfg.DeliveryTimeout = 5 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}
	if cfg.Recorder == nil {
		cfg.Recorder = NopRecorder{}
	}

	d := &Dispatcher{
		sink:     sink,
		queue:    make(chan domain.FraudAlert, cfg.QueueSize),
		timeout:  cfg.DeliveryTimeout,
		logger:   cfg.Logger.With().Str("component", "alert_dispatcher").Logger(),
		recorder: cfg.Recorder,
	}

	failures := cfg.BreakerFailures
	d.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "alert_sink",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			d.logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
			d.recorder.BreakerStateChanged(name, breakerState(to))
		},
	})

	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}

	return d
}

// Dispatch enqueues an alert without blocking.
func (d *Dispatcher) Dispatch(alert domain.FraudAlert) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.drop(alert, "dispatcher closed")
		return
	}

	select {
	case d.queue <- alert:
		d.enqueued.Add(1)
		d.recorder.AlertEnqueued()
		d.recorder.QueueDepth(len(d.queue))
	default:
		d.drop(alert, "alert queue full")
	}
}

func (d *Dispatcher) drop(alert domain.FraudAlert, reason string) {
	d.dropped.Add(1)
	d.recorder.AlertDropped()

	evt := d.logger.Error().Str("user_id", alert.UserID).Strs("reasons", alert.Reasons)
	if alert.Transaction != nil {
		evt = evt.Str("transaction_id", alert.Transaction.ID())
	}
	evt.Msg(reason)
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()

	for alert := range d.queue {
		d.recorder.QueueDepth(len(d.queue))
		d.deliver(alert)
	}
}

func (d *Dispatcher) deliver(alert domain.FraudAlert) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	_, err := d.cb.Execute(func() (interface{}, error) {
		return nil, d.sink.Deliver(ctx, alert)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = ErrSinkUnavailable
	}

	if err != nil {
		d.failed.Add(1)
		d.recorder.AlertFailed()
		d.logger.Error().
			Err(err).
			Str("user_id", alert.UserID).
			Strs("reasons", alert.Reasons).
			Msg("failed to deliver fraud alert")
		return
	}

	d.delivered.Add(1)
	d.recorder.AlertDelivered()
}

// Close stops accepting alerts and waits for queued alerts to be delivered
// or for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrDispatcherClosed
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info().Int64("delivered", d.delivered.Load()).Msg("alert dispatcher drained")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns current dispatcher statistics.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		QueueDepth: len(d.queue),
		Enqueued:   d.enqueued.Load(),
		Dropped:    d.dropped.Load(),
		Delivered:  d.delivered.Load(),
		Failed:     d.failed.Load(),
	}
}

func breakerState(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
