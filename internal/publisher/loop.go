package publisher

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/nerrad567/sinus-publisher/internal/waveform"
)

// DefaultInterval is the pause between two samples.
const DefaultInterval = time.Second

// LoopState is the state of the publish loop.
type LoopState int32

const (
	// LoopIdle means Run has not been called yet.
	LoopIdle LoopState = iota
	// LoopRunning means Run is publishing samples.
	LoopRunning
	// LoopStopped is terminal: Run has returned.
	LoopStopped
)

// String returns the lower-case state name used in log output.
func (s LoopState) String() string {
	switch s {
	case LoopRunning:
		return "running"
	case LoopStopped:
		return "stopped"
	default:
		return "idle"
	}
}

// Publisher sends one payload to a topic. *mqtt.Session satisfies it.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// HealthChecker is implemented by publishers that can report whether their
// link is up. *mqtt.Session satisfies it.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Recorder receives every sample that was published successfully.
// *influxdb.Recorder satisfies it.
type Recorder interface {
	RecordSample(topic string, counter, value float64)
}

// LoopOptions configures a Loop.
type LoopOptions struct {
	// Topic is where samples are published.
	Topic string

	// Interval between samples; DefaultInterval when zero.
	Interval time.Duration

	// Step is the counter increment; waveform.Step when zero.
	Step float64

	// Recorder is optional.
	Recorder Recorder

	Logger Logger
}

// Stats is a snapshot of loop progress.
type Stats struct {
	Published uint64
	Failed    uint64
	Counter   float64
}

// Loop publishes waveform samples until shutdown.
type Loop struct {
	pub      Publisher
	shutdown *Shutdown
	topic    string
	interval time.Duration
	step     float64
	recorder Recorder
	logger   Logger

	state       atomic.Int32
	published   atomic.Uint64
	failed      atomic.Uint64
	counterBits atomic.Uint64
}

// NewLoop returns a Loop publishing through pub until shutdown is requested.
func NewLoop(pub Publisher, shutdown *Shutdown, opts LoopOptions) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Step == 0 {
		opts.Step = waveform.Step
	}

	return &Loop{
		pub:      pub,
		shutdown: shutdown,
		topic:    opts.Topic,
		interval: opts.Interval,
		step:     opts.Step,
		recorder: opts.Recorder,
		logger:   orNop(opts.Logger),
	}
}

// Run publishes one sample per interval until shutdown is requested or ctx is
// cancelled, then returns nil. Both are treated as a cooperative stop.
//
// Each iteration checks for shutdown, publishes sin(counter), advances the
// counter and waits. A failed publish is logged and counted; the counter still
// advances so the next sample goes out on schedule. The wait ends early when
// shutdown is requested, so at most one sample follows a stop command.
func (l *Loop) Run(ctx context.Context) error {
	if l.pub == nil {
		return ErrNoPublisher
	}

	l.state.Store(int32(LoopRunning))
	defer l.state.Store(int32(LoopStopped))

	l.logger.Info("publish loop started", "topic", l.topic, "interval", l.interval)

	timer := time.NewTimer(l.interval)
	timer.Stop()
	defer timer.Stop()

	counter := 0.0
	for {
		if l.shutdown.Requested() {
			l.logger.Info("publish loop stopped", "reason", "stop command", "published", l.published.Load())
			return nil
		}
		if ctx.Err() != nil {
			l.logger.Info("publish loop stopped", "reason", "signal", "published", l.published.Load())
			return nil
		}

		l.publish(ctx, counter)

		counter += l.step
		l.counterBits.Store(math.Float64bits(counter))

		timer.Reset(l.interval)
		select {
		case <-timer.C:
		case <-l.shutdown.Done():
			timer.Stop()
		case <-ctx.Done():
			timer.Stop()
		}
	}
}

// publish sends the sample for counter and records it on success.
func (l *Loop) publish(ctx context.Context, counter float64) {
	value := waveform.Value(counter)
	payload := waveform.Format(value)

	if err := l.pub.Publish(l.topic, []byte(payload)); err != nil {
		l.failed.Add(1)
		l.logger.Warn("publish failed",
			"topic", l.topic,
			"payload", payload,
			"link", l.linkState(ctx),
			"error", err,
		)
		return
	}

	l.published.Add(1)
	l.logger.Info("published sample", "topic", l.topic, "payload", payload)

	if l.recorder != nil {
		l.recorder.RecordSample(l.topic, counter, value)
	}
}

// linkState classifies a failed publish: "down" while the publisher is
// reconnecting, "up" for a failure on a live link, "unknown" when the
// publisher cannot tell.
func (l *Loop) linkState(ctx context.Context) string {
	hc, ok := l.pub.(HealthChecker)
	if !ok {
		return "unknown"
	}
	if err := hc.HealthCheck(ctx); err != nil {
		return "down"
	}
	return "up"
}

// State returns the current loop state.
func (l *Loop) State() LoopState {
	return LoopState(l.state.Load())
}

// Stats returns a snapshot of loop progress. Safe to call from any goroutine.
func (l *Loop) Stats() Stats {
	return Stats{
		Published: l.published.Load(),
		Failed:    l.failed.Load(),
		Counter:   math.Float64frombits(l.counterBits.Load()),
	}
}
