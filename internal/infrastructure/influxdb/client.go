package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/nerrad567/sinus-publisher/internal/infrastructure/config"
)

const (
	pingTimeout = 10 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 * time.Second
)

// Recorder stores published samples in InfluxDB v2.
//
// Points are queued on the client's non-blocking write API and sent in
// batches, so RecordSample never holds up the publish loop. Write failures
// surface asynchronously through the callback set with SetOnError.
type Recorder struct {
	client influxdb2.Client
	writes api.WriteAPI

	// source tags every point with the publishing client's identity.
	source string

	mu      sync.RWMutex
	closed  bool
	onError func(err error)
}

// Open pings the server named in cfg and returns a Recorder writing to
// cfg.Org / cfg.Bucket. source becomes the "source" tag of every point,
// usually the MQTT client ID.
//
// Returns ErrDisabled when recording is switched off, or an error wrapping
// ErrConnectionFailed when the server cannot be reached.
func Open(ctx context.Context, cfg config.InfluxDBConfig, source string) (*Recorder, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, writeOptions(cfg))

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	healthy, err := client.Ping(pingCtx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrConnectionFailed, cfg.URL, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: %s not healthy", ErrConnectionFailed, cfg.URL)
	}

	r := &Recorder{
		client: client,
		writes: client.WriteAPI(cfg.Org, cfg.Bucket),
		source: source,
	}
	go r.forwardErrors(r.writes.Errors())

	return r, nil
}

// writeOptions maps the batching settings onto client options.
// Zero or negative values fall back to the defaults.
func writeOptions(cfg config.InfluxDBConfig) *influxdb2.Options {
	batch := defaultBatchSize
	if cfg.BatchSize > 0 {
		batch = cfg.BatchSize
	}
	flush := defaultFlushInterval
	if cfg.FlushInterval > 0 {
		flush = time.Duration(cfg.FlushInterval) * time.Second
	}

	// #nosec G115 -- both values are positive
	return influxdb2.DefaultOptions().
		SetBatchSize(uint(batch)).
		SetFlushInterval(uint(flush.Milliseconds()))
}

// forwardErrors hands async write errors to the current callback until the
// write API shuts down.
func (r *Recorder) forwardErrors(errs <-chan error) {
	for err := range errs {
		r.mu.RLock()
		callback := r.onError
		r.mu.RUnlock()

		if callback != nil {
			callback(err)
		}
	}
}

// SetOnError sets the callback for asynchronous write failures.
func (r *Recorder) SetOnError(callback func(err error)) {
	r.mu.Lock()
	r.onError = callback
	r.mu.Unlock()
}

// Close sends whatever is still queued and releases the client.
// Samples recorded afterwards are dropped. Safe to call more than once.
func (r *Recorder) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()

	r.writes.Flush()
	r.client.Close()

	return nil
}

func (r *Recorder) isClosed() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.closed
}
