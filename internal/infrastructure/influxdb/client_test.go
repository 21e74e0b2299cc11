package influxdb

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/sinus-publisher/internal/infrastructure/config"
)

// fakeInflux answers /ping and records line protocol posted to /api/v2/write.
type fakeInflux struct {
	mu     sync.Mutex
	writes []string
	status int
}

func (f *fakeInflux) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/ping"):
		w.WriteHeader(http.StatusNoContent)
	case strings.HasSuffix(r.URL.Path, "/api/v2/write"):
		body, _ := io.ReadAll(r.Body)
		f.mu.Lock()
		f.writes = append(f.writes, string(body))
		status := f.status
		f.mu.Unlock()
		if status == 0 {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.writes, "\n")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "sinus",
		Bucket:        "samples",
		BatchSize:     10,
		FlushInterval: 1,
	}
}

func openFake(t *testing.T) (*Recorder, *fakeInflux) {
	t.Helper()
	fake := &fakeInflux{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	recorder, err := Open(context.Background(), testConfig(server.URL), "sinus-test")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = recorder.Close() })
	return recorder, fake
}

func TestOpen_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:1")
	cfg.Enabled = false

	_, err := Open(context.Background(), cfg, "sinus-test")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Open() error = %v, want ErrDisabled", err)
	}
}

func TestOpen_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err := Open(ctx, testConfig(url), "sinus-test")
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Open() error = %v, want ErrConnectionFailed", err)
	}
}

func TestWriteOptions(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.InfluxDBConfig
		wantBatch uint
		wantFlush uint
	}{
		{name: "configured", cfg: config.InfluxDBConfig{BatchSize: 5, FlushInterval: 2}, wantBatch: 5, wantFlush: 2000},
		{name: "defaults", cfg: config.InfluxDBConfig{}, wantBatch: 100, wantFlush: 10000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := writeOptions(tt.cfg)
			if got := opts.BatchSize(); got != tt.wantBatch {
				t.Errorf("BatchSize() = %d, want %d", got, tt.wantBatch)
			}
			if got := opts.FlushInterval(); got != tt.wantFlush {
				t.Errorf("FlushInterval() = %d, want %d", got, tt.wantFlush)
			}
		})
	}
}

func TestRecordSample(t *testing.T) {
	recorder, fake := openFake(t)

	recorder.record("sensoren/java1", 0.1, 0.0998334, time.Unix(1700000000, 0))

	// Close flushes the queued point
	if err := recorder.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for fake.body() == "" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	body := fake.body()
	for _, want := range []string{"waveform,", "source=sinus-test", "topic=sensoren/java1", "counter=0.1", "value=0.0998334", "1700000000000000000"} {
		if !strings.Contains(body, want) {
			t.Errorf("line protocol %q missing %q", body, want)
		}
	}
}

func TestWriteErrorCallback(t *testing.T) {
	recorder, fake := openFake(t)
	fake.mu.Lock()
	fake.status = http.StatusBadRequest
	fake.mu.Unlock()

	errCh := make(chan error, 1)
	recorder.SetOnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	// Delivered by the one-second flush interval
	recorder.RecordSample("sensoren/java1", 0, 0)

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("error callback received nil")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("error callback not invoked")
	}
}

func TestClose(t *testing.T) {
	recorder, fake := openFake(t)

	if err := recorder.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := recorder.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	recorder.RecordSample("sensoren/java1", 0, 0)
	if strings.Contains(fake.body(), "waveform") {
		t.Error("sample written after Close()")
	}
}
