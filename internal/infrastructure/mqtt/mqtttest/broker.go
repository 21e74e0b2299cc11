// Package mqtttest runs an in-process MQTT broker for tests.
//
// The broker is github.com/mochi-mqtt/server/v2 listening on a free loopback
// port, with an inline client so tests can publish and observe messages
// without a second network client.
package mqtttest

import (
	"bytes"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	mochi "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"
	"github.com/mochi-mqtt/server/v2/packets"
	"github.com/stretchr/testify/require"
)

// Broker is a running embedded broker.
type Broker struct {
	Server *mochi.Server

	// URL is the connection URI for clients, e.g. tcp://127.0.0.1:41234.
	URL string

	addr    string
	mu      sync.Mutex
	closed  bool
	nextSub int
	t       testing.TB
}

// FreeAddr returns a loopback address with a currently unused port.
func FreeAddr(t testing.TB) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

// Start runs a broker on a free port and stops it when the test ends.
func Start(t testing.TB) *Broker {
	t.Helper()
	return StartAt(t, FreeAddr(t))
}

// StartAt runs a broker on addr and stops it when the test ends.
// Restarting on the address of a closed Broker simulates a broker restart.
func StartAt(t testing.TB, addr string) *Broker {
	t.Helper()
	return start(t, addr, new(auth.AllowHook))
}

// StartWithHook runs a broker on a free port with hook as its only
// authentication and ACL hook.
func StartWithHook(t testing.TB, hook mochi.Hook) *Broker {
	t.Helper()
	return start(t, FreeAddr(t), hook)
}

func start(t testing.TB, addr string, hook mochi.Hook) *Broker {
	t.Helper()

	server := mochi.New(&mochi.Options{InlineClient: true})
	require.NoError(t, server.AddHook(hook, nil))

	tcp := listeners.NewTCP(listeners.Config{
		ID:      "test-" + addr,
		Address: addr,
	})
	require.NoError(t, server.AddListener(tcp))

	go func() {
		_ = server.Serve()
	}()

	b := &Broker{
		Server: server,
		URL:    "tcp://" + addr,
		addr:   addr,
		t:      t,
	}
	t.Cleanup(b.Close)

	// The listener is bound in AddListener; wait until it accepts.
	require.Eventually(t, func() bool {
		conn, err := net.DialTimeout("tcp", addr, 100*time.Millisecond)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 20*time.Millisecond)

	return b
}

// Addr returns the host:port the broker listens on.
func (b *Broker) Addr() string {
	return b.addr
}

// Close stops the broker. Safe to call more than once.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	_ = b.Server.Close()
}

// Publish sends payload on topic from the broker's inline client.
func (b *Broker) Publish(topic, payload string) {
	b.t.Helper()
	require.NoError(b.t, b.Server.Publish(topic, []byte(payload), false, 0))
}

// Recorder collects payloads delivered to an inline subscription.
type Recorder struct {
	mu       sync.Mutex
	payloads []string
}

// Payloads returns a copy of everything received so far, in arrival order.
func (r *Recorder) Payloads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.payloads...)
}

// Len returns the number of payloads received so far.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.payloads)
}

// Record subscribes the inline client to filter and returns a Recorder.
func (b *Broker) Record(filter string) *Recorder {
	b.t.Helper()

	b.mu.Lock()
	b.nextSub++
	id := b.nextSub
	b.mu.Unlock()

	rec := &Recorder{}
	err := b.Server.Subscribe(filter, id, func(_ *mochi.Client, _ packets.Subscription, pk packets.Packet) {
		rec.mu.Lock()
		rec.payloads = append(rec.payloads, string(pk.Payload))
		rec.mu.Unlock()
	})
	require.NoError(b.t, err, fmt.Sprintf("inline subscribe to %q", filter))
	return rec
}

// DenySubscribeHook lets every client connect and publish but refuses every
// subscription, so the broker answers SUBSCRIBE with a failure return code.
type DenySubscribeHook struct {
	mochi.HookBase
}

// ID returns the hook identifier.
func (h *DenySubscribeHook) ID() string {
	return "deny-subscribe"
}

// Provides reports the hook methods this hook implements.
func (h *DenySubscribeHook) Provides(b byte) bool {
	return bytes.Contains([]byte{
		mochi.OnConnectAuthenticate,
		mochi.OnACLCheck,
	}, []byte{b})
}

// OnConnectAuthenticate accepts every client.
func (h *DenySubscribeHook) OnConnectAuthenticate(_ *mochi.Client, _ packets.Packet) bool {
	return true
}

// OnACLCheck allows writes and refuses reads.
func (h *DenySubscribeHook) OnACLCheck(_ *mochi.Client, _ string, write bool) bool {
	return write
}
