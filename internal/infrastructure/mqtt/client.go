package mqtt

import (
	"context"
	"fmt"
	"sync"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/sinus-publisher/internal/infrastructure/config"
)

// State is the connection state of a Session.
type State int

const (
	// StateDisconnected covers both "never connected" and "link lost, reconnecting".
	StateDisconnected State = iota
	// StateConnected means the broker has acknowledged the connection.
	StateConnected
)

// String returns the lower-case state name used in log output.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Session wraps paho.mqtt.golang with the broker session lifecycle the
// publisher needs: connect, subscribe, publish at QoS 0 and disconnect.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
//   - Subscriptions are restored on reconnection, since the session is clean
//     and the broker forgets them whenever the link drops.
type Session struct {
	client  pahomqtt.Client
	options *pahomqtt.ClientOptions
	cfg     config.MQTTConfig

	// subscriptions tracks active subscriptions for re-subscription on reconnect.
	subscriptions map[string]MessageHandler
	subMu         sync.RWMutex

	// connected tracks current connection state; closed is set once by Disconnect.
	connected bool
	closed    bool
	connMu    sync.RWMutex

	onConnect    func()
	onDisconnect func(err error)
	callbackMu   sync.RWMutex

	logger   Logger
	loggerMu sync.RWMutex
}

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// MessageHandler is the callback signature for received messages.
//
// Handlers run on paho's delivery goroutine, concurrently with whatever the
// caller of Subscribe does next. They should return quickly.
//
// A returned error is logged; it has no effect on delivery.
type MessageHandler func(topic string, payload []byte) error

// Connect establishes a session with the broker named in cfg.Broker.
//
// It performs the following setup:
//  1. Builds connection options (clean session, auto-reconnect, connect timeout)
//  2. Registers connect / connection-lost callbacks
//  3. Attempts the initial connection, waiting at most the connect timeout
//
// Returns:
//   - *Session: Connected session ready for use
//   - error: wraps ErrConnectionFailed if the broker cannot be reached in time
func Connect(cfg config.MQTTConfig) (*Session, error) {
	opts := buildClientOptions(cfg)

	s := &Session{
		cfg:           cfg,
		options:       opts,
		subscriptions: make(map[string]MessageHandler),
	}

	opts.SetOnConnectHandler(func(_ pahomqtt.Client) {
		s.handleConnect()
	})

	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		s.handleDisconnect(err)
	})

	opts.SetReconnectingHandler(func(_ pahomqtt.Client, _ *pahomqtt.ClientOptions) {
		if logger := s.getLogger(); logger != nil {
			logger.Info("MQTT reconnecting", "broker", cfg.Broker)
		}
	})

	s.client = pahomqtt.NewClient(opts)
	timeout := cfg.GetConnectTimeout()
	token := s.client.Connect()
	if !token.WaitTimeout(timeout) {
		// Stop the background connect attempt before giving up on it
		s.client.Disconnect(0)
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// The OnConnectHandler runs asynchronously and may not have executed yet,
	// so mark the session connected here for callers that subscribe next.
	s.connMu.Lock()
	s.connected = true
	s.connMu.Unlock()

	return s, nil
}

// handleConnect is called on initial connect and on every reconnect.
func (s *Session) handleConnect() {
	s.connMu.Lock()
	s.connected = true
	s.connMu.Unlock()

	s.restoreSubscriptions()

	s.callbackMu.RLock()
	callback := s.onConnect
	s.callbackMu.RUnlock()
	if callback != nil {
		callback()
	}
}

// handleDisconnect is called when the connection is lost.
func (s *Session) handleDisconnect(err error) {
	s.connMu.Lock()
	s.connected = false
	s.connMu.Unlock()

	s.callbackMu.RLock()
	callback := s.onDisconnect
	s.callbackMu.RUnlock()
	if callback != nil {
		callback(err)
	}
}

// restoreSubscriptions re-subscribes to all tracked topics after reconnect.
func (s *Session) restoreSubscriptions() {
	s.subMu.RLock()
	defer s.subMu.RUnlock()

	for topic, handler := range s.subscriptions {
		token := s.client.Subscribe(topic, qosAtMostOnce, s.wrapHandler(handler))
		go func(topic string) {
			err := fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
			if token.WaitTimeout(defaultPublishTimeout) {
				err = subscribeResult(token, topic)
			}
			if err == nil {
				return
			}
			if logger := s.getLogger(); logger != nil {
				logger.Warn("MQTT resubscribe failed", "topic", topic, "error", err)
			}
		}(topic)
	}
}

// Disconnect gracefully ends the session.
//
// Pending operations get a short quiesce period. Calling Disconnect on a
// session that is already closed is a no-op. A session whose link was lost
// and is still auto-reconnecting is closed as well, which stops the retries.
//
// Returns:
//   - error: wraps ErrDisconnectFailed if the transport is still open afterwards
func (s *Session) Disconnect() error {
	if s.client == nil {
		return nil
	}

	s.connMu.Lock()
	if s.closed {
		s.connMu.Unlock()
		return nil
	}
	s.closed = true
	s.connected = false
	s.connMu.Unlock()

	s.client.Disconnect(defaultDisconnectQuiesce)

	if s.client.IsConnectionOpen() {
		return fmt.Errorf("%w: connection to %s still open", ErrDisconnectFailed, s.cfg.Broker)
	}

	return nil
}

// HealthCheck verifies the session is connected.
func (s *Session) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("mqtt health check: %w", ctx.Err())
	default:
	}

	if !s.IsConnected() {
		return ErrNotConnected
	}

	return nil
}

// IsConnected reports whether the session is currently connected.
func (s *Session) IsConnected() bool {
	s.connMu.RLock()
	defer s.connMu.RUnlock()
	return s.connected && s.client != nil && s.client.IsConnected()
}

// State returns the current connection state.
func (s *Session) State() State {
	if s.IsConnected() {
		return StateConnected
	}
	return StateDisconnected
}

// ClientID returns the identifier this session presented to the broker.
func (s *Session) ClientID() string {
	if s.options == nil {
		return ""
	}
	return s.options.ClientID
}

// SetOnConnect sets a callback invoked on initial connect and on every reconnect.
func (s *Session) SetOnConnect(callback func()) {
	s.callbackMu.Lock()
	s.onConnect = callback
	s.callbackMu.Unlock()
}

// SetOnDisconnect sets a callback invoked when the connection is lost.
// The error parameter describes why the connection was lost.
func (s *Session) SetOnDisconnect(callback func(err error)) {
	s.callbackMu.Lock()
	s.onDisconnect = callback
	s.callbackMu.Unlock()
}

// SetLogger sets a logger for handler errors, panics and reconnect events.
// If not set, they are silently ignored.
func (s *Session) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

// getLogger returns the current logger (may be nil).
func (s *Session) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

// wrapHandler wraps a MessageHandler with panic recovery and optional logging.
func (s *Session) wrapHandler(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		s.dispatch(handler, msg.Topic(), msg.Payload())
	}
}

// dispatch invokes handler so that neither a panic nor an error escapes it.
func (s *Session) dispatch(handler MessageHandler, topic string, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			if logger := s.getLogger(); logger != nil {
				logger.Error("MQTT handler panic recovered",
					"topic", topic,
					"panic", r,
				)
			}
		}
	}()

	if err := handler(topic, payload); err != nil {
		if logger := s.getLogger(); logger != nil {
			logger.Warn("MQTT handler returned error",
				"topic", topic,
				"error", err,
			)
		}
	}
}
