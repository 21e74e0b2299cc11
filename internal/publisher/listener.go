package publisher

import (
	"fmt"
	"unicode/utf8"
)

// StopCommand is the only control payload the Listener acts on.
// Matching is exact and case-sensitive, with no whitespace trimming.
const StopCommand = "stop"

// Logger is the logging surface used by this package.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Listener turns control messages into a shutdown request.
type Listener struct {
	shutdown *Shutdown
	logger   Logger
}

// nopLogger discards everything; used when no Logger is supplied.
type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func orNop(logger Logger) Logger {
	if logger == nil {
		return nopLogger{}
	}
	return logger
}

// NewListener returns a Listener that trips shutdown on StopCommand.
func NewListener(shutdown *Shutdown, logger Logger) *Listener {
	return &Listener{shutdown: shutdown, logger: orNop(logger)}
}

// Handle processes one inbound message. Its signature matches mqtt.MessageHandler.
//
// Handle never blocks and never fails: undecodable payloads are logged and
// discarded, and the only side effect of a stop command is Shutdown.Request.
func (l *Listener) Handle(topic string, payload []byte) error {
	text, err := decode(payload)
	if err != nil {
		l.logger.Warn("discarding control message", "topic", topic, "error", err)
		return nil
	}

	l.logger.Info("received control message", "topic", topic, "payload", text)

	if text != StopCommand {
		l.logger.Debug("ignoring control message", "topic", topic)
		return nil
	}

	if l.shutdown.Request() {
		l.logger.Info("stop command received, shutting down")
	}
	return nil
}

func decode(payload []byte) (string, error) {
	if !utf8.Valid(payload) {
		return "", fmt.Errorf("%w: %d bytes", ErrSignalDecode, len(payload))
	}
	return string(payload), nil
}
