package mqtt

import "errors"

// Domain-specific errors for broker session operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when attempting operations on a disconnected session.
	ErrNotConnected = errors.New("mqtt: session not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails
	// (broker unreachable, rejected, or no CONNACK within the connect timeout).
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed is returned when a publish could not be handed to the transport.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrSubscribeFailed is returned when the broker rejects or times out a subscription.
	ErrSubscribeFailed = errors.New("mqtt: subscribe failed")

	// ErrDisconnectFailed is returned when the connection is still open after disconnecting.
	ErrDisconnectFailed = errors.New("mqtt: disconnect failed")

	// ErrInvalidTopic is returned when an empty or malformed topic is provided.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")
)
