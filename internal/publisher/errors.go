package publisher

import "errors"

var (
	// ErrSignalDecode marks a control payload that is not valid UTF-8 text.
	// The Listener logs it and treats the message as "not stop".
	ErrSignalDecode = errors.New("publisher: control payload is not valid UTF-8")

	// ErrNoPublisher is returned by Run when the loop was built without a Publisher.
	ErrNoPublisher = errors.New("publisher: no publisher configured")
)
