package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends payload to topic at QoS 0 (at most once), not retained.
//
// No broker acknowledgment exists at QoS 0; Publish only waits until paho has
// accepted the message for sending. While the link is down and auto-reconnect
// is in progress, Publish fails fast with ErrNotConnected wrapped in
// ErrPublishFailed so the caller can log it and carry on.
//
// Returns:
//   - error: nil on success, or an error wrapping ErrPublishFailed or ErrInvalidTopic
func (s *Session) Publish(topic string, payload []byte) error {
	if err := ValidatePublishTopic(topic); err != nil {
		return err
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	if !s.IsConnected() {
		return fmt.Errorf("%w: %w", ErrPublishFailed, ErrNotConnected)
	}

	token := s.client.Publish(topic, qosAtMostOnce, false, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}

	return nil
}
