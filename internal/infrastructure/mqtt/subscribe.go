package mqtt

import (
	"fmt"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// subackFailure is the SUBACK return code for a refused subscription.
// Granted QoS levels are 0 to 2.
const subackFailure byte = 0x80

// Subscribe registers handler for messages on topic at QoS 0.
//
// Subscribe returns only after the broker has acknowledged the subscription,
// so a message published right afterwards is guaranteed to reach handler.
// A SUBACK that refuses the filter is a failure, not a silent success.
// The handler is invoked asynchronously, once per message, on paho's delivery
// goroutine; panics are recovered and returned errors are logged.
//
// The subscription is tracked and re-established after every reconnect.
//
// Returns:
//   - error: nil on success, or an error wrapping ErrSubscribeFailed,
//     ErrInvalidTopic or ErrNotConnected
func (s *Session) Subscribe(topic string, handler MessageHandler) error {
	if err := ValidateSubscribeTopic(topic); err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrSubscribeFailed)
	}

	if !s.IsConnected() {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, ErrNotConnected)
	}

	s.subMu.Lock()
	s.subscriptions[topic] = handler
	s.subMu.Unlock()

	token := s.client.Subscribe(topic, qosAtMostOnce, s.wrapHandler(handler))
	if !token.WaitTimeout(defaultPublishTimeout) {
		s.forget(topic)
		return fmt.Errorf("%w: timeout after %v", ErrSubscribeFailed, defaultPublishTimeout)
	}
	if err := subscribeResult(token, topic); err != nil {
		s.forget(topic)
		return err
	}

	return nil
}

// subscribeResult turns a completed subscribe token into an error.
// paho reports transport failures through Error() but leaves a broker
// refusal in the per-filter SUBACK codes.
func subscribeResult(token pahomqtt.Token, topic string) error {
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}

	st, ok := token.(*pahomqtt.SubscribeToken)
	if !ok {
		return nil
	}
	code, ok := st.Result()[topic]
	if !ok {
		return nil
	}
	if code == subackFailure || code > 2 {
		return fmt.Errorf("%w: broker rejected %q (return code 0x%02x)", ErrSubscribeFailed, topic, code)
	}

	return nil
}

// forget removes a subscription that failed so it is not restored on reconnect.
func (s *Session) forget(topic string) {
	s.subMu.Lock()
	delete(s.subscriptions, topic)
	s.subMu.Unlock()
}
