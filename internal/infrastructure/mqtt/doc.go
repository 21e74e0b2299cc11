// Package mqtt provides the broker session for the sinus publisher.
//
// This package manages:
//   - Connection to an MQTT broker with a clean session and auto-reconnect
//   - Publishing at QoS 0 (at most once)
//   - Topic subscriptions, restored after every reconnect
//   - Graceful, idempotent disconnect
//
// The session wraps github.com/eclipse/paho.mqtt.golang. Message handlers run
// on paho's delivery goroutine, independent of the goroutine that publishes.
//
// # Usage
//
//	session, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer session.Disconnect()
//
//	err = session.Subscribe("feedback/java1", func(topic string, payload []byte) error {
//	    log.Printf("received %s on %s", payload, topic)
//	    return nil
//	})
//
//	err = session.Publish("sensoren/java1", []byte("0.099833"))
package mqtt
