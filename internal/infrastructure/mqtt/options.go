package mqtt

import (
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/sinus-publisher/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultPublishTimeout bounds how long Publish and Subscribe wait on their token.
	defaultPublishTimeout = 5 * time.Second

	// defaultDisconnectQuiesce is the time to wait for pending operations on disconnect.
	defaultDisconnectQuiesce = 250 // milliseconds

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 30 * time.Second

	// qosAtMostOnce is the only QoS level this session uses.
	qosAtMostOnce byte = 0
)

// NewClientID returns prefix followed by a random UUID, so every process run
// gets its own identity and several instances can share a broker.
func NewClientID(prefix string) string {
	if prefix == "" {
		prefix = config.DefaultClientIDPrefix
	}
	return prefix + "-" + uuid.New().String()
}

// buildClientOptions creates paho MQTT options from the resolved config.
//
// This configures:
//   - Broker URI (used as given, e.g. tcp://localhost:1883)
//   - Client ID (NewClientID is used when the config has none)
//   - Clean session mode
//   - Automatic reconnect after link loss, capped at reconnect.max_delay
//   - Connect timeout and keepalive
//
// Initial connect is not retried: a broker that cannot be reached at startup
// is a fatal error for the caller.
func buildClientOptions(cfg config.MQTTConfig) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	opts.AddBroker(cfg.Broker)

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = NewClientID(cfg.ClientIDPrefix)
	}
	opts.SetClientID(clientID)

	// Clean session - no subscriptions or queued messages survive on the broker
	opts.SetCleanSession(true)

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(false)
	if maxDelay := cfg.GetMaxReconnectDelay(); maxDelay > 0 {
		opts.SetMaxReconnectInterval(maxDelay)
	}

	opts.SetConnectTimeout(cfg.GetConnectTimeout())
	opts.SetKeepAlive(defaultKeepAlive)

	return opts
}
