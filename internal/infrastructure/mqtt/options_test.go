package mqtt

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/sinus-publisher/internal/infrastructure/config"
)

func TestBuildClientOptions(t *testing.T) {
	cfg := config.MQTTConfig{
		Broker:         "tcp://broker.local:1883",
		ClientID:       "sinus-publisher-fixed",
		ConnectTimeout: 10,
		Reconnect:      config.MQTTReconnectConfig{MaxDelay: 30},
	}

	opts := buildClientOptions(cfg)

	if len(opts.Servers) != 1 || opts.Servers[0].Host != "broker.local:1883" {
		t.Errorf("Servers = %v, want [tcp://broker.local:1883]", opts.Servers)
	}
	if opts.ClientID != "sinus-publisher-fixed" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "sinus-publisher-fixed")
	}
	if !opts.CleanSession {
		t.Error("CleanSession = false, want true")
	}
	if !opts.AutoReconnect {
		t.Error("AutoReconnect = false, want true")
	}
	if opts.ConnectRetry {
		t.Error("ConnectRetry = true, want false (startup failures are fatal)")
	}
	if opts.ConnectTimeout != 10*time.Second {
		t.Errorf("ConnectTimeout = %v, want 10s", opts.ConnectTimeout)
	}
	if opts.MaxReconnectInterval != 30*time.Second {
		t.Errorf("MaxReconnectInterval = %v, want 30s", opts.MaxReconnectInterval)
	}
}

func TestBuildClientOptions_GeneratesClientID(t *testing.T) {
	opts := buildClientOptions(config.MQTTConfig{Broker: config.DefaultBroker, ClientIDPrefix: "p"})

	if !strings.HasPrefix(opts.ClientID, "p-") {
		t.Errorf("ClientID = %q, want prefix %q", opts.ClientID, "p-")
	}
	if opts.ConnectTimeout != config.DefaultConnectTimeout {
		t.Errorf("ConnectTimeout = %v, want %v", opts.ConnectTimeout, config.DefaultConnectTimeout)
	}
}

func TestNewClientID(t *testing.T) {
	first := NewClientID("sinus")
	second := NewClientID("sinus")

	if first == second {
		t.Errorf("NewClientID() returned %q twice", first)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(first, "sinus-")); err != nil {
		t.Errorf("NewClientID() = %q, suffix is not a UUID: %v", first, err)
	}
	if !strings.HasPrefix(NewClientID(""), config.DefaultClientIDPrefix+"-") {
		t.Error("NewClientID(\"\") does not use the default prefix")
	}
}
