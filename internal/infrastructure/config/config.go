package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Built-in defaults, used when neither arguments, environment nor config file set a value.
const (
	DefaultBroker         = "tcp://localhost:1883"
	DefaultPublishTopic   = "sensoren/java1"
	DefaultSubscribeTopic = "feedback/java1"
	DefaultClientIDPrefix = "sinus-publisher"

	DefaultConnectTimeout = 10 * time.Second
)

// Environment variables recognised by the resolver.
const (
	EnvBroker         = "MQTT_BROKER"
	EnvPublishTopic   = "MQTT_PUB_TOPIC"
	EnvSubscribeTopic = "MQTT_SUB_TOPIC"
	EnvConfigPath     = "SINUSPUB_CONFIG"
)

// Config is the root configuration structure for the sinus publisher.
// All configuration is loaded from YAML and can be overridden by environment variables
// and positional arguments (see Resolve).
type Config struct {
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Topics    TopicsConfig    `yaml:"topics"`
	Publisher PublisherConfig `yaml:"publisher"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	// Broker is a connection URI such as tcp://localhost:1883.
	Broker string `yaml:"broker"`

	// ClientID is filled in once per process run by Resolve.
	// It is not read from YAML so that concurrent instances never collide.
	ClientID string `yaml:"-"`

	ClientIDPrefix string `yaml:"client_id_prefix"`

	// ConnectTimeout in seconds.
	ConnectTimeout int `yaml:"connect_timeout"`

	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	// MaxDelay caps the automatic reconnect backoff, in seconds.
	MaxDelay int `yaml:"max_delay"`
}

// TopicsConfig contains the two topics the publisher works with.
type TopicsConfig struct {
	Publish   string `yaml:"publish"`
	Subscribe string `yaml:"subscribe"`
}

// PublisherConfig contains publish loop settings.
type PublisherConfig struct {
	// IntervalMS is the pause between two samples in milliseconds.
	IntervalMS int `yaml:"interval_ms"`
}

// InfluxDBConfig contains InfluxDB connection settings for sample recording.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Resolve produces the final configuration for one process run.
//
// Topic precedence, highest first:
//  1. Two positional arguments: publish topic, subscribe topic
//  2. One positional argument: publish topic; subscribe topic from file or default
//  3. MQTT_PUB_TOPIC / MQTT_SUB_TOPIC (only consulted when no arguments are given)
//  4. YAML file at path (skipped when path is empty or the file does not exist)
//  5. Built-in defaults
//
// The broker address always honours MQTT_BROKER. A fresh client ID is
// generated via newClientID when it is non-nil.
func Resolve(path string, args []string, newClientID func(prefix string) string) (*Config, error) {
	if len(args) > 2 {
		return nil, fmt.Errorf("expected at most 2 topic arguments, got %d", len(args))
	}

	cfg := defaultConfig()
	if path != "" {
		loaded, err := readFile(path)
		switch {
		case err == nil:
			cfg = loaded
		case errors.Is(err, fs.ErrNotExist):
		default:
			return nil, err
		}
	}

	applyEnvOverrides(cfg)

	switch len(args) {
	case 2:
		cfg.Topics.Publish = args[0]
		cfg.Topics.Subscribe = args[1]
	case 1:
		cfg.Topics.Publish = args[0]
	default:
		applyTopicEnvOverrides(cfg)
	}

	if newClientID != nil {
		cfg.MQTT.ClientID = newClientID(cfg.MQTT.ClientIDPrefix)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// readFile returns defaults overlaid with the YAML file at path.
func readFile(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker:         DefaultBroker,
			ClientIDPrefix: DefaultClientIDPrefix,
			ConnectTimeout: 10,
			Reconnect: MQTTReconnectConfig{
				MaxDelay: 60,
			},
		},
		Topics: TopicsConfig{
			Publish:   DefaultPublishTopic,
			Subscribe: DefaultSubscribeTopic,
		},
		Publisher: PublisherConfig{
			IntervalMS: 1000,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Empty variables are treated as unset.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvBroker); v != "" {
		cfg.MQTT.Broker = v
	}

	// InfluxDB token never belongs in a committed config file
	if v := os.Getenv("SINUSPUB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// applyTopicEnvOverrides applies MQTT_PUB_TOPIC and MQTT_SUB_TOPIC independently.
func applyTopicEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvPublishTopic); v != "" {
		cfg.Topics.Publish = v
	}
	if v := os.Getenv(EnvSubscribeTopic); v != "" {
		cfg.Topics.Subscribe = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.MQTT.Broker == "" {
		errs = append(errs, "mqtt.broker is required")
	}
	if c.MQTT.ConnectTimeout < 1 {
		errs = append(errs, "mqtt.connect_timeout must be at least 1 second")
	}
	if c.Topics.Publish == "" {
		errs = append(errs, "topics.publish is required")
	}
	if c.Topics.Subscribe == "" {
		errs = append(errs, "topics.subscribe is required")
	}
	if c.Publisher.IntervalMS < 1 {
		errs = append(errs, "publisher.interval_ms must be positive")
	}
	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetInterval returns the publish interval as a Duration.
func (c *Config) GetInterval() time.Duration {
	return time.Duration(c.Publisher.IntervalMS) * time.Millisecond
}

// GetConnectTimeout returns the connect timeout as a Duration, or
// DefaultConnectTimeout when it is unset.
func (c MQTTConfig) GetConnectTimeout() time.Duration {
	if c.ConnectTimeout <= 0 {
		return DefaultConnectTimeout
	}
	return time.Duration(c.ConnectTimeout) * time.Second
}

// GetMaxReconnectDelay returns the reconnect backoff cap, or zero to keep the
// client library's default.
func (c MQTTConfig) GetMaxReconnectDelay() time.Duration {
	if c.Reconnect.MaxDelay <= 0 {
		return 0
	}
	return time.Duration(c.Reconnect.MaxDelay) * time.Second
}
