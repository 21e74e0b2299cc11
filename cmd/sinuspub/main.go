// sinuspub - bidirectional MQTT sine-wave publisher
//
// sinuspub publishes sin(counter) to one topic once per second and listens on
// a second topic for the control command "stop", after which it disconnects
// and exits with status 0.
//
//	sinuspub [publish-topic [subscribe-topic]]
//
// Topics fall back to MQTT_PUB_TOPIC / MQTT_SUB_TOPIC, then to the optional
// config file named by SINUSPUB_CONFIG, then to sensoren/java1 and
// feedback/java1. The broker comes from MQTT_BROKER (default tcp://localhost:1883).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nerrad567/sinus-publisher/internal/infrastructure/config"
	"github.com/nerrad567/sinus-publisher/internal/infrastructure/influxdb"
	"github.com/nerrad567/sinus-publisher/internal/infrastructure/logging"
	"github.com/nerrad567/sinus-publisher/internal/infrastructure/mqtt"
	"github.com/nerrad567/sinus-publisher/internal/publisher"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path, used when SINUSPUB_CONFIG is unset.
// A missing file is not an error.
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Ctrl+C and SIGTERM stop the publish loop the same way "stop" does
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCommand builds the single cobra command; positional arguments are topics.
func newRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sinuspub [publish-topic [subscribe-topic]]",
		Short: "Publish a sine wave over MQTT until told to stop",
		Long: `Publish sin(counter) as a six-decimal string to the publish topic once per
interval, incrementing the counter by 0.1 each time. Publishing stops when the
exact payload "stop" arrives on the subscribe topic.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		Args:          cobra.MaximumNArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), args)
		},
	}
}

// run is the actual application logic, separated from main for testability.
//
// Startup failures (configuration, broker connection, control-topic
// subscription) are returned; once the publish loop is running, run returns
// nil after a stop command or a shutdown signal.
func run(ctx context.Context, args []string) error {
	log := logging.Default()

	cfg, err := config.Resolve(getConfigPath(), args, mqtt.NewClientID)
	if err != nil {
		return fmt.Errorf("resolving config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	log.Info("starting sinus publisher",
		"version", version,
		"commit", commit,
		"broker", cfg.MQTT.Broker,
		"publish_topic", cfg.Topics.Publish,
		"subscribe_topic", cfg.Topics.Subscribe,
	)

	mqttLog := log.With("component", "mqtt")
	mqttLog.Info("connecting to broker", "broker", cfg.MQTT.Broker, "client_id", cfg.MQTT.ClientID)
	session, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		mqttLog.Info("disconnecting from broker")
		if closeErr := session.Disconnect(); closeErr != nil {
			mqttLog.Error("error disconnecting from MQTT", "error", closeErr)
			return
		}
		mqttLog.Info("disconnected from broker")
	}()
	session.SetLogger(mqttLog)
	session.SetOnConnect(func() {
		mqttLog.Info("MQTT connected")
	})
	session.SetOnDisconnect(func(err error) {
		mqttLog.Warn("MQTT connection lost", "error", err)
	})
	mqttLog.Info("connected to broker", "state", session.State())

	// The stop listener must be in place before the first sample goes out
	shutdown := publisher.NewShutdown()
	listener := publisher.NewListener(shutdown, log.With("component", "listener"))
	if err := session.Subscribe(cfg.Topics.Subscribe, listener.Handle); err != nil {
		return fmt.Errorf("subscribing to %s: %w", cfg.Topics.Subscribe, err)
	}
	mqttLog.Info("subscribed", "topic", cfg.Topics.Subscribe)

	opts := publisher.LoopOptions{
		Topic:    cfg.Topics.Publish,
		Interval: cfg.GetInterval(),
		Logger:   log.With("component", "publisher"),
	}

	if cfg.InfluxDB.Enabled {
		recorder, err := influxdb.Open(ctx, cfg.InfluxDB, session.ClientID())
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB recorder")
			if closeErr := recorder.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		recorder.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("recording samples to InfluxDB", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
		opts.Recorder = recorder
	}

	loop := publisher.NewLoop(session, shutdown, opts)
	if err := loop.Run(ctx); err != nil {
		return fmt.Errorf("publish loop: %w", err)
	}

	stats := loop.Stats()
	log.Info("sinus publisher stopped", "published", stats.Published, "failed", stats.Failed)
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SINUSPUB_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv(config.EnvConfigPath); path != "" {
		return path
	}
	return defaultConfigPath
}
