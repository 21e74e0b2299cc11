// Package config resolves the sinus publisher's configuration.
//
// This package manages:
//   - Loading optional configuration from a YAML file
//   - Overriding with environment variables (MQTT_BROKER, MQTT_PUB_TOPIC, MQTT_SUB_TOPIC)
//   - Overriding topics with positional command-line arguments
//   - Validation of required fields
//   - Default value handling
//
// Topic precedence is: two positional arguments > one positional argument
// (publish topic only) > environment variables > config file > defaults.
// Environment topic variables are ignored as soon as any positional argument
// is present.
//
// Usage:
//
//	cfg, err := config.Resolve(os.Getenv(config.EnvConfigPath), os.Args[1:], newClientID)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Topics.Publish)
package config
