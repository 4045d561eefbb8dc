// Package config loads dashboard settings from an optional YAML file, a
// .env file and HOMEDASH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/luki/homedash/internal/sensor"
)

// Push transports.
const (
	TransportNone  = "none"
	TransportKafka = "kafka"
	TransportMQTT  = "mqtt"
)

// Config holds the application configuration.
type Config struct {
	APIURL     string        `mapstructure:"api_url"`
	APITimeout time.Duration `mapstructure:"api_timeout"`

	Push PushConfig `mapstructure:"push"`

	RefreshInterval   time.Duration `mapstructure:"refresh_interval"`
	SimulatorInterval time.Duration `mapstructure:"simulator_interval"`
	PulseDuration     time.Duration `mapstructure:"pulse_duration"`

	BufferSize     int    `mapstructure:"buffer_size"`
	SuggestionsMax int    `mapstructure:"suggestions_max"`
	TimeRange      string `mapstructure:"time_range"`
	StartSimulated bool   `mapstructure:"start_simulated"`

	LogFile     string `mapstructure:"log_file"`
	LogLevel    string `mapstructure:"log_level"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// PushConfig selects and configures the push channel.
type PushConfig struct {
	Transport       string        `mapstructure:"transport"`
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	SharedGroup     bool          `mapstructure:"shared_group"`
	SensorTopic     string        `mapstructure:"sensor_topic"`
	SuggestionTopic string        `mapstructure:"suggestion_topic"`
	MQTTBroker      string        `mapstructure:"mqtt_broker"`
	MQTTClientID    string        `mapstructure:"mqtt_client_id"`
	MQTTTopicPrefix string        `mapstructure:"mqtt_topic_prefix"`
	PollTimeout     time.Duration `mapstructure:"poll_timeout"`
}

// Range returns the configured initial chart window.
func (c *Config) Range() sensor.TimeRange {
	r, err := sensor.ParseTimeRange(c.TimeRange)
	if err != nil {
		return sensor.Range24h
	}
	return r
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_url", "http://localhost:5000/api")
	v.SetDefault("api_timeout", "10s")

	v.SetDefault("push.transport", TransportNone)
	v.SetDefault("push.brokers", []string{"localhost:9092"})
	v.SetDefault("push.group_id", "homedash")
	v.SetDefault("push.shared_group", false)
	v.SetDefault("push.sensor_topic", "sensor_data")
	v.SetDefault("push.suggestion_topic", "new_suggestions")
	v.SetDefault("push.mqtt_broker", "tcp://localhost:1883")
	v.SetDefault("push.mqtt_client_id", "homedash")
	v.SetDefault("push.mqtt_topic_prefix", "home")
	v.SetDefault("push.poll_timeout", "5s")

	v.SetDefault("refresh_interval", "30s")
	v.SetDefault("simulator_interval", "3s")
	v.SetDefault("pulse_duration", "500ms")

	v.SetDefault("buffer_size", 20)
	v.SetDefault("suggestions_max", 10)
	v.SetDefault("time_range", "24h")
	v.SetDefault("start_simulated", false)

	v.SetDefault("log_file", "homedash.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("metrics_addr", "")
}

// Load reads .env (if present), then homedash.yaml from the usual places,
// then HOMEDASH_* variables. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not read .env: %v", err)
	}

	v := viper.New()
	v.SetConfigName("homedash")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".homedash"))
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return FromViper(v)
}

// FromViper applies defaults and env overrides to v and decodes it.
func FromViper(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetEnvPrefix("HOMEDASH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.APIURL) == "" {
		errs = append(errs, errors.New("api_url must not be empty"))
	}
	if c.RefreshInterval <= 0 {
		errs = append(errs, errors.New("refresh_interval must be positive"))
	}
	if c.SimulatorInterval <= 0 {
		errs = append(errs, errors.New("simulator_interval must be positive"))
	}
	if c.PulseDuration <= 0 {
		errs = append(errs, errors.New("pulse_duration must be positive"))
	}
	if c.BufferSize <= 0 {
		errs = append(errs, errors.New("buffer_size must be positive"))
	}
	if c.SuggestionsMax <= 0 {
		errs = append(errs, errors.New("suggestions_max must be positive"))
	}
	if _, err := sensor.ParseTimeRange(c.TimeRange); err != nil {
		errs = append(errs, err)
	}
	switch c.Push.Transport {
	case TransportNone:
	case TransportKafka:
		if len(c.Push.Brokers) == 0 {
			errs = append(errs, errors.New("push.brokers required for kafka transport"))
		}
	case TransportMQTT:
		if c.Push.MQTTBroker == "" {
			errs = append(errs, errors.New("push.mqtt_broker required for mqtt transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown push.transport %q", c.Push.Transport))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
