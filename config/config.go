package config

import (
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"fleetedge/assign"
)

// Config is the top-level application configuration.
type Config struct {
	mu sync.Mutex `yaml:"-"`

	Namespace    string `yaml:"namespace"`
	DepotID      string `yaml:"depot_id"`
	DatabasePath string `yaml:"database_path"`

	Remote    RemoteConfig    `yaml:"remote"`
	Sync      SyncConfig      `yaml:"sync"`
	Selector  assign.Config   `yaml:"selector"`
	Web       WebConfig       `yaml:"web"`
	Messaging MessagingConfig `yaml:"messaging"`
}

// RemoteConfig defines the remote authority connection.
type RemoteConfig struct {
	BaseURL     string        `yaml:"base_url"`
	BearerToken string        `yaml:"bearer_token"`
	Timeout     time.Duration `yaml:"timeout"`
}

// SyncConfig defines the durable sync queue tunables.
type SyncConfig struct {
	DrainInterval time.Duration `yaml:"drain_interval"`
	BackoffBase   time.Duration `yaml:"backoff_base"`
	BackoffCap    time.Duration `yaml:"backoff_cap"`
	MaxAttempts   int           `yaml:"max_attempts"`
	Concurrency   int           `yaml:"concurrency"`
}

// WebConfig defines the web server settings.
type WebConfig struct {
	Host          string `yaml:"host"`
	Port          int    `yaml:"port"`
	SessionSecret string `yaml:"session_secret"`
}

// MessagingConfig defines the ops-event messaging backend.
type MessagingConfig struct {
	Backend           string        `yaml:"backend"` // "mqtt" or "kafka"
	MQTT              MQTTConfig    `yaml:"mqtt"`
	Kafka             KafkaConfig   `yaml:"kafka"`
	OpsTopic          string        `yaml:"ops_topic"`
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	NodeID            string        `yaml:"node_id"`
}

// MQTTConfig defines MQTT broker settings.
type MQTTConfig struct {
	Broker   string `yaml:"broker"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
}

// KafkaConfig defines Kafka broker settings.
type KafkaConfig struct {
	Brokers []string `yaml:"brokers"`
	GroupID string   `yaml:"group_id"`
}

// Defaults returns a Config with sane defaults.
func Defaults() *Config {
	return &Config{
		Namespace:    "evcore",
		DepotID:      "depot-1",
		DatabasePath: "fleetedge.db",
		Remote: RemoteConfig{
			BaseURL: "https://api.evcore.local/v1",
			Timeout: 10 * time.Second,
		},
		Sync: SyncConfig{
			DrainInterval: 5 * time.Second,
			BackoffBase:   time.Second,
			BackoffCap:    60 * time.Second,
			MaxAttempts:   5,
			Concurrency:   4,
		},
		Selector: assign.DefaultConfig(),
		Web: WebConfig{
			Host: "0.0.0.0",
			Port: 8082,
		},
		Messaging: MessagingConfig{
			Backend:           "mqtt",
			OpsTopic:          "fleetedge/ops",
			HeartbeatInterval: 60 * time.Second,
			MQTT: MQTTConfig{
				Broker: "localhost",
				Port:   1883,
			},
		},
	}
}

// Load reads a YAML config file. If the file doesn't exist, defaults are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to a YAML file.
func (c *Config) Save(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// NodeID returns the configured node ID, or derives one from namespace.depot_id.
func (c *Config) NodeID() string {
	if c.Messaging.NodeID != "" {
		return c.Messaging.NodeID
	}
	return c.Namespace + "." + c.DepotID
}
