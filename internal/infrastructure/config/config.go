package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for handsense.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device     DeviceConfig     `yaml:"device"`
	Polling    PollingConfig    `yaml:"polling"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Tracking   TrackingConfig   `yaml:"tracking"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DeviceConfig contains the Modbus TCP connection settings for the hand.
type DeviceConfig struct {
	// Host is the hand controller's IP address or hostname.
	Host string `yaml:"host"`

	// Port is the Modbus TCP port. The hand firmware listens on 6000.
	Port int `yaml:"port"`

	// UnitID is the Modbus unit identifier (fixed per device, usually 1).
	UnitID int `yaml:"unit_id"`

	// ConnectTimeout is the maximum time to wait for the TCP connection (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	// ReadTimeout is the per-request response timeout (seconds).
	ReadTimeout int `yaml:"read_timeout"`

	// WriteTimeout is the per-request write timeout (seconds).
	WriteTimeout int `yaml:"write_timeout"`

	// RedialInterval is the delay between reconnection attempts after the
	// connection is torn down (seconds).
	RedialInterval int `yaml:"redial_interval"`
}

// PollingConfig contains tactile acquisition loop settings.
type PollingConfig struct {
	// Interval is the target cycle period in milliseconds. The actual
	// period is this plus transfer time.
	Interval int `yaml:"interval"`

	// Backoff is the wait after a failed cycle in milliseconds.
	Backoff int `yaml:"backoff"`

	// PressureThreshold is the raw register value below which a tactile
	// cell is considered inactive.
	PressureThreshold float64 `yaml:"pressure_threshold"`
}

// DispatcherConfig contains joint command dispatcher settings.
type DispatcherConfig struct {
	// DrainInterval is the coalescing drain period in milliseconds.
	// Each drain issues at most one register write.
	DrainInterval int `yaml:"drain_interval"`
}

// TrackingConfig contains the external hand-tracking UDP ingest settings.
type TrackingConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
	Port    int    `yaml:"port"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings (seconds).
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
	AllowedMethods []string `yaml:"allowed_methods"`
	AllowedHeaders []string `yaml:"allowed_headers"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB telemetry settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HANDSENSE_SECTION_KEY
// For example: HANDSENSE_DEVICE_HOST, HANDSENSE_MQTT_PASSWORD
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			Host:           "192.168.11.210",
			Port:           6000,
			UnitID:         1,
			ConnectTimeout: 5,
			ReadTimeout:    3,
			WriteTimeout:   3,
			RedialInterval: 5,
		},
		Polling: PollingConfig{
			Interval:          100,
			Backoff:           500,
			PressureThreshold: 20,
		},
		Dispatcher: DispatcherConfig{
			DrainInterval: 50,
		},
		Tracking: TrackingConfig{
			Enabled: true,
			Host:    "127.0.0.1",
			Port:    5065,
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "handsense-core",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/handsense.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: HANDSENSE_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("HANDSENSE_DEVICE_HOST"); v != "" {
		cfg.Device.Host = v
	}
	if v := os.Getenv("HANDSENSE_DEVICE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Device.Port = port
		}
	}

	// Database
	if v := os.Getenv("HANDSENSE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("HANDSENSE_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HANDSENSE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HANDSENSE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("HANDSENSE_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("HANDSENSE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.Host == "" {
		errs = append(errs, "device.host is required")
	}
	if c.Device.Port < 1 || c.Device.Port > 65535 {
		errs = append(errs, "device.port must be between 1 and 65535")
	}
	if c.Device.UnitID < 0 || c.Device.UnitID > 255 {
		errs = append(errs, "device.unit_id must be between 0 and 255")
	}

	if c.Polling.Interval < 10 {
		errs = append(errs, "polling.interval must be at least 10 ms")
	}
	if c.Polling.Backoff < 0 {
		errs = append(errs, "polling.backoff must not be negative")
	}

	if c.Dispatcher.DrainInterval < 10 {
		errs = append(errs, "dispatcher.drain_interval must be at least 10 ms")
	}

	if c.Tracking.Enabled && (c.Tracking.Port < 1 || c.Tracking.Port > 65535) {
		errs = append(errs, "tracking.port must be between 1 and 65535")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetConnectTimeout returns the device connect timeout as a Duration.
func (c DeviceConfig) GetConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeout) * time.Second
}

// GetReadTimeout returns the device read timeout as a Duration.
func (c DeviceConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeout) * time.Second
}

// GetWriteTimeout returns the device write timeout as a Duration.
func (c DeviceConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeout) * time.Second
}

// GetRedialInterval returns the reconnection delay as a Duration.
func (c DeviceConfig) GetRedialInterval() time.Duration {
	return time.Duration(c.RedialInterval) * time.Second
}

// GetInterval returns the polling cycle period as a Duration.
func (c PollingConfig) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

// GetBackoff returns the polling failure backoff as a Duration.
func (c PollingConfig) GetBackoff() time.Duration {
	return time.Duration(c.Backoff) * time.Millisecond
}

// GetDrainInterval returns the dispatcher drain period as a Duration.
func (c DispatcherConfig) GetDrainInterval() time.Duration {
	return time.Duration(c.DrainInterval) * time.Millisecond
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c APIConfig) GetReadTimeout() time.Duration {
	return time.Duration(c.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c APIConfig) GetWriteTimeout() time.Duration {
	return time.Duration(c.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c APIConfig) GetIdleTimeout() time.Duration {
	return time.Duration(c.Timeouts.Idle) * time.Second
}
