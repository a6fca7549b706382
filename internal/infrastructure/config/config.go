package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Limits enforced by Validate.
const (
	// MaxNetworks is the number of Wi-Fi networks a device may be provisioned with.
	MaxNetworks = 3

	// maxSSIDLength is the 802.11 SSID limit in bytes.
	maxSSIDLength = 32

	// minPassphraseLength and maxPassphraseLength bound a WPA2 passphrase.
	minPassphraseLength = 8
	maxPassphraseLength = 63
)

// Config is the root configuration structure for the net FSM.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device    DeviceConfig    `yaml:"device"`
	WiFi      WiFiConfig      `yaml:"wifi"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Cycle     CycleConfig     `yaml:"cycle"`
	Database  DatabaseConfig  `yaml:"database"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
	Indicator IndicatorConfig `yaml:"indicator"`
}

// DeviceConfig identifies the device running the state machine.
type DeviceConfig struct {
	ID string `yaml:"id"`
}

// WiFiConfig contains Wi-Fi association settings.
type WiFiConfig struct {
	// Interface is the wireless interface handed to nmcli (e.g. "wlan0").
	Interface string `yaml:"interface"`

	// Networks lists the provisioned networks, primary first.
	// At most MaxNetworks entries are accepted.
	Networks []NetworkConfig `yaml:"networks"`

	// ConnectTimeout bounds a single association attempt (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	Retry RetryConfig `yaml:"retry"`
}

// NetworkConfig is a single provisioned Wi-Fi network.
type NetworkConfig struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
}

// RetryConfig is the retry policy for one connection phase.
type RetryConfig struct {
	// MaxRetries is the number of retryable failures tolerated before the
	// phase is declared fatal. Zero means the first transient failure is fatal.
	MaxRetries int `yaml:"max_retries"`

	// InitialDelay is the backoff after the first retryable failure (seconds).
	InitialDelay int `yaml:"initial_delay"`

	// MaxDelay caps the backoff (seconds).
	MaxDelay int `yaml:"max_delay"`

	// Multiplier is the growth factor between successive delays.
	Multiplier float64 `yaml:"multiplier"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker MQTTBrokerConfig `yaml:"broker"`
	Auth   MQTTAuthConfig   `yaml:"auth"`
	QoS    int              `yaml:"qos"`

	// KeepAlive is the MQTT keepalive interval (seconds).
	KeepAlive int `yaml:"keep_alive"`

	// ConnectTimeout bounds a single CONNECT/CONNACK exchange (seconds).
	ConnectTimeout int `yaml:"connect_timeout"`

	// TopicPrefix is the root of the device status topics.
	TopicPrefix string `yaml:"topic_prefix"`

	Retry RetryConfig `yaml:"retry"`
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

// CycleConfig controls how a connection cycle is driven.
type CycleConfig struct {
	// Timeout aborts the cycle if no terminal state is reached (seconds).
	// Zero disables the supervising timeout.
	Timeout int `yaml:"timeout"`

	// StepInterval is the polling cadence of the driver loop (milliseconds).
	StepInterval int `yaml:"step_interval_ms"`
}

// DatabaseConfig contains SQLite settings for the transition history.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`

	// RetentionDays prunes history rows older than this at startup. Zero keeps everything.
	RetentionDays int `yaml:"retention_days"`
}

// InfluxDBConfig contains InfluxDB connection settings.
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
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// Used when Output is "file".
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// IndicatorConfig points at the sysfs LED brightness files of an RGB status LED.
type IndicatorConfig struct {
	Enabled bool   `yaml:"enabled"`
	Red     string `yaml:"red"`
	Green   string `yaml:"green"`
	Blue    string `yaml:"blue"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: NETFSM_SECTION_KEY
// For example: NETFSM_WIFI_SSID, NETFSM_MQTT_HOST
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

// defaultConfig returns a Config with defaults sized for the
// simulation budgets: a Wi-Fi cycle gives up in under 50s and an MQTT
// cycle in about two minutes.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID: "netfsm-device",
		},
		WiFi: WiFiConfig{
			Interface:      "wlan0",
			ConnectTimeout: 10,
			Retry: RetryConfig{
				MaxRetries:   3,
				InitialDelay: 1,
				MaxDelay:     10,
				Multiplier:   2,
			},
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "netfsm-device",
			},
			QoS:            1,
			KeepAlive:      60,
			ConnectTimeout: 10,
			TopicPrefix:    "netfsm",
			Retry: RetryConfig{
				MaxRetries:   5,
				InitialDelay: 2,
				MaxDelay:     30,
				Multiplier:   2,
			},
		},
		Cycle: CycleConfig{
			Timeout:      180,
			StepInterval: 100,
		},
		Database: DatabaseConfig{
			Path:        "./data/netfsm.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				Path:       "./logs/netfsm.log",
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: NETFSM_SECTION_KEY
//
// NETFSM_WIFI_SSID and NETFSM_WIFI_PASSPHRASE replace the primary network.
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("NETFSM_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}

	// Wi-Fi
	if v := os.Getenv("NETFSM_WIFI_INTERFACE"); v != "" {
		cfg.WiFi.Interface = v
	}
	ssid, psk := os.Getenv("NETFSM_WIFI_SSID"), os.Getenv("NETFSM_WIFI_PASSPHRASE")
	if ssid != "" || psk != "" {
		if len(cfg.WiFi.Networks) == 0 {
			cfg.WiFi.Networks = append(cfg.WiFi.Networks, NetworkConfig{})
		}
		if ssid != "" {
			cfg.WiFi.Networks[0].SSID = ssid
		}
		if psk != "" {
			cfg.WiFi.Networks[0].Passphrase = psk
		}
	}

	// MQTT
	if v := os.Getenv("NETFSM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("NETFSM_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.MQTT.Broker.Port = port
		}
	}
	if v := os.Getenv("NETFSM_MQTT_CLIENT_ID"); v != "" {
		cfg.MQTT.Broker.ClientID = v
	}
	if v := os.Getenv("NETFSM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("NETFSM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Database
	if v := os.Getenv("NETFSM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("NETFSM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}

	// Wi-Fi validation
	switch n := len(c.WiFi.Networks); {
	case n == 0:
		errs = append(errs, "wifi.networks requires at least one network")
	case n > MaxNetworks:
		errs = append(errs, fmt.Sprintf("wifi.networks accepts at most %d networks", MaxNetworks))
	}
	for i, n := range c.WiFi.Networks {
		if n.SSID == "" || len(n.SSID) > maxSSIDLength {
			errs = append(errs, fmt.Sprintf("wifi.networks[%d].ssid must be 1-%d bytes", i, maxSSIDLength))
		}
		if l := len(n.Passphrase); l != 0 && (l < minPassphraseLength || l > maxPassphraseLength) {
			errs = append(errs, fmt.Sprintf("wifi.networks[%d].passphrase must be empty or %d-%d characters",
				i, minPassphraseLength, maxPassphraseLength))
		}
	}
	if c.WiFi.ConnectTimeout < 1 {
		errs = append(errs, "wifi.connect_timeout must be at least 1 second")
	}
	errs = append(errs, c.WiFi.Retry.validate("wifi.retry")...)

	// MQTT validation
	if c.MQTT.Broker.Host == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.Broker.ClientID == "" {
		errs = append(errs, "mqtt.broker.client_id is required")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.ConnectTimeout < 1 {
		errs = append(errs, "mqtt.connect_timeout must be at least 1 second")
	}
	errs = append(errs, c.MQTT.Retry.validate("mqtt.retry")...)

	// Cycle validation
	if c.Cycle.Timeout < 0 {
		errs = append(errs, "cycle.timeout must not be negative")
	}
	if c.Cycle.StepInterval < 1 {
		errs = append(errs, "cycle.step_interval_ms must be at least 1")
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when database is enabled")
	}
	if c.InfluxDB.Enabled && (c.InfluxDB.URL == "" || c.InfluxDB.Bucket == "") {
		errs = append(errs, "influxdb.url and influxdb.bucket are required when influxdb is enabled")
	}
	if c.Logging.Output == "file" && c.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

func (r RetryConfig) validate(prefix string) []string {
	var errs []string
	if r.MaxRetries < 0 {
		errs = append(errs, prefix+".max_retries must not be negative")
	}
	if r.InitialDelay < 1 {
		errs = append(errs, prefix+".initial_delay must be at least 1 second")
	}
	if r.MaxDelay < r.InitialDelay {
		errs = append(errs, prefix+".max_delay must be at least initial_delay")
	}
	if r.Multiplier < 1 {
		errs = append(errs, prefix+".multiplier must be at least 1")
	}
	return errs
}

// GetInitialDelay returns the first backoff delay as a Duration.
func (r RetryConfig) GetInitialDelay() time.Duration {
	return time.Duration(r.InitialDelay) * time.Second
}

// GetMaxDelay returns the backoff cap as a Duration.
func (r RetryConfig) GetMaxDelay() time.Duration {
	return time.Duration(r.MaxDelay) * time.Second
}

// GetCycleTimeout returns the supervising cycle timeout as a Duration.
func (c *Config) GetCycleTimeout() time.Duration {
	return time.Duration(c.Cycle.Timeout) * time.Second
}

// GetStepInterval returns the driver polling cadence as a Duration.
func (c *Config) GetStepInterval() time.Duration {
	return time.Duration(c.Cycle.StepInterval) * time.Millisecond
}
