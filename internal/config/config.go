package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Feed modes.
const (
	FeedModeMock     = "mock"
	FeedModeMQTT     = "mqtt"
	FeedModeHardware = "hardware"
)

// IMUDevice is one MPU9250 wired over SPI.
type IMUDevice struct {
	Name      string // unit name served in the snapshot
	SPIDevice string // e.g. /dev/spidev0.0
	CSPin     string // chip select GPIO, e.g. 8
}

// Config holds all application configuration values.
type Config struct {
	// Telemetry endpoint
	IMUEndpoint      string
	PollInterval     int // milliseconds
	HTTPTimeout      int // milliseconds, 0 = transport default
	PlaceholderUnits int // zero-valued units shown before the first poll

	// Web Server
	WebServerPort int
	ChartWidth    int
	ChartHeight   int

	// MQTT (mirror of applied snapshots; disabled when broker is empty)
	MQTTBroker            string
	MQTTClientIDDashboard string
	MQTTClientIDFeed      string
	TopicIMUSnapshot      string

	// Display
	DisplayUpdateInterval int // milliseconds

	// Feed (development telemetry backend)
	FeedPort     int
	FeedMode     string // FeedModeMock, FeedModeMQTT or FeedModeHardware
	FeedUnits    int
	FeedInterval int      // milliseconds
	FeedTopics   []string // raw IMU topics for FeedMode=mqtt
	FeedAccelLSB float64  // counts per m/s²
	FeedGyroLSB  float64  // counts per rad/s
	FeedDevices  []IMUDevice
}

// Default returns a Config populated with the built-in values. Load starts
// from these, so a config file only needs the keys it changes.
func Default() *Config {
	return &Config{
		IMUEndpoint:      "http://localhost:8080/api/imu",
		PollInterval:     200,
		HTTPTimeout:      0,
		PlaceholderUnits: 3,

		WebServerPort: 8081,
		ChartWidth:    500,
		ChartHeight:   300,

		MQTTClientIDDashboard: "imu-dashboard",
		MQTTClientIDFeed:      "imu-dashboard-feed",
		TopicIMUSnapshot:      "inertial/imu/snapshot",

		DisplayUpdateInterval: 1000,

		FeedPort:     8080,
		FeedMode:     FeedModeMock,
		FeedUnits:    3,
		FeedInterval: 200,
		// MPU9250 at ±2g and ±250°/s
		FeedAccelLSB: 16384.0 / 9.80665,
		FeedGyroLSB:  131.0 * 180.0 / 3.141592653589793,
	}
}

var (
	globalConfig *Config
	configOnce   sync.Once
	configMu     sync.RWMutex
)

// Load reads the configuration file and returns a Config struct.
func Load(configPath string) (*Config, error) {
	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	cfg := Default()
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse KEY=VALUE
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid config line %d: %q", lineNum, line)
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])

		if err := cfg.setValue(key, value); err != nil {
			return nil, fmt.Errorf("config line %d: %w", lineNum, err)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// setValue sets a config value based on the key.
func (c *Config) setValue(key, value string) error {
	switch key {
	// Telemetry endpoint
	case "IMU_ENDPOINT":
		c.IMUEndpoint = value
	case "POLL_INTERVAL":
		return setInt(&c.PollInterval, key, value)
	case "HTTP_TIMEOUT":
		return setInt(&c.HTTPTimeout, key, value)
	case "PLACEHOLDER_UNITS":
		return setInt(&c.PlaceholderUnits, key, value)

	// Web Server
	case "WEB_SERVER_PORT":
		return setInt(&c.WebServerPort, key, value)
	case "CHART_WIDTH":
		return setInt(&c.ChartWidth, key, value)
	case "CHART_HEIGHT":
		return setInt(&c.ChartHeight, key, value)

	// MQTT
	case "MQTT_BROKER":
		c.MQTTBroker = value
	case "MQTT_CLIENT_ID_DASHBOARD":
		c.MQTTClientIDDashboard = value
	case "MQTT_CLIENT_ID_FEED":
		c.MQTTClientIDFeed = value
	case "TOPIC_IMU_SNAPSHOT":
		c.TopicIMUSnapshot = value

	// Display
	case "DISPLAY_UPDATE_INTERVAL":
		return setInt(&c.DisplayUpdateInterval, key, value)

	// Feed
	case "FEED_PORT":
		return setInt(&c.FeedPort, key, value)
	case "FEED_MODE":
		switch value {
		case FeedModeMock, FeedModeMQTT, FeedModeHardware:
		default:
			return fmt.Errorf("FEED_MODE must be mock, mqtt or hardware, got %q", value)
		}
		c.FeedMode = value
	case "FEED_UNITS":
		return setInt(&c.FeedUnits, key, value)
	case "FEED_INTERVAL":
		return setInt(&c.FeedInterval, key, value)
	case "FEED_TOPICS":
		c.FeedTopics = nil
		for _, t := range strings.Split(value, ",") {
			if t = strings.TrimSpace(t); t != "" {
				c.FeedTopics = append(c.FeedTopics, t)
			}
		}
	case "FEED_ACCEL_LSB":
		return setFloat(&c.FeedAccelLSB, key, value)
	case "FEED_GYRO_LSB":
		return setFloat(&c.FeedGyroLSB, key, value)
	case "FEED_DEVICES":
		devices, err := parseDevices(value)
		if err != nil {
			return err
		}
		c.FeedDevices = devices

	default:
		return fmt.Errorf("unknown config key: %q", key)
	}

	return nil
}

func setInt(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, value, err)
	}
	*dst = v
	return nil
}

// parseDevices reads a comma separated list of name:spidev:cspin entries.
func parseDevices(value string) ([]IMUDevice, error) {
	var devices []IMUDevice
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("invalid FEED_DEVICES entry %q, want name:spidev:cspin", entry)
		}
		devices = append(devices, IMUDevice{Name: parts[0], SPIDevice: parts[1], CSPin: parts[2]})
	}
	return devices, nil
}

// validate checks that all required fields are set and in range.
func (c *Config) validate() error {
	if c.IMUEndpoint == "" {
		return fmt.Errorf("IMU_ENDPOINT is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive, got %d", c.PollInterval)
	}
	if c.HTTPTimeout < 0 {
		return fmt.Errorf("HTTP_TIMEOUT must not be negative, got %d", c.HTTPTimeout)
	}
	if c.PlaceholderUnits < 0 {
		return fmt.Errorf("PLACEHOLDER_UNITS must not be negative, got %d", c.PlaceholderUnits)
	}
	if c.FeedUnits < 0 {
		return fmt.Errorf("FEED_UNITS must not be negative, got %d", c.FeedUnits)
	}
	if c.ChartWidth <= 0 || c.ChartHeight <= 0 {
		return fmt.Errorf("CHART_WIDTH and CHART_HEIGHT must be positive")
	}
	if c.DisplayUpdateInterval <= 0 {
		return fmt.Errorf("DISPLAY_UPDATE_INTERVAL must be positive, got %d", c.DisplayUpdateInterval)
	}
	if c.FeedInterval <= 0 {
		return fmt.Errorf("FEED_INTERVAL must be positive, got %d", c.FeedInterval)
	}
	if c.FeedMode == FeedModeMQTT {
		if c.MQTTBroker == "" {
			return fmt.Errorf("MQTT_BROKER is required when FEED_MODE=mqtt")
		}
		if len(c.FeedTopics) == 0 {
			return fmt.Errorf("FEED_TOPICS is required when FEED_MODE=mqtt")
		}
	}
	if c.FeedMode == FeedModeHardware && len(c.FeedDevices) == 0 {
		return fmt.Errorf("FEED_DEVICES is required when FEED_MODE=hardware")
	}
	if c.FeedAccelLSB == 0 || c.FeedGyroLSB == 0 {
		return fmt.Errorf("FEED_ACCEL_LSB and FEED_GYRO_LSB must be non-zero")
	}
	return nil
}

// Interval converts a millisecond config value into a time.Duration.
func Interval(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// InitGlobal initializes the global configuration from file.
// Only the first call has any effect.
func InitGlobal(configPath string) error {
	var err error
	configOnce.Do(func() {
		configMu.Lock()
		defer configMu.Unlock()
		globalConfig, err = Load(configPath)
	})
	return err
}

// Get returns the global configuration instance.
// InitGlobal must be called first, or this will return nil.
func Get() *Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return globalConfig
}
