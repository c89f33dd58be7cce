// config.go: settings struct for the radiowatch daemon and functions to load and access it.
package conf

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"
)

// ScannerSettings is the per-sensor-type scan configuration. Each scan
// scheduler owns a copy of this value; it is handed over at construction
// and on explicit updates, never read from ambient state mid-cycle.
type ScannerSettings struct {
	Enabled        bool    // true to run this scanner
	Interval       float64 // scan cycle interval in seconds
	SignalFloorDbm float64 // detections below this signal strength are dropped
}

// ScannersSettings groups the configuration of the three sensor types.
type ScannersSettings struct {
	WiFi      ScannerSettings
	Bluetooth ScannerSettings
	Cell      ScannerSettings
}

// LogConfig defines the configuration for log files
type LogConfig struct {
	Enabled bool   // true to enable file logging
	Path    string // path to log file
	MaxSize int64  // max log file size in bytes before rotation
}

// MainSettings contains general application settings.
type MainSettings struct {
	Name string    // instance name, used as source node and MQTT client id
	Log  LogConfig // main log file settings
}

// SurveySettings controls where live scan output lands.
type SurveySettings struct {
	Session   string  // session (folder) receiving live scan output
	Latitude  float64 // origin latitude stamped on detections
	Longitude float64 // origin longitude stamped on detections
	SpoolPath string  // directory watched by replay observation sources
}

// RetentionSettings controls the raw ledger sweep run at process start.
type RetentionSettings struct {
	Enabled bool
	MaxAge  string // maximum age of raw detections, e.g. "7d", "168h"
}

// OutputSettings contains the database output configuration.
type OutputSettings struct {
	SQLite struct {
		Enabled bool
		Path    string
	}
	MySQL struct {
		Enabled  bool
		Username string
		Password string
		Database string
		Host     string
		Port     string
	}
}

// MQTTSettings contains settings for publishing resolved devices to a broker.
type MQTTSettings struct {
	Enabled  bool
	Broker   string // broker URL, e.g. tcp://localhost:1883
	Topic    string
	Username string
	Password string
}

// UplinkSettings configures the batch upload of unsent raw detections.
type UplinkSettings struct {
	Enabled   bool
	Endpoint  string // HTTP endpoint receiving detection batches
	BatchSize int
	Timeout   int // request timeout in seconds
}

// WebServerSettings configures the HTTP query surface.
type WebServerSettings struct {
	Enabled bool
	Listen  string
}

// TelemetrySettings configures the Prometheus metrics endpoint.
type TelemetrySettings struct {
	Enabled bool
	Listen  string
}

// Settings is the root configuration for radiowatch.
type Settings struct {
	Debug bool

	Main      MainSettings
	Scanners  ScannersSettings
	Survey    SurveySettings
	Retention RetentionSettings
	Output    OutputSettings
	MQTT      MQTTSettings
	Uplink    UplinkSettings
	WebServer WebServerSettings
	Telemetry TelemetrySettings
}

var (
	settingsInstance *Settings
	once             sync.Once
	settingsMutex    sync.RWMutex
)

// Load reads the configuration into the package-level Settings instance.
func Load() (*Settings, error) {
	settingsMutex.Lock()
	defer settingsMutex.Unlock()

	settings := &Settings{}

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	settingsInstance = settings
	return settingsInstance, nil
}

// initViper sets up the viper instance: defaults, config paths and file.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// No config file found, defaults apply. Write one so the operator
		// has something to edit.
		configPath := filepath.Join(configPaths[0], "config.yaml")
		if err := createDefaultConfig(configPath); err != nil {
			log.Printf("unable to write default config file: %v", err)
		}
	}

	return nil
}

// createDefaultConfig writes the current (default) viper state to configPath.
func createDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}
	if err := viper.SafeWriteConfigAs(configPath); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}
	return nil
}

// GetDefaultConfigPaths returns the list of directories searched for config.yaml.
func GetDefaultConfigPaths() ([]string, error) {
	if path := os.Getenv("RADIOWATCH_CONFIG_PATH"); path != "" {
		return []string{path}, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user home directory: %w", err)
	}

	return []string{
		filepath.Join(homeDir, ".config", "radiowatch"),
		".",
	}, nil
}

// Setting returns the shared Settings instance, loading it on first use.
func Setting() *Settings {
	once.Do(func() {
		if settingsInstance == nil {
			if _, err := Load(); err != nil {
				log.Fatalf("error loading settings: %v", err)
			}
		}
	})

	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// ScannerSettings returns a copy of the configuration for the named sensor
// type ("wifi", "bluetooth" or "cell").
func (s *Settings) ScannerSettings(name string) (ScannerSettings, error) {
	switch name {
	case "wifi":
		return s.Scanners.WiFi, nil
	case "bluetooth":
		return s.Scanners.Bluetooth, nil
	case "cell":
		return s.Scanners.Cell, nil
	default:
		return ScannerSettings{}, fmt.Errorf("unknown scanner type: %q", name)
	}
}

// SetScannerSettings validates and applies the given configuration for the
// named sensor type. Invalid configuration is rejected and the previous
// values stay in effect.
func (s *Settings) SetScannerSettings(name string, cfg ScannerSettings) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	switch name {
	case "wifi":
		s.Scanners.WiFi = cfg
	case "bluetooth":
		s.Scanners.Bluetooth = cfg
	case "cell":
		s.Scanners.Cell = cfg
	default:
		return fmt.Errorf("unknown scanner type: %q", name)
	}
	return nil
}
