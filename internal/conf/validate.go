// conf/validate.go configuration validation
package conf

import (
	"fmt"
	"strconv"
)

// Consts for session handling.
const (
	// DefaultSession is the protected session every install has. It can
	// never be deleted and is the fallback target for live scan output.
	DefaultSession = "default"

	// MinSignalFloorDbm and MaxSignalFloorDbm bound the configurable
	// signal floor. Values outside this range are rejected.
	MinSignalFloorDbm = -120.0
	MaxSignalFloorDbm = 0.0
)

// Validate checks a single scanner configuration. It returns an error
// describing the first violated bound; the caller must leave the previous
// configuration in effect when an error is returned.
func (c *ScannerSettings) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("scan interval must be greater than zero, got %g", c.Interval)
	}
	if c.SignalFloorDbm < MinSignalFloorDbm || c.SignalFloorDbm > MaxSignalFloorDbm {
		return fmt.Errorf("signal floor must be between %g and %g dBm, got %g",
			MinSignalFloorDbm, MaxSignalFloorDbm, c.SignalFloorDbm)
	}
	return nil
}

// ValidateSettings checks the whole settings tree for values that would
// otherwise surface as runtime failures deep inside the daemon.
func ValidateSettings(s *Settings) error {
	for name, cfg := range map[string]ScannerSettings{
		"wifi":      s.Scanners.WiFi,
		"bluetooth": s.Scanners.Bluetooth,
		"cell":      s.Scanners.Cell,
	} {
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("scanner %s: %w", name, err)
		}
	}

	if !s.Output.SQLite.Enabled && !s.Output.MySQL.Enabled {
		return fmt.Errorf("no database output enabled")
	}

	if s.Retention.Enabled {
		if _, err := ParseRetentionPeriod(s.Retention.MaxAge); err != nil {
			return fmt.Errorf("retention: %w", err)
		}
	}

	if s.Survey.Session == "" {
		s.Survey.Session = DefaultSession
	}

	return nil
}

// ParseRetentionPeriod converts a retention period string to hours. Accepted
// forms are a plain integer (hours) or an integer with an h/d/w/m/y suffix.
func ParseRetentionPeriod(retention string) (int, error) {
	if retention == "" {
		return 0, fmt.Errorf("retention period cannot be empty")
	}

	lastChar := retention[len(retention)-1]
	numberPart := retention[:len(retention)-1]

	// Plain integer means hours.
	if lastChar >= '0' && lastChar <= '9' {
		hours, err := strconv.Atoi(retention)
		if err != nil {
			return 0, fmt.Errorf("invalid retention period format: %s", retention)
		}
		return hours, nil
	}

	number, err := strconv.Atoi(numberPart)
	if err != nil {
		return 0, fmt.Errorf("invalid retention period format: %s", retention)
	}

	switch lastChar {
	case 'h':
		return number, nil
	case 'd':
		return number * 24, nil
	case 'w':
		return number * 24 * 7, nil
	case 'm':
		return number * 24 * 30, nil // Approximation, as months can vary in length
	case 'y':
		return number * 24 * 365, nil // Ignoring leap years for simplicity
	default:
		return 0, fmt.Errorf("invalid suffix for retention period: %c", lastChar)
	}
}
