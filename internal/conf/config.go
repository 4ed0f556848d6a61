// Package conf defines the application settings and functions to load them
// from a config file, environment and defaults via viper.
package conf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Settings holds the complete configuration of the audit service.
type Settings struct {
	Debug bool // true to enable debug log output

	Main struct {
		Name string // name of this node, used in logs and exports
		Log  struct {
			Enabled bool   // true to enable file logging
			Path    string // path to log file
		}
	}

	WebServer struct {
		Enabled       bool   // true to start the HTTP API
		Port          string // port to listen on
		SessionTTLMin int    // reviewer session lifetime in minutes
	}

	Output struct {
		SQLite struct {
			Enabled bool   // true to use SQLite
			Path    string // path to SQLite database file
		}
		MySQL struct {
			Enabled  bool   // true to use MySQL
			Username string // MySQL username
			Password string // MySQL password
			Database string // MySQL database name
			Host     string // MySQL server host
			Port     string // MySQL server port
		}
	}

	Audit struct {
		Year             int // payroll cycle year covered by ingested workbooks
		FullCyclePeriods int // periods in a full cycle, 24 biweekly
	}
}

// Load reads the configuration from file (if present), environment and
// defaults, and unmarshals it into a Settings struct.
func Load() (*Settings, error) {
	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	settings := &Settings{}
	if err := viper.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}
	return settings, nil
}

// initViper initializes viper with default values and reads the
// configuration file when one exists; a missing file is not an error.
func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := GetDefaultConfigPaths()
	if err != nil {
		return err
	}
	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	setDefaultConfig()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !asConfigFileNotFound(err, &notFound) {
			return fmt.Errorf("fatal error reading config file: %w", err)
		}
	}
	return nil
}

func asConfigFileNotFound(err error, target *viper.ConfigFileNotFoundError) bool {
	v, ok := err.(viper.ConfigFileNotFoundError)
	if ok {
		*target = v
	}
	return ok
}

// GetDefaultConfigPaths returns the config file search path: working
// directory first, then the user config directory.
func GetDefaultConfigPaths() ([]string, error) {
	paths := []string{"."}
	configDir, err := os.UserConfigDir()
	if err == nil {
		paths = append(paths, filepath.Join(configDir, "scil"))
	}
	return paths, nil
}
