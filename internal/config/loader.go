package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".tablecrawl"

// LoadConfigFile loads site definitions from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, err
	}

	f, err := parseFile(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return f, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .tablecrawl in the current directory
// 3. Look for .tablecrawl in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	if cwd, err := os.Getwd(); err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	if home, err := os.UserHomeDir(); err == nil {
		homeConfig := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(homeConfig); err == nil {
			return homeConfig
		}
	}

	return ""
}

// LoadSites returns the built-in sites overlaid by the config file, and the
// path of the file that was used ("" when none). An explicit configPath
// that does not exist is an error; a missing default file is not.
func LoadSites(configPath string) (*File, string, error) {
	builtin, err := BuiltinSites()
	if err != nil {
		return nil, "", err
	}

	path := FindConfigFile(configPath)
	if path == "" {
		if configPath != "" {
			return nil, "", fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return builtin, "", nil
	}

	file, err := LoadConfigFile(path)
	if err != nil {
		return nil, path, err
	}

	merged := Merge(builtin, file)
	if err := merged.Validate(); err != nil {
		return nil, path, fmt.Errorf("%s: %w", path, err)
	}
	return merged, path, nil
}
