package config

import (
	"os"
	"path/filepath"
)

const (
	// EnvConfigPath names an explicit config file
	EnvConfigPath = "EXPLORER_CONFIG"
	// ConfigFileName is looked up in the working directory
	ConfigFileName = "explorer.yaml"
	// ConfigDirName is the per-user and system config directory name
	ConfigDirName = "explorer"

	userConfigFile = "config.yaml"
)

// searchPaths lists candidate config files, highest priority first. Entries
// whose environment is unset are skipped.
func searchPaths() []string {
	var paths []string
	if explicit := os.Getenv(EnvConfigPath); explicit != "" {
		paths = append(paths, explicit)
	}
	paths = append(paths, ConfigFileName)
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, ConfigDirName, userConfigFile))
	}
	if home := os.Getenv("HOME"); home != "" {
		paths = append(paths, filepath.Join(home, ".config", ConfigDirName, userConfigFile))
	}
	return append(paths, filepath.Join("/etc", ConfigDirName, userConfigFile))
}

// FindConfigPath returns the first existing file from the search order, made
// absolute, or "" when there is none.
func FindConfigPath() string {
	for _, path := range searchPaths() {
		if !isFile(path) {
			continue
		}
		if abs, err := filepath.Abs(path); err == nil {
			return abs
		}
		return path
	}
	return ""
}

// DefaultConfigPath is where `config init` writes a new file
func DefaultConfigPath() string {
	if dir := userConfigDir(); dir != "" {
		return filepath.Join(dir, ConfigDirName, userConfigFile)
	}
	return ConfigFileName
}

func userConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return xdg
	}
	if home := os.Getenv("HOME"); home != "" {
		return filepath.Join(home, ".config")
	}
	return ""
}

// EnsureConfigDir creates the directory holding configPath
func EnsureConfigDir(configPath string) error {
	return os.MkdirAll(filepath.Dir(configPath), 0755)
}

// resolvePaths anchors the relative file settings read from a config file at
// the file's directory, so a config behaves the same from any working
// directory. Absolute paths and settings left to defaults are untouched.
func (c *Config) resolvePaths(configPath string) {
	dir := filepath.Dir(configPath)
	anchor := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}

	c.Database.Path = anchor(c.Database.Path)
	for i, p := range c.Explorer.TypeDefinitions {
		c.Explorer.TypeDefinitions[i] = anchor(p)
	}
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
