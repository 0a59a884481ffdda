// Package config handles application configuration.
//
// Configuration covers two categories:
//   - Endpoints: which consensus node and mirror the wallet talks to
//   - Wallet settings: data directory, fee routing, logging
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// NetworkType identifies mainnet or testnet.
type NetworkType string

const (
	Mainnet NetworkType = "mainnet"
	Testnet NetworkType = "testnet"
)

// Config holds wallet runtime configuration.
type Config struct {
	// Core
	Network NetworkType `conf:"network"`
	DataDir string      `conf:"datadir"`

	// Consensus node endpoint
	Node NodeConfig

	// Mirror (read-side indexer) endpoint
	Mirror MirrorConfig

	// Service fee routing
	Fee FeeConfig

	// Logging
	Log LogConfig
}

// NodeConfig holds consensus node endpoint settings.
type NodeConfig struct {
	URL     string        `conf:"node.url"`
	Timeout time.Duration `conf:"node.timeout"`
}

// MirrorConfig holds mirror endpoint settings.
type MirrorConfig struct {
	URL     string        `conf:"mirror.url"`
	Timeout time.Duration `conf:"mirror.timeout"`
}

// FeeConfig holds service fee routing settings.
// PercentageCut is a percentage of each transfer amount, e.g. "1" or "0.5";
// an empty value or "0" disables the fee. Collector receives the fee.
type FeeConfig struct {
	PercentageCut string `conf:"fee.cut"`
	Collector     string `conf:"fee.collector"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `conf:"log.level"`
	File  string `conf:"log.file"`
	JSON  bool   `conf:"log.json"`
}

// =============================================================================
// Directory helpers
// =============================================================================

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.klingwallet
//	macOS:   ~/Library/Application Support/Klingwallet
//	Windows: %APPDATA%\Klingwallet
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".klingwallet"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "Klingwallet")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, "Klingwallet")
		}
		return filepath.Join(home, "AppData", "Roaming", "Klingwallet")
	default:
		return filepath.Join(home, ".klingwallet")
	}
}

// NetworkDataDir returns the network-specific data directory.
func (c *Config) NetworkDataDir() string {
	return filepath.Join(c.DataDir, string(c.Network))
}

// StoreDir returns the state store database directory.
func (c *Config) StoreDir() string {
	return filepath.Join(c.NetworkDataDir(), "store")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "klingwallet.conf")
}
