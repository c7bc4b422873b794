// Package config loads mj settings from config.yaml, MJ_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DirName is the per-project settings directory.
const DirName = ".minijira"

// EnvPrefix prefixes every environment override (MJ_DB, MJ_AUTH_SECRET...).
const EnvPrefix = "MJ"

// Keys with their defaults.
const (
	KeyStorage     = "storage"
	KeyDB          = "db"
	KeyDirectory   = "directory"
	KeyAuthSecret  = "auth.secret"
	KeyTokenTTL    = "auth.token-ttl"
	KeyIssuePrefix = "issue-prefix"
	KeyToken       = "token"
	KeyJSON        = "json"
	KeyLogLevel    = "log.level"
	KeyLogFormat   = "log.format"
)

var v *viper.Viper

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyStorage, "sqlite")
	v.SetDefault(KeyDB, filepath.Join(DirName, "minijira.db"))
	v.SetDefault(KeyDirectory, filepath.Join(DirName, "directory.yaml"))
	v.SetDefault(KeyAuthSecret, "")
	v.SetDefault(KeyTokenTTL, 24*time.Hour)
	v.SetDefault(KeyIssuePrefix, "mj")
	v.SetDefault(KeyToken, "")
	v.SetDefault(KeyJSON, false)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
}

// Initialize sets up the viper configuration singleton.
// Should be called once at application startup; calling it again starts
// from a clean instance.
//
// Config file lookup order: ./.minijira/config.yaml, then
// $HOME/.config/minijira/config.yaml. A missing file is not an error.
func Initialize() error {
	v = viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(DirName)
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "minijira"))
	}

	// MJ_AUTH_SECRET -> auth.secret, MJ_ISSUE_PREFIX -> issue-prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// ResetForTesting drops the singleton so tests start from scratch.
func ResetForTesting() {
	v = nil
}

func instance() *viper.Viper {
	if v == nil {
		// Accessors stay usable before Initialize, with defaults only.
		v = viper.New()
		setDefaults(v)
	}
	return v
}

// GetString retrieves a string configuration value
func GetString(key string) string {
	return instance().GetString(key)
}

// GetBool retrieves a boolean configuration value
func GetBool(key string) bool {
	return instance().GetBool(key)
}

// GetDuration retrieves a duration configuration value
func GetDuration(key string) time.Duration {
	return instance().GetDuration(key)
}

// Set overrides a value for this process, e.g. from a command-line flag.
func Set(key string, value interface{}) {
	instance().Set(key, value)
}

// ConfigFileUsed returns the path of the loaded config file, or "".
func ConfigFileUsed() string {
	return instance().ConfigFileUsed()
}

// AllSettings returns the effective settings as a flat key -> value map.
func AllSettings() map[string]interface{} {
	out := make(map[string]interface{})
	for _, key := range instance().AllKeys() {
		out[key] = instance().Get(key)
	}
	return out
}
