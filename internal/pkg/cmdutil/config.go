// Package cmdutil provides shared utilities for CLI command implementations.
package cmdutil

import (
	"time"

	"github.com/endorses/routefilter/internal/pkg/inventory"
	"github.com/spf13/viper"
)

// InventoryPath returns the inventory file from the flag, then the
// inventory.file config key, then the default location.
func InventoryPath(flagValue string) string {
	if path := GetStringConfig("inventory.file", flagValue); path != "" {
		return path
	}
	return inventory.DefaultPath()
}

// GetStringConfig returns flagValue if set, otherwise the config value for key.
// Flag values take precedence over config file values.
func GetStringConfig(key, flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return viper.GetString(key)
}

// GetIntConfig returns flagValue if non-zero, otherwise the config value for key.
func GetIntConfig(key string, flagValue int) int {
	if flagValue != 0 {
		return flagValue
	}
	return viper.GetInt(key)
}

// GetBoolConfig returns the config value for key, or flagValue if the key is not set.
func GetBoolConfig(key string, flagValue bool) bool {
	if flagValue {
		return true
	}
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return flagValue
}

// GetDurationConfig returns flagValue if positive, otherwise the config value
// for key, otherwise def.
func GetDurationConfig(key string, flagValue, def time.Duration) time.Duration {
	if flagValue > 0 {
		return flagValue
	}
	if d := viper.GetDuration(key); d > 0 {
		return d
	}
	return def
}
