// Package config provides HCL configuration handling for the daemon.
package config

import (
	"fmt"
	"time"

	"grimm.is/burrow/internal/brand"
	"grimm.is/burrow/internal/logging"
)

// Config is the root daemon configuration.
type Config struct {
	Log     *Log     `hcl:"log,block" json:"log,omitempty"`
	API     *API     `hcl:"api,block" json:"api,omitempty"`
	Netlink *Netlink `hcl:"netlink,block" json:"netlink,omitempty"`
	Rules   *Rules   `hcl:"rules,block" json:"rules,omitempty"`
}

// Log configures logging output.
type Log struct {
	Level string `hcl:"level,optional" json:"level,omitempty"`
	JSON  bool   `hcl:"json,optional" json:"json"`
}

// API configures the unix-socket API listener.
type API struct {
	Socket string `hcl:"socket,optional" json:"socket,omitempty"`
	// AllowedUIDs are peer UIDs permitted to call the API in addition
	// to root. An empty list means root only.
	AllowedUIDs []int `hcl:"allowed_uids,optional" json:"allowed_uids,omitempty"`
}

// Netlink configures kernel socket behavior.
type Netlink struct {
	TimeoutMS         int `hcl:"timeout_ms,optional" json:"timeout_ms,omitempty"`
	BusyRetryAttempts int `hcl:"busy_retry_attempts,optional" json:"busy_retry_attempts,omitempty"`
	BusyRetryDelayMS  int `hcl:"busy_retry_delay_ms,optional" json:"busy_retry_delay_ms,omitempty"`
}

// Rules configures policy-rule behavior.
type Rules struct {
	// AcceptDuplicate controls what happens when the kernel rejects a
	// rule add with "file exists". The kernel report is unreliable for
	// duplicate detection (rules sharing a priority can trigger it
	// spuriously), so the choice is left to the operator: false surfaces
	// the rejection, true treats it as a no-op success. The raw errno is
	// logged either way.
	AcceptDuplicate bool `hcl:"accept_duplicate,optional" json:"accept_duplicate"`
}

// Default returns a fully-populated configuration with default values.
func Default() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills in zero-valued fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Log == nil {
		c.Log = &Log{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.API == nil {
		c.API = &API{}
	}
	if c.API.Socket == "" {
		c.API.Socket = brand.GetSocketPath()
	}
	if c.Netlink == nil {
		c.Netlink = &Netlink{}
	}
	if c.Netlink.TimeoutMS == 0 {
		c.Netlink.TimeoutMS = 1000
	}
	if c.Netlink.BusyRetryAttempts == 0 {
		c.Netlink.BusyRetryAttempts = 5
	}
	if c.Netlink.BusyRetryDelayMS == 0 {
		c.Netlink.BusyRetryDelayMS = 50
	}
	if c.Rules == nil {
		c.Rules = &Rules{}
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	if c.Netlink.TimeoutMS < 0 {
		return fmt.Errorf("netlink timeout_ms must be >= 0, got %d", c.Netlink.TimeoutMS)
	}
	if c.Netlink.BusyRetryAttempts < 1 {
		return fmt.Errorf("busy_retry_attempts must be >= 1, got %d", c.Netlink.BusyRetryAttempts)
	}
	for _, uid := range c.API.AllowedUIDs {
		if uid < 0 {
			return fmt.Errorf("invalid allowed uid %d", uid)
		}
	}
	return nil
}

// NetlinkTimeout returns the configured netlink reply timeout.
func (c *Config) NetlinkTimeout() time.Duration {
	return time.Duration(c.Netlink.TimeoutMS) * time.Millisecond
}

// BusyRetryDelay returns the initial delay between EBUSY retries.
func (c *Config) BusyRetryDelay() time.Duration {
	return time.Duration(c.Netlink.BusyRetryDelayMS) * time.Millisecond
}

// LogLevel translates the configured level string for the logger.
func (c *Config) LogLevel() logging.Level {
	switch c.Log.Level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
