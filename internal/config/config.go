// Package config handles loading and validation of dnsanchor configuration
// from a config file, environment variables, and command-line overrides.
// Validation happens once here; the update pipeline receives only a
// validated Config.
package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// Defaults.
const (
	DefaultPort      = 53
	DefaultTTL       = 3600
	DefaultTimeout   = 5
	DefaultProtocol  = "udp"
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
	DefaultAlgorithm = "hmac-sha256"
)

// TSIGKey is one entry of the tsig key list. The first entry signs the
// update.
type TSIGKey struct {
	// Name is the key name (e.g. "dnsanchor").
	Name string `toml:"name" yaml:"name"`

	// Algorithm is the HMAC algorithm (hmac-sha1 through hmac-sha512).
	Algorithm string `toml:"algorithm" yaml:"algorithm"`

	// Secret is the base64-encoded shared secret.
	Secret string `toml:"secret" yaml:"secret"`
}

// Config is the full configuration surface.
type Config struct {
	// NameServer is the authoritative server receiving the update.
	NameServer string `toml:"name_server" yaml:"name_server"`

	// Port of the name server (default 53).
	Port int `toml:"port" yaml:"port"`

	// Zone being updated. Normalized to FQDN form by Normalize.
	Zone string `toml:"zone" yaml:"zone"`

	// Hostname is the owner name of the A record, relative to the zone
	// or absolute.
	Hostname string `toml:"hostname" yaml:"hostname"`

	// TTL of the published record, in seconds.
	TTL uint32 `toml:"ttl" yaml:"ttl"`

	// Timeout for the DNS exchange, in seconds.
	Timeout int `toml:"timeout" yaml:"timeout"`

	// Protocol is the preferred transport: "udp" (with tcp fallback) or
	// "tcp".
	Protocol string `toml:"protocol" yaml:"protocol"`

	// Interface to take the address from. Empty scans all up,
	// non-loopback interfaces.
	Interface string `toml:"interface" yaml:"interface"`

	// LogLevel: debug, info, warn, error.
	LogLevel string `toml:"log_level" yaml:"log_level"`

	// LogFormat: text or json.
	LogFormat string `toml:"log_format" yaml:"log_format"`

	// LogFile duplicates log output to a file when set.
	LogFile string `toml:"log_file" yaml:"log_file"`

	// MetricsFile, when set, receives the run's metrics in textfile
	// collector format.
	MetricsFile string `toml:"metrics_file" yaml:"metrics_file"`

	// TSIG is the key list; the first entry signs.
	TSIG []TSIGKey `toml:"tsig" yaml:"tsig"`
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Port:      DefaultPort,
		TTL:       DefaultTTL,
		Timeout:   DefaultTimeout,
		Protocol:  DefaultProtocol,
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// knownAlgorithms accepted in the tsig key list.
var knownAlgorithms = map[string]bool{
	"hmac-sha1":   true,
	"hmac-sha224": true,
	"hmac-sha256": true,
	"hmac-sha384": true,
	"hmac-sha512": true,
}

// Validate checks that all required configuration is present and
// internally consistent.
func (c *Config) Validate() error {
	var errs []string

	if c.NameServer == "" {
		errs = append(errs, "name_server is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Sprintf("port %d is out of range", c.Port))
	}
	if c.Zone == "" {
		errs = append(errs, "zone is required")
	}
	if c.Hostname == "" {
		errs = append(errs, "hostname is required")
	}
	if c.Timeout <= 0 {
		errs = append(errs, "timeout must be positive")
	}
	if c.Protocol != "udp" && c.Protocol != "tcp" {
		errs = append(errs, fmt.Sprintf("protocol %q is not udp or tcp", c.Protocol))
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level %q is not debug, info, warn, or error", c.LogLevel))
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Sprintf("log_format %q is not text or json", c.LogFormat))
	}

	if len(c.TSIG) == 0 {
		errs = append(errs, "at least one tsig key is required")
	}
	for i, key := range c.TSIG {
		if key.Name == "" {
			errs = append(errs, fmt.Sprintf("tsig[%d]: name is required", i))
		}
		if key.Secret == "" {
			errs = append(errs, fmt.Sprintf("tsig[%d]: secret is required", i))
		}
		if key.Algorithm != "" && !knownAlgorithms[strings.ToLower(key.Algorithm)] {
			errs = append(errs, fmt.Sprintf("tsig[%d]: unsupported algorithm %q", i, key.Algorithm))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Normalize applies canonical forms after all sources are merged: the
// zone gets its trailing dot, tsig algorithms get their default.
func (c *Config) Normalize() {
	if c.Zone != "" && !strings.HasSuffix(c.Zone, ".") {
		c.Zone += "."
	}
	for i := range c.TSIG {
		if c.TSIG[i].Algorithm == "" {
			c.TSIG[i].Algorithm = DefaultAlgorithm
		}
	}
}

// ServerAddr returns the name server in host:port form.
func (c *Config) ServerAddr() string {
	return net.JoinHostPort(c.NameServer, strconv.Itoa(c.Port))
}

// TimeoutDuration returns the exchange timeout.
func (c *Config) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// SigningKey returns the key that signs the update.
// Only valid after Validate.
func (c *Config) SigningKey() TSIGKey {
	return c.TSIG[0]
}

// Overrides carries command-line values. Nil fields leave the config
// untouched, so flags only override what the user actually set.
type Overrides struct {
	NameServer  *string
	Port        *int
	Zone        *string
	Hostname    *string
	TTL         *uint
	Timeout     *int
	Protocol    *string
	Interface   *string
	LogLevel    *string
	LogFormat   *string
	LogFile     *string
	MetricsFile *string

	TSIGName      *string
	TSIGAlgorithm *string
	TSIGSecret    *string
}

// Apply merges command-line overrides into the config. A TSIG key given
// on the command line is prepended so it becomes the signing key.
func (c *Config) Apply(o Overrides) {
	if o.NameServer != nil {
		c.NameServer = *o.NameServer
	}
	if o.Port != nil {
		c.Port = *o.Port
	}
	if o.Zone != nil {
		c.Zone = *o.Zone
	}
	if o.Hostname != nil {
		c.Hostname = *o.Hostname
	}
	if o.TTL != nil {
		c.TTL = uint32(*o.TTL)
	}
	if o.Timeout != nil {
		c.Timeout = *o.Timeout
	}
	if o.Protocol != nil {
		c.Protocol = *o.Protocol
	}
	if o.Interface != nil {
		c.Interface = *o.Interface
	}
	if o.LogLevel != nil {
		c.LogLevel = *o.LogLevel
	}
	if o.LogFormat != nil {
		c.LogFormat = *o.LogFormat
	}
	if o.LogFile != nil {
		c.LogFile = *o.LogFile
	}
	if o.MetricsFile != nil {
		c.MetricsFile = *o.MetricsFile
	}

	if o.TSIGName != nil && o.TSIGSecret != nil {
		key := TSIGKey{Name: *o.TSIGName, Secret: *o.TSIGSecret}
		if o.TSIGAlgorithm != nil {
			key.Algorithm = *o.TSIGAlgorithm
		}
		c.TSIG = append([]TSIGKey{key}, c.TSIG...)
	}
}
