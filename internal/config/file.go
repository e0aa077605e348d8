package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix for environment variable configuration.
const EnvPrefix = "DDNS_"

// envVarPattern matches ${VAR} or ${VAR:-default} syntax.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// InterpolateEnvVars replaces ${VAR} patterns with environment variable
// values. Supports ${VAR:-default} syntax for default values.
func InterpolateEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		varName := groups[1]
		defaultValue := ""
		if len(groups) >= 3 {
			defaultValue = groups[2]
		}

		if value := os.Getenv(varName); value != "" {
			return value
		}
		return defaultValue
	})
}

// LoadFile reads a config file over the defaults. The format follows the
// extension: .toml, or .yml/.yaml.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	raw := InterpolateEnvVars(string(data))
	cfg := Default()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal([]byte(raw), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal([]byte(raw), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q (use .toml, .yml, or .yaml)", filepath.Ext(path))
	}

	return cfg, nil
}

// Load builds the configuration: defaults, then the config file (if path
// is non-empty and the file exists), then environment variables. Flag
// overrides and validation are the caller's final steps.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := LoadFile(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays DDNS_* environment variables.
func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := os.Getenv(EnvPrefix + key); v != "" {
			*dst = v
		}
	}

	setString("NAME_SERVER", &c.NameServer)
	setString("ZONE", &c.Zone)
	setString("HOSTNAME", &c.Hostname)
	setString("PROTOCOL", &c.Protocol)
	setString("INTERFACE", &c.Interface)
	setString("LOG_LEVEL", &c.LogLevel)
	setString("LOG_FORMAT", &c.LogFormat)
	setString("LOG_FILE", &c.LogFile)
	setString("METRICS_FILE", &c.MetricsFile)

	if v := os.Getenv(EnvPrefix + "PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sPORT %q: %w", EnvPrefix, v, err)
		}
		c.Port = port
	}
	if v := os.Getenv(EnvPrefix + "TTL"); v != "" {
		ttl, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return fmt.Errorf("invalid %sTTL %q: %w", EnvPrefix, v, err)
		}
		c.TTL = uint32(ttl)
	}
	if v := os.Getenv(EnvPrefix + "TIMEOUT"); v != "" {
		timeout, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sTIMEOUT %q: %w", EnvPrefix, v, err)
		}
		c.Timeout = timeout
	}

	// A key from the environment becomes the signing key. The secret
	// supports the _FILE indirection for secrets mounted as files.
	name := os.Getenv(EnvPrefix + "TSIG_KEY_NAME")
	secret := getEnvOrFile(EnvPrefix+"TSIG_SECRET", EnvPrefix+"TSIG_SECRET_FILE")
	if name != "" && secret != "" {
		c.TSIG = append([]TSIGKey{{
			Name:      name,
			Algorithm: os.Getenv(EnvPrefix + "TSIG_ALGORITHM"),
			Secret:    secret,
		}}, c.TSIG...)
	}

	return nil
}

// getEnvOrFile retrieves a value from either a direct environment
// variable or a file path specified by the file key. If both are set, the
// file takes precedence. File contents are trimmed of whitespace.
func getEnvOrFile(directKey, fileKey string) string {
	if filePath := os.Getenv(fileKey); filePath != "" {
		content, err := os.ReadFile(filePath)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return os.Getenv(directKey)
}
