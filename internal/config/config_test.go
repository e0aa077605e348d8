package config

import (
	"strings"
	"testing"
)

func validConfig() *Config {
	cfg := Default()
	cfg.NameServer = "192.0.2.53"
	cfg.Zone = "example.com"
	cfg.Hostname = "host"
	cfg.TSIG = []TSIGKey{{Name: "dnsanchor", Algorithm: "hmac-sha256", Secret: "c2VjcmV0"}}
	return cfg
}

func TestValidateAccepted(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{
			name:    "missing name server",
			mutate:  func(c *Config) { c.NameServer = "" },
			wantMsg: "name_server is required",
		},
		{
			name:    "missing zone",
			mutate:  func(c *Config) { c.Zone = "" },
			wantMsg: "zone is required",
		},
		{
			name:    "missing hostname",
			mutate:  func(c *Config) { c.Hostname = "" },
			wantMsg: "hostname is required",
		},
		{
			name:    "bad protocol",
			mutate:  func(c *Config) { c.Protocol = "sctp" },
			wantMsg: "protocol",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Port = 70000 },
			wantMsg: "port",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantMsg: "timeout",
		},
		{
			name:    "no tsig keys",
			mutate:  func(c *Config) { c.TSIG = nil },
			wantMsg: "tsig key is required",
		},
		{
			name:    "tsig key without secret",
			mutate:  func(c *Config) { c.TSIG[0].Secret = "" },
			wantMsg: "secret is required",
		},
		{
			name:    "unknown tsig algorithm",
			mutate:  func(c *Config) { c.TSIG[0].Algorithm = "hmac-md5" },
			wantMsg: "unsupported algorithm",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.LogLevel = "verbose" },
			wantMsg: "log_level",
		},
		{
			name:    "bad log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantMsg: "log_format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q does not mention %q", err, tt.wantMsg)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	cfg := validConfig()
	cfg.TSIG[0].Algorithm = ""
	cfg.Normalize()

	if cfg.Zone != "example.com." {
		t.Errorf("Zone = %q, want trailing dot", cfg.Zone)
	}
	if cfg.TSIG[0].Algorithm != DefaultAlgorithm {
		t.Errorf("Algorithm = %q, want default", cfg.TSIG[0].Algorithm)
	}

	// Already-normalized zone stays put.
	cfg.Normalize()
	if cfg.Zone != "example.com." {
		t.Errorf("Zone = %q after second Normalize", cfg.Zone)
	}
}

func TestServerAddr(t *testing.T) {
	cfg := validConfig()
	if got := cfg.ServerAddr(); got != "192.0.2.53:53" {
		t.Errorf("ServerAddr = %q, want 192.0.2.53:53", got)
	}
	cfg.Port = 5353
	if got := cfg.ServerAddr(); got != "192.0.2.53:5353" {
		t.Errorf("ServerAddr = %q, want 192.0.2.53:5353", got)
	}
}

func TestApplyOverrides(t *testing.T) {
	cfg := validConfig()

	zone := "example.org"
	ttl := uint(60)
	proto := "tcp"
	cfg.Apply(Overrides{
		Zone:     &zone,
		TTL:      &ttl,
		Protocol: &proto,
	})

	if cfg.Zone != "example.org" {
		t.Errorf("Zone = %q, want example.org", cfg.Zone)
	}
	if cfg.TTL != 60 {
		t.Errorf("TTL = %d, want 60", cfg.TTL)
	}
	if cfg.Protocol != "tcp" {
		t.Errorf("Protocol = %q, want tcp", cfg.Protocol)
	}
	// Untouched fields survive.
	if cfg.Hostname != "host" {
		t.Errorf("Hostname = %q, want host", cfg.Hostname)
	}
}

func TestApplyTSIGOverridePrepends(t *testing.T) {
	cfg := validConfig()

	name := "cli-key"
	secret := "b3RoZXI="
	alg := "hmac-sha512"
	cfg.Apply(Overrides{TSIGName: &name, TSIGSecret: &secret, TSIGAlgorithm: &alg})

	if len(cfg.TSIG) != 2 {
		t.Fatalf("got %d keys, want 2", len(cfg.TSIG))
	}
	signing := cfg.SigningKey()
	if signing.Name != "cli-key" || signing.Algorithm != "hmac-sha512" {
		t.Errorf("signing key = %+v, want the CLI key first", signing)
	}
}
