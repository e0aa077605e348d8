package dnsupdate

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

// ErrInvalidCredential is returned when TSIG key material cannot be used for signing.
var ErrInvalidCredential = errors.New("invalid tsig credential")

// Credential holds the TSIG shared-secret signing material.
// It is immutable after construction.
type Credential struct {
	// Name is the key name in FQDN form (trailing dot).
	Name string

	// Algorithm is the HMAC algorithm in miekg/dns form (e.g. dns.HmacSHA256).
	Algorithm string

	secret string
}

// NewCredential validates and builds a Credential.
// The secret must be base64-encoded and non-empty after decoding.
func NewCredential(name, algorithm, secret string) (*Credential, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: key name is required", ErrInvalidCredential)
	}

	alg, ok := normalizeAlgorithm(algorithm)
	if !ok {
		return nil, fmt.Errorf("%w: unsupported algorithm %q (supported: %s)",
			ErrInvalidCredential, algorithm, strings.Join(SupportedAlgorithms(), ", "))
	}

	raw, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		return nil, fmt.Errorf("%w: secret is not valid base64: %v", ErrInvalidCredential, err)
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: secret is empty", ErrInvalidCredential)
	}

	return &Credential{
		Name:      dns.Fqdn(name),
		Algorithm: alg,
		secret:    secret,
	}, nil
}

// Secret returns the base64-encoded shared secret.
func (c *Credential) Secret() string {
	return c.secret
}

// normalizeAlgorithm maps user-facing algorithm spellings to miekg/dns
// algorithm names. Reports false for algorithms outside the supported set.
func normalizeAlgorithm(alg string) (string, bool) {
	switch strings.TrimSuffix(strings.ToLower(strings.TrimSpace(alg)), ".") {
	case "hmac-sha1", "sha1":
		return dns.HmacSHA1, true
	case "hmac-sha224", "sha224":
		return dns.HmacSHA224, true
	case "hmac-sha256", "sha256", "":
		return dns.HmacSHA256, true
	case "hmac-sha384", "sha384":
		return dns.HmacSHA384, true
	case "hmac-sha512", "sha512":
		return dns.HmacSHA512, true
	default:
		return "", false
	}
}

// SupportedAlgorithms returns the accepted algorithm names.
func SupportedAlgorithms() []string {
	return []string{
		"hmac-sha1",
		"hmac-sha224",
		"hmac-sha256",
		"hmac-sha384",
		"hmac-sha512",
	}
}
