package dnsupdate

import (
	"errors"
	"testing"

	"github.com/miekg/dns"
)

func TestNewCredential(t *testing.T) {
	tests := []struct {
		name      string
		keyName   string
		algorithm string
		secret    string
		wantErr   bool
		wantName  string
		wantAlg   string
	}{
		{
			name:      "sha256 with dot",
			keyName:   "dnsanchor.",
			algorithm: "hmac-sha256",
			secret:    "c2VjcmV0", // base64 of "secret"
			wantName:  "dnsanchor.",
			wantAlg:   dns.HmacSHA256,
		},
		{
			name:      "name without dot gets one",
			keyName:   "dnsanchor",
			algorithm: "hmac-sha256",
			secret:    "c2VjcmV0",
			wantName:  "dnsanchor.",
			wantAlg:   dns.HmacSHA256,
		},
		{
			name:      "short algorithm spelling",
			keyName:   "k.",
			algorithm: "sha512",
			secret:    "c2VjcmV0",
			wantName:  "k.",
			wantAlg:   dns.HmacSHA512,
		},
		{
			name:      "sha1",
			keyName:   "k.",
			algorithm: "hmac-sha1",
			secret:    "c2VjcmV0",
			wantName:  "k.",
			wantAlg:   dns.HmacSHA1,
		},
		{
			name:      "sha224",
			keyName:   "k.",
			algorithm: "HMAC-SHA224",
			secret:    "c2VjcmV0",
			wantName:  "k.",
			wantAlg:   dns.HmacSHA224,
		},
		{
			name:      "sha384",
			keyName:   "k.",
			algorithm: "hmac-sha384",
			secret:    "c2VjcmV0",
			wantName:  "k.",
			wantAlg:   dns.HmacSHA384,
		},
		{
			name:      "empty algorithm defaults to sha256",
			keyName:   "k.",
			algorithm: "",
			secret:    "c2VjcmV0",
			wantName:  "k.",
			wantAlg:   dns.HmacSHA256,
		},
		{
			name:      "unknown algorithm",
			keyName:   "k.",
			algorithm: "hmac-md5",
			secret:    "c2VjcmV0",
			wantErr:   true,
		},
		{
			name:      "empty key name",
			keyName:   "",
			algorithm: "hmac-sha256",
			secret:    "c2VjcmV0",
			wantErr:   true,
		},
		{
			name:      "secret not base64",
			keyName:   "k.",
			algorithm: "hmac-sha256",
			secret:    "not-valid-base64!!!",
			wantErr:   true,
		},
		{
			name:      "empty secret",
			keyName:   "k.",
			algorithm: "hmac-sha256",
			secret:    "",
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cred, err := NewCredential(tt.keyName, tt.algorithm, tt.secret)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidCredential) {
					t.Errorf("error = %v, want ErrInvalidCredential", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cred.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", cred.Name, tt.wantName)
			}
			if cred.Algorithm != tt.wantAlg {
				t.Errorf("Algorithm = %q, want %q", cred.Algorithm, tt.wantAlg)
			}
			if cred.Secret() != tt.secret {
				t.Errorf("Secret() = %q, want %q", cred.Secret(), tt.secret)
			}
		})
	}
}
