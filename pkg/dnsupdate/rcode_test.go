package dnsupdate

import (
	"testing"

	"github.com/miekg/dns"
)

func TestClassifyRcode(t *testing.T) {
	tests := []struct {
		rcode int
		want  Outcome
	}{
		{dns.RcodeSuccess, OutcomeSuccess},
		{dns.RcodeNotAuth, OutcomePermissionDenied},
		{dns.RcodeNotZone, OutcomeNotInZone},
		{dns.RcodeServerFailure, OutcomeServerFailure},
		{dns.RcodeFormatError, OutcomeFormatError},
		{dns.RcodeRefused, OutcomeRefused},
		{dns.RcodeNameError, OutcomeOther},
		{dns.RcodeNotImplemented, OutcomeOther},
	}

	for _, tt := range tests {
		t.Run(RcodeName(tt.rcode), func(t *testing.T) {
			if got := ClassifyRcode(tt.rcode); got != tt.want {
				t.Errorf("ClassifyRcode(%d) = %s, want %s", tt.rcode, got, tt.want)
			}
		})
	}
}

func TestRcodeName(t *testing.T) {
	if got := RcodeName(dns.RcodeRefused); got != "REFUSED" {
		t.Errorf("RcodeName(REFUSED) = %q", got)
	}
	if got := RcodeName(4095); got != "RCODE4095" {
		t.Errorf("RcodeName(4095) = %q, want RCODE4095", got)
	}
}
