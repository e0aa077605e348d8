package dnsupdate

import (
	"fmt"

	"github.com/miekg/dns"
)

// Outcome categorizes a server response code.
type Outcome int

const (
	// OutcomeSuccess: the update was applied.
	OutcomeSuccess Outcome = iota

	// OutcomePermissionDenied: the server is not authoritative or the key
	// is not allowed to update this name (NOTAUTH).
	OutcomePermissionDenied

	// OutcomeNotInZone: the owner name is outside the zone (NOTZONE).
	OutcomeNotInZone

	// OutcomeServerFailure: the server failed internally (SERVFAIL).
	OutcomeServerFailure

	// OutcomeFormatError: the server could not interpret the request
	// (FORMERR).
	OutcomeFormatError

	// OutcomeRefused: the server refused the update by policy (REFUSED).
	OutcomeRefused

	// OutcomeOther: any other non-success response code.
	OutcomeOther
)

// ClassifyRcode maps a response code to its outcome category.
func ClassifyRcode(rcode int) Outcome {
	switch rcode {
	case dns.RcodeSuccess:
		return OutcomeSuccess
	case dns.RcodeNotAuth:
		return OutcomePermissionDenied
	case dns.RcodeNotZone:
		return OutcomeNotInZone
	case dns.RcodeServerFailure:
		return OutcomeServerFailure
	case dns.RcodeFormatError:
		return OutcomeFormatError
	case dns.RcodeRefused:
		return OutcomeRefused
	default:
		return OutcomeOther
	}
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomePermissionDenied:
		return "permission_denied"
	case OutcomeNotInZone:
		return "not_in_zone"
	case OutcomeServerFailure:
		return "server_failure"
	case OutcomeFormatError:
		return "format_error"
	case OutcomeRefused:
		return "refused"
	default:
		return "other"
	}
}

// RcodeName returns the textual name of a response code.
func RcodeName(rcode int) string {
	if name, ok := dns.RcodeToString[rcode]; ok {
		return name
	}
	return fmt.Sprintf("RCODE%d", rcode)
}
