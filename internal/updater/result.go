package updater

import (
	"net"

	"gitlab.bluewillows.net/root/dnsanchor/pkg/dnsupdate"
)

// Kind classifies the outcome of one update run. Each kind maps to a
// distinct exit status so an external scheduler can tell transient
// failures (timeout, connection) from permanent ones (bad credential,
// bad name).
type Kind int

const (
	// KindSuccess: the record was updated.
	KindSuccess Kind = iota

	// KindNoInterface: the configured interface does not exist.
	KindNoInterface

	// KindNoAddress: the interface has no usable IPv4 address.
	KindNoAddress

	// KindCredential: the TSIG key material is unusable.
	KindCredential

	// KindBadName: the hostname is not a valid name within the zone.
	KindBadName

	// KindSigning: the transaction could not be serialized and signed.
	KindSigning

	// KindConnection: the name server could not be reached.
	KindConnection

	// KindTimeout: no reply on either transport within the timeout.
	KindTimeout

	// KindProtocol: the reply was malformed.
	KindProtocol

	// KindUnauthenticated: the reply could not be authenticated.
	KindUnauthenticated

	// KindRejected: the server answered with a non-success response code.
	KindRejected
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNoInterface:
		return "no_interface"
	case KindNoAddress:
		return "no_address"
	case KindCredential:
		return "bad_credential"
	case KindBadName:
		return "bad_name"
	case KindSigning:
		return "signing_failed"
	case KindConnection:
		return "connection_failed"
	case KindTimeout:
		return "timeout"
	case KindProtocol:
		return "protocol_error"
	case KindUnauthenticated:
		return "unauthenticated_response"
	case KindRejected:
		return "server_rejection"
	default:
		return "unknown"
	}
}

// ExitCode maps the kind to the process exit status. Zero is success;
// exit code 1 is reserved for configuration errors raised before the
// pipeline runs.
func (k Kind) ExitCode() int {
	switch k {
	case KindSuccess:
		return 0
	case KindNoInterface:
		return 2
	case KindNoAddress:
		return 3
	case KindCredential:
		return 4
	case KindBadName:
		return 5
	case KindSigning:
		return 6
	case KindConnection:
		return 7
	case KindTimeout:
		return 8
	case KindProtocol:
		return 9
	case KindUnauthenticated:
		return 10
	case KindRejected:
		return 11
	default:
		return 12
	}
}

// Result is the outcome of one update run.
type Result struct {
	// Kind classifies the run.
	Kind Kind

	// Address is the address that was submitted, when resolution
	// succeeded.
	Address net.IP

	// Rcode is the server's response code; valid only when RcodeSet.
	Rcode    int
	RcodeSet bool

	// Outcome categorizes the rcode when a reply was received.
	Outcome dnsupdate.Outcome

	// Message is a human-readable account of what happened.
	Message string
}

// OK reports whether the update was applied.
func (r Result) OK() bool {
	return r.Kind == KindSuccess
}
