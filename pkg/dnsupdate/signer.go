package dnsupdate

import (
	"errors"
	"fmt"
	"time"

	"github.com/miekg/dns"
)

// ErrSigning is returned when a transaction cannot be serialized and signed.
var ErrSigning = errors.New("tsig signing failed")

// DefaultFudge is the default TSIG clock-skew tolerance, in seconds.
const DefaultFudge = 300

// Signer computes the TSIG signature over a serialized transaction.
type Signer struct {
	cred  *Credential
	fudge uint16
	now   func() time.Time
}

// SignerOption is a functional option for configuring the Signer.
type SignerOption func(*Signer)

// WithClock sets the time source used for the TSIG time-signed field.
// Fixing the clock makes signatures reproducible.
func WithClock(now func() time.Time) SignerOption {
	return func(s *Signer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithFudge sets the TSIG fudge window in seconds.
func WithFudge(fudge uint16) SignerOption {
	return func(s *Signer) {
		s.fudge = fudge
	}
}

// NewSigner creates a Signer for the given credential.
func NewSigner(cred *Credential, opts ...SignerOption) *Signer {
	s := &Signer{
		cred:  cred,
		fudge: DefaultFudge,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SignedEnvelope is a transaction serialized to wire form with its TSIG
// record appended. An envelope is single-use: every transmission attempt
// needs a fresh one so the time-signed field stays inside the fudge window.
type SignedEnvelope struct {
	// Wire is the complete message, TSIG record included.
	Wire []byte

	// MAC is the hex-encoded request MAC, needed to verify the reply.
	MAC string

	// ID is the transaction identifier carried in Wire.
	ID uint16

	// TimeSigned is the signing time embedded in the TSIG record.
	TimeSigned time.Time
}

// Sign serializes the transaction and appends its TSIG signature.
// The same transaction may be signed repeatedly; each call produces an
// envelope for the signing time of that call.
func (s *Signer) Sign(tx *Transaction) (*SignedEnvelope, error) {
	msg := tx.Msg()

	// A previous Sign may have left a TSIG stub behind.
	stripTsig(msg)

	now := s.now()
	msg.SetTsig(s.cred.Name, s.cred.Algorithm, s.fudge, now.Unix())

	wire, mac, err := dns.TsigGenerate(msg, s.cred.Secret(), "", false)
	if err != nil {
		stripTsig(msg)
		return nil, fmt.Errorf("%w: %v", ErrSigning, err)
	}
	stripTsig(msg)

	return &SignedEnvelope{
		Wire:       wire,
		MAC:        mac,
		ID:         msg.Id,
		TimeSigned: now,
	}, nil
}

// stripTsig removes a trailing TSIG record, if any.
func stripTsig(msg *dns.Msg) {
	if msg.IsTsig() != nil {
		msg.Extra = msg.Extra[:len(msg.Extra)-1]
	}
}
