package dnsupdate

import (
	"errors"
	"fmt"
	"net"

	"github.com/miekg/dns"
)

// ErrInvalidName is returned when the owner name is not a valid name
// subordinate to the zone being updated.
var ErrInvalidName = errors.New("invalid owner name for zone")

// Transaction is one dynamic update in its in-memory form: replace the
// owner's A RRset with a single A record holding Addr. It is built once,
// signed, transmitted, and discarded.
type Transaction struct {
	// Zone is the zone being updated, in FQDN form.
	Zone string

	// Owner is the FQDN the A record is asserted for.
	Owner string

	// TTL of the asserted record, in seconds. Zero is passed through
	// literally.
	TTL uint32

	// Addr is the IPv4 address being asserted.
	Addr net.IP

	msg *dns.Msg
}

// NewTransaction builds the UPDATE message for zone. The hostname may be
// relative to the zone ("host") or absolute ("host.example.com."); either
// way it must resolve to a name within the zone. The message deletes any
// existing A RRset for the owner and inserts exactly one A record.
func NewTransaction(zone, hostname string, ttl uint32, addr net.IP) (*Transaction, error) {
	zone = dns.Fqdn(zone)
	if _, ok := dns.IsDomainName(zone); !ok || zone == "." {
		return nil, fmt.Errorf("%w: bad zone %q", ErrInvalidName, zone)
	}

	owner, err := ownerName(zone, hostname)
	if err != nil {
		return nil, err
	}

	ip4 := addr.To4()
	if ip4 == nil {
		return nil, fmt.Errorf("not an IPv4 address: %v", addr)
	}

	a := &dns.A{
		Hdr: dns.RR_Header{
			Name:   owner,
			Rrtype: dns.TypeA,
			Class:  dns.ClassINET,
			Ttl:    ttl,
		},
		A: ip4,
	}

	msg := new(dns.Msg)
	msg.SetUpdate(zone)
	msg.RemoveRRset([]dns.RR{a})
	msg.Insert([]dns.RR{a})

	return &Transaction{
		Zone:  zone,
		Owner: owner,
		TTL:   ttl,
		Addr:  ip4,
		msg:   msg,
	}, nil
}

// ID returns the transaction identifier used to correlate the reply.
func (t *Transaction) ID() uint16 {
	return t.msg.Id
}

// SetID overrides the randomly chosen transaction identifier.
func (t *Transaction) SetID(id uint16) {
	t.msg.Id = id
}

// Msg returns the underlying update message. The message is consumed by
// signing; callers must not mutate it.
func (t *Transaction) Msg() *dns.Msg {
	return t.msg
}

// ownerName resolves hostname against zone and validates the result.
func ownerName(zone, hostname string) (string, error) {
	if hostname == "" {
		return "", fmt.Errorf("%w: hostname is required", ErrInvalidName)
	}

	// A relative hostname already subordinate to the zone (on a label
	// boundary) is taken as-is; anything else relative is rooted under
	// the zone origin.
	var owner string
	switch {
	case dns.IsFqdn(hostname):
		owner = hostname
	case dns.IsSubDomain(zone, dns.Fqdn(hostname)):
		owner = dns.Fqdn(hostname)
	default:
		owner = hostname + "." + zone
	}

	if _, ok := dns.IsDomainName(owner); !ok {
		return "", fmt.Errorf("%w: %q is not a valid domain name", ErrInvalidName, owner)
	}
	if !dns.IsSubDomain(zone, owner) {
		return "", fmt.Errorf("%w: %s is not within %s", ErrInvalidName, owner, zone)
	}

	return owner, nil
}
