// Package dnsupdate implements the RFC 2136 dynamic update exchange used
// to pin an A record to a host address.
//
// The pipeline is explicit: NewTransaction builds the update message
// (replace semantics: drop the owner's A RRset, insert one A record),
// Signer appends the TSIG signature (RFC 2845) over the serialized bytes,
// and Transport performs the exchange. UDP requests fall back to TCP when
// the message is too large for a datagram, the reply is truncated, or the
// datagram exchange times out; TCP frames messages with a 2-byte length
// prefix.
//
// Replies are never trusted implicitly: the transaction id must match the
// request and the reply must carry a TSIG signature that verifies against
// the same key, otherwise the exchange fails with
// ErrUnauthenticatedResponse.
//
// Generate TSIG keys with BIND's tsig-keygen:
//
//	tsig-keygen -a hmac-sha256 dnsanchor > dnsanchor.key
package dnsupdate
