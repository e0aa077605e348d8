package dnsupdate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/miekg/dns"
)

// Transport failure modes.
var (
	// ErrConnection is returned when the name server cannot be reached.
	ErrConnection = errors.New("connection to dns server failed")

	// ErrTimeout is returned when no reply arrives within the timeout on
	// either transport.
	ErrTimeout = errors.New("dns exchange timed out")

	// ErrProtocol is returned when the reply cannot be parsed.
	ErrProtocol = errors.New("malformed dns reply")

	// ErrUnauthenticatedResponse is returned when the reply cannot be tied
	// to the request: wrong transaction id, missing TSIG, or a MAC that
	// does not verify. Such a reply must not be trusted.
	ErrUnauthenticatedResponse = errors.New("dns reply is not authenticated")
)

// Network selects the transport for the initial attempt.
type Network string

const (
	NetworkUDP Network = "udp"
	NetworkTCP Network = "tcp"
)

// DefaultMaxDatagram is the largest request sent over UDP. The update
// message carries no EDNS0 OPT record, so the classic 512-byte limit
// applies; anything larger goes straight to TCP.
const DefaultMaxDatagram = dns.MinMsgSize

// EnvelopeFunc produces a freshly signed envelope for one transmission
// attempt. Envelopes are single-use, so every attempt re-derives one.
type EnvelopeFunc func() (*SignedEnvelope, error)

// Reply is a validated, authenticated server response.
type Reply struct {
	// Rcode is the response code.
	Rcode int

	// Msg is the parsed response message.
	Msg *dns.Msg
}

// Transport sends signed update messages to one name server. UDP is
// retried over TCP when the request is too large for a datagram, the
// reply comes back truncated, or the datagram exchange times out.
type Transport struct {
	server      string
	preferred   Network
	timeout     time.Duration
	cred        *Credential
	maxDatagram int
	logger      *slog.Logger
}

// TransportOption is a functional option for configuring the Transport.
type TransportOption func(*Transport)

// WithTransportLogger sets a custom logger.
func WithTransportLogger(logger *slog.Logger) TransportOption {
	return func(t *Transport) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithMaxDatagram overrides the UDP size threshold.
func WithMaxDatagram(size int) TransportOption {
	return func(t *Transport) {
		if size > 0 {
			t.maxDatagram = size
		}
	}
}

// NewTransport creates a Transport for one name server. Replies are
// authenticated against cred.
func NewTransport(server string, preferred Network, timeout time.Duration, cred *Credential, opts ...TransportOption) *Transport {
	t := &Transport{
		server:      server,
		preferred:   preferred,
		timeout:     timeout,
		cred:        cred,
		maxDatagram: DefaultMaxDatagram,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send transmits one update and returns the authenticated reply.
func (t *Transport) Send(ctx context.Context, sign EnvelopeFunc) (*Reply, error) {
	env, err := sign()
	if err != nil {
		return nil, err
	}

	if t.preferred == NetworkTCP {
		return t.exchange(ctx, NetworkTCP, env)
	}

	if len(env.Wire) > t.maxDatagram {
		t.logger.Debug("request exceeds datagram limit, using tcp",
			slog.Int("size", len(env.Wire)),
			slog.Int("limit", t.maxDatagram),
		)
		return t.exchange(ctx, NetworkTCP, env)
	}

	reply, err := t.exchange(ctx, NetworkUDP, env)
	switch {
	case err == nil && reply.Msg.Truncated:
		t.logger.Debug("reply truncated, retrying over tcp",
			slog.String("server", t.server),
		)
	case errors.Is(err, ErrTimeout):
		t.logger.Debug("udp exchange timed out, retrying over tcp",
			slog.String("server", t.server),
			slog.Duration("timeout", t.timeout),
		)
	case err != nil:
		return nil, err
	default:
		return reply, nil
	}

	// The fudge window may have moved on; re-derive the envelope.
	env, err = sign()
	if err != nil {
		return nil, err
	}
	return t.exchange(ctx, NetworkTCP, env)
}

// exchange performs one request/reply round trip over the given network.
// The connection is scoped to this call and closed on every path.
func (t *Transport) exchange(ctx context.Context, network Network, env *SignedEnvelope) (*Reply, error) {
	dialer := net.Dialer{Timeout: t.timeout}
	raw, err := dialer.DialContext(ctx, string(network), t.server)
	if err != nil {
		return nil, classifyNetErr(err)
	}

	co := &dns.Conn{Conn: raw}
	defer co.Close()

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := co.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnection, err)
	}

	// dns.Conn prepends the 2-byte length prefix on TCP.
	if _, err := co.Write(env.Wire); err != nil {
		return nil, classifyNetErr(err)
	}

	buf := make([]byte, dns.MaxMsgSize)
	n, err := co.Read(buf)
	if err != nil {
		return nil, classifyNetErr(err)
	}

	return t.verifyReply(network, env, buf[:n])
}

// verifyReply parses the raw reply and authenticates it against the
// request envelope. A truncated UDP reply skips TSIG verification: its
// content is discarded and the exchange repeated over TCP. On TCP
// there is no retry to hide behind, so every reply must verify.
func (t *Transport) verifyReply(network Network, env *SignedEnvelope, wire []byte) (*Reply, error) {
	resp := new(dns.Msg)
	if err := resp.Unpack(wire); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocol, err)
	}

	if resp.Id != env.ID {
		return nil, fmt.Errorf("%w: transaction id %d does not match request %d",
			ErrUnauthenticatedResponse, resp.Id, env.ID)
	}

	if resp.Truncated && network == NetworkUDP {
		return &Reply{Rcode: resp.Rcode, Msg: resp}, nil
	}

	if resp.IsTsig() == nil {
		return nil, fmt.Errorf("%w: reply carries no tsig record", ErrUnauthenticatedResponse)
	}

	if err := dns.TsigVerify(wire, t.cred.Secret(), env.MAC, false); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthenticatedResponse, err)
	}

	return &Reply{Rcode: resp.Rcode, Msg: resp}, nil
}

// classifyNetErr maps socket errors onto the transport failure modes.
func classifyNetErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}
