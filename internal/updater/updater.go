// Package updater runs the update pipeline: resolve the interface
// address, build the update transaction, sign it, transmit it, and
// classify the server's reply.
package updater

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"gitlab.bluewillows.net/root/dnsanchor/internal/config"
	"gitlab.bluewillows.net/root/dnsanchor/internal/ifaddr"
	"gitlab.bluewillows.net/root/dnsanchor/internal/metrics"
	"gitlab.bluewillows.net/root/dnsanchor/pkg/dnsupdate"
)

// AddressResolver yields the IPv4 address to publish.
type AddressResolver interface {
	Resolve(ifaceName string) (net.IP, error)
}

// Sender performs the signed exchange with the name server.
type Sender interface {
	Send(ctx context.Context, sign dnsupdate.EnvelopeFunc) (*dnsupdate.Reply, error)
}

// Updater orchestrates one update run. Every run builds fresh state; an
// Updater holds no per-run resources and may be reused, but two
// concurrent runs never share a transport or signing context.
type Updater struct {
	cfg      *config.Config
	resolver AddressResolver
	sender   Sender
	logger   *slog.Logger
	now      func() time.Time
}

// Option is a functional option for configuring the Updater.
type Option func(*Updater)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Updater) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// WithResolver substitutes the address resolver.
func WithResolver(r AddressResolver) Option {
	return func(u *Updater) {
		if r != nil {
			u.resolver = r
		}
	}
}

// WithSender substitutes the transport.
func WithSender(s Sender) Option {
	return func(u *Updater) {
		if s != nil {
			u.sender = s
		}
	}
}

// WithClock sets the time source for TSIG signing.
func WithClock(now func() time.Time) Option {
	return func(u *Updater) {
		if now != nil {
			u.now = now
		}
	}
}

// New creates an Updater for a validated configuration.
func New(cfg *config.Config, opts ...Option) *Updater {
	u := &Updater{
		cfg:    cfg,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.resolver == nil {
		u.resolver = ifaddr.New(ifaddr.WithLogger(u.logger))
	}
	return u
}

// Run executes one update and classifies the outcome. A failure at any
// step short-circuits the rest; a failed run leaves the zone unchanged.
func (u *Updater) Run(ctx context.Context) Result {
	start := u.now()
	result := u.run(ctx)
	metrics.ObserveRun(result.Kind.String(), time.Since(start), result.OK())
	return result
}

func (u *Updater) run(ctx context.Context) Result {
	cfg := u.cfg

	u.logger.Info("update attempt started",
		slog.String("zone", cfg.Zone),
		slog.String("hostname", cfg.Hostname),
		slog.String("server", cfg.ServerAddr()),
		slog.String("protocol", cfg.Protocol),
	)

	addr, err := u.resolver.Resolve(cfg.Interface)
	if err != nil {
		kind := KindNoAddress
		if errors.Is(err, ifaddr.ErrNoInterface) {
			kind = KindNoInterface
		}
		return u.fail(kind, nil, err)
	}

	u.logger.Info("address resolved",
		slog.String("interface", cfg.Interface),
		slog.String("address", addr.String()),
	)

	key := cfg.SigningKey()
	cred, err := dnsupdate.NewCredential(key.Name, key.Algorithm, key.Secret)
	if err != nil {
		return u.fail(KindCredential, addr, err)
	}

	tx, err := dnsupdate.NewTransaction(cfg.Zone, cfg.Hostname, cfg.TTL, addr)
	if err != nil {
		return u.fail(KindBadName, addr, err)
	}

	signer := dnsupdate.NewSigner(cred, dnsupdate.WithClock(u.now))

	sender := u.sender
	if sender == nil {
		sender = dnsupdate.NewTransport(
			cfg.ServerAddr(),
			dnsupdate.Network(cfg.Protocol),
			cfg.TimeoutDuration(),
			cred,
			dnsupdate.WithTransportLogger(u.logger),
		)
	}

	u.logger.Debug("sending update",
		slog.String("owner", tx.Owner),
		slog.Uint64("ttl", uint64(tx.TTL)),
		slog.Int("id", int(tx.ID())),
	)

	reply, err := sender.Send(ctx, func() (*dnsupdate.SignedEnvelope, error) {
		return signer.Sign(tx)
	})
	if err != nil {
		return u.fail(classifyTransportErr(err), addr, err)
	}

	outcome := dnsupdate.ClassifyRcode(reply.Rcode)
	u.logger.Info("response received",
		slog.String("rcode", dnsupdate.RcodeName(reply.Rcode)),
		slog.String("outcome", outcome.String()),
	)

	if outcome != dnsupdate.OutcomeSuccess {
		result := Result{
			Kind:     KindRejected,
			Address:  addr,
			Rcode:    reply.Rcode,
			RcodeSet: true,
			Outcome:  outcome,
			Message: fmt.Sprintf("server rejected update for %s: %s (%s)",
				tx.Owner, dnsupdate.RcodeName(reply.Rcode), outcome),
		}
		u.logger.Error("update rejected",
			slog.String("rcode", dnsupdate.RcodeName(reply.Rcode)),
			slog.String("outcome", outcome.String()),
		)
		return result
	}

	u.logger.Info("update applied",
		slog.String("owner", tx.Owner),
		slog.String("address", addr.String()),
	)

	return Result{
		Kind:     KindSuccess,
		Address:  addr,
		Rcode:    reply.Rcode,
		RcodeSet: true,
		Outcome:  outcome,
		Message:  fmt.Sprintf("%s updated to %s", tx.Owner, addr),
	}
}

// fail logs and wraps a step failure into a Result.
func (u *Updater) fail(kind Kind, addr net.IP, err error) Result {
	u.logger.Error("update failed",
		slog.String("kind", kind.String()),
		slog.String("error", err.Error()),
	)
	return Result{
		Kind:    kind,
		Address: addr,
		Message: err.Error(),
	}
}

// classifyTransportErr maps send errors onto result kinds.
func classifyTransportErr(err error) Kind {
	switch {
	case errors.Is(err, dnsupdate.ErrSigning):
		return KindSigning
	case errors.Is(err, dnsupdate.ErrTimeout):
		return KindTimeout
	case errors.Is(err, dnsupdate.ErrProtocol):
		return KindProtocol
	case errors.Is(err, dnsupdate.ErrUnauthenticatedResponse):
		return KindUnauthenticated
	default:
		return KindConnection
	}
}
