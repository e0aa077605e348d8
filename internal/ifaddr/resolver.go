// Package ifaddr selects the IPv4 address a host should publish, from the
// addresses bound to a local network interface.
package ifaddr

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
)

var (
	// ErrNoInterface is returned when the named interface does not exist.
	ErrNoInterface = errors.New("network interface not found")

	// ErrNoAddress is returned when the interface exists but exposes no
	// usable IPv4 address.
	ErrNoAddress = errors.New("no usable ipv4 address on interface")
)

// Query returns the addresses bound to the named interface, or to all
// candidate interfaces when name is empty. The default implementation
// asks the operating system; tests substitute their own.
type Query func(name string) ([]net.Addr, error)

// Resolver picks one publishable IPv4 address. Loopback, link-local,
// multicast, and unspecified addresses never qualify. When several
// addresses qualify, the numerically lowest wins so repeated runs on the
// same interface state agree.
type Resolver struct {
	query  Query
	logger *slog.Logger
}

// Option is a functional option for configuring the Resolver.
type Option func(*Resolver)

// WithQuery substitutes the interface address query.
func WithQuery(q Query) Option {
	return func(r *Resolver) {
		if q != nil {
			r.query = q
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Resolver backed by the operating system's interface table.
func New(opts ...Option) *Resolver {
	r := &Resolver{
		query:  systemQuery,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the address to publish for the named interface.
// An empty name scans all interfaces that are up and not loopback.
func (r *Resolver) Resolve(ifaceName string) (net.IP, error) {
	candidates, err := r.Candidates(ifaceName)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoAddress, ifaceName)
	}

	r.logger.Debug("interface address selected",
		slog.String("interface", ifaceName),
		slog.String("address", candidates[0].String()),
		slog.Int("candidates", len(candidates)),
	)

	return candidates[0], nil
}

// Candidates returns every qualifying IPv4 address, lowest first.
func (r *Resolver) Candidates(ifaceName string) ([]net.IP, error) {
	addrs, err := r.query(ifaceName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrNoInterface, ifaceName, err)
	}

	var out []net.IP
	for _, addr := range addrs {
		ip := addrIP(addr)
		if ip == nil {
			continue
		}
		ip4 := ip.To4()
		if ip4 == nil || !usable(ip4) {
			continue
		}
		out = append(out, ip4)
	}

	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i], out[j]) < 0
	})

	return out, nil
}

// addrIP extracts the IP from the address forms the kernel reports.
func addrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPNet:
		return a.IP
	case *net.IPAddr:
		return a.IP
	default:
		return nil
	}
}

// usable reports whether an IPv4 address may be published in an A record.
func usable(ip net.IP) bool {
	return !ip.IsLoopback() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsMulticast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsUnspecified()
}

// systemQuery reads the interface table from the operating system.
func systemQuery(name string) ([]net.Addr, error) {
	if name != "" {
		iface, err := net.InterfaceByName(name)
		if err != nil {
			return nil, err
		}
		return iface.Addrs()
	}

	// No interface configured: consider every interface that is up and
	// not loopback, in index order.
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	var addrs []net.Addr
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		ifAddrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		addrs = append(addrs, ifAddrs...)
	}
	return addrs, nil
}
