package dnsupdate

import (
	"errors"
	"net"
	"testing"

	"github.com/miekg/dns"
)

func TestNewTransactionBuildsReplace(t *testing.T) {
	tx, err := NewTransaction("example.com", "host", 300, net.ParseIP("192.0.2.17"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if tx.Zone != "example.com." {
		t.Errorf("Zone = %q, want %q", tx.Zone, "example.com.")
	}
	if tx.Owner != "host.example.com." {
		t.Errorf("Owner = %q, want %q", tx.Owner, "host.example.com.")
	}

	msg := tx.Msg()
	if msg.Opcode != dns.OpcodeUpdate {
		t.Errorf("Opcode = %d, want OpcodeUpdate", msg.Opcode)
	}
	if len(msg.Question) != 1 || msg.Question[0].Name != "example.com." || msg.Question[0].Qtype != dns.TypeSOA {
		t.Errorf("zone section = %+v, want SOA question for example.com.", msg.Question)
	}

	// Replace semantics: delete the A RRset, then add exactly one A.
	if len(msg.Ns) != 2 {
		t.Fatalf("update section has %d RRs, want 2", len(msg.Ns))
	}

	del := msg.Ns[0].Header()
	if del.Class != dns.ClassANY || del.Rrtype != dns.TypeA || del.Name != "host.example.com." {
		t.Errorf("delete RR header = %+v, want class ANY type A for host.example.com.", del)
	}

	add, ok := msg.Ns[1].(*dns.A)
	if !ok {
		t.Fatalf("second update RR is %T, want *dns.A", msg.Ns[1])
	}
	if add.Hdr.Class != dns.ClassINET || add.Hdr.Ttl != 300 {
		t.Errorf("insert header = %+v, want class INET ttl 300", add.Hdr)
	}
	if add.A.String() != "192.0.2.17" {
		t.Errorf("address = %s, want 192.0.2.17", add.A)
	}
}

func TestNewTransactionOwnerNames(t *testing.T) {
	tests := []struct {
		name      string
		zone      string
		hostname  string
		wantOwner string
		wantErr   bool
	}{
		{
			name:      "relative hostname",
			zone:      "example.com.",
			hostname:  "host",
			wantOwner: "host.example.com.",
		},
		{
			name:      "absolute hostname in zone",
			zone:      "example.com.",
			hostname:  "host.example.com.",
			wantOwner: "host.example.com.",
		},
		{
			name:      "absolute without trailing dot",
			zone:      "example.com.",
			hostname:  "host.example.com",
			wantOwner: "host.example.com.",
		},
		{
			name:      "zone apex",
			zone:      "example.com.",
			hostname:  "example.com.",
			wantOwner: "example.com.",
		},
		{
			name:      "multi-label relative",
			zone:      "example.com.",
			hostname:  "a.b",
			wantOwner: "a.b.example.com.",
		},
		{
			// Matching suffix characters without a label boundary is
			// not subordination; the name is relativized instead.
			name:      "suffix match without label boundary",
			zone:      "example.com.",
			hostname:  "badexample.com",
			wantOwner: "badexample.com.example.com.",
		},
		{
			name:     "hostname outside zone",
			zone:     "example.com.",
			hostname: "host.example.org.",
			wantErr:  true,
		},
		{
			name:     "empty hostname",
			zone:     "example.com.",
			hostname: "",
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx, err := NewTransaction(tt.zone, tt.hostname, 60, net.ParseIP("192.0.2.1"))
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !errors.Is(err, ErrInvalidName) {
					t.Errorf("error = %v, want ErrInvalidName", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tx.Owner != tt.wantOwner {
				t.Errorf("Owner = %q, want %q", tx.Owner, tt.wantOwner)
			}
		})
	}
}

func TestNewTransactionZeroTTL(t *testing.T) {
	tx, err := NewTransaction("example.com.", "host", 0, net.ParseIP("192.0.2.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a, ok := tx.Msg().Ns[1].(*dns.A); !ok || a.Hdr.Ttl != 0 {
		t.Errorf("ttl not passed through literally: %+v", tx.Msg().Ns[1])
	}
}

func TestNewTransactionRejectsIPv6(t *testing.T) {
	if _, err := NewTransaction("example.com.", "host", 60, net.ParseIP("2001:db8::1")); err == nil {
		t.Error("expected error for IPv6 address, got nil")
	}
}

func TestTransactionSetID(t *testing.T) {
	tx, err := NewTransaction("example.com.", "host", 60, net.ParseIP("192.0.2.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tx.SetID(0x1234)
	if tx.ID() != 0x1234 {
		t.Errorf("ID = %#x, want 0x1234", tx.ID())
	}
}
