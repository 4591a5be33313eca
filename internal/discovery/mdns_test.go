package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantIP   string
		wantPort int
	}{
		{
			name: "IPv4 server",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "bench-quad"},
				HostName:      "bench-quad.local.",
				Port:          14560,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"path=/ws", "params=15"},
			},
			wantIP:   "192.168.4.16",
			wantPort: 14560,
		},
		{
			name: "IPv6 only",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "hex"},
				HostName:      "hex.local.",
				Port:          14560,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantIP:   "fe80::1",
			wantPort: 14560,
		},
		{
			name: "both families (prefers IPv4)",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "quad"},
				HostName:      "quad.local.",
				Port:          15000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantIP:   "10.0.0.5",
			wantPort: 15000,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "quad.local.",
				Port:     14560,
			},
			wantNil: true,
		},
		{
			name: "no port",
			entry: &zeroconf.ServiceEntry{
				HostName: "quad.local.",
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantNil: true,
		},
		{
			name:    "nil entry",
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ep := parseServiceEntry(tt.entry)

			if tt.wantNil {
				if ep != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", ep)
				}
				return
			}
			if ep == nil {
				t.Fatal("parseServiceEntry() = nil, want endpoint")
			}
			if ep.IP != tt.wantIP {
				t.Errorf("ep.IP = %v, want %v", ep.IP, tt.wantIP)
			}
			if ep.Port != tt.wantPort {
				t.Errorf("ep.Port = %v, want %v", ep.Port, tt.wantPort)
			}
			if ep.Instance != tt.entry.Instance || ep.Host != tt.entry.HostName {
				t.Errorf("ep = %+v", ep)
			}
			if time.Since(ep.DiscoveredAt) > time.Second {
				t.Errorf("ep.DiscoveredAt is not recent: %v", ep.DiscoveredAt)
			}
		})
	}
}

func TestParseServiceEntryMetadata(t *testing.T) {
	ep := parseServiceEntry(&zeroconf.ServiceEntry{
		HostName: "quad.local.",
		Port:     14560,
		AddrIPv4: []net.IP{net.ParseIP("192.168.4.16")},
		Text:     []string{"path=/ws", "version=1.0", "flag", "expr=a=b"},
	})
	if ep == nil {
		t.Fatal("parseServiceEntry() = nil")
	}

	want := map[string]string{
		"path":    "/ws",
		"version": "1.0",
		"flag":    "",
		"expr":    "a=b",
	}
	if len(ep.Metadata) != len(want) {
		t.Errorf("Metadata has %d entries, want %d", len(ep.Metadata), len(want))
	}
	for key, value := range want {
		if got := ep.GetMetadata(key); got != value {
			t.Errorf("Metadata[%q] = %q, want %q", key, got, value)
		}
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		name string
		ep   Endpoint
		want string
	}{
		{
			name: "default path",
			ep:   Endpoint{IP: "192.168.4.16", Port: 14560},
			want: "ws://192.168.4.16:14560/ws",
		},
		{
			name: "tls and custom path",
			ep: Endpoint{IP: "10.0.0.5", Port: 443, Metadata: map[string]string{
				TXTTLS:  "1",
				TXTPath: "/tune",
			}},
			want: "wss://10.0.0.5:443/tune",
		},
		{
			name: "IPv6",
			ep:   Endpoint{IP: "fe80::1", Port: 14560},
			want: "ws://[fe80::1]:14560/ws",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ep.URL(); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEndpointString(t *testing.T) {
	ep := &Endpoint{Instance: "bench-quad", Host: "bench-quad.local.", IP: "10.0.0.5", Port: 14560}
	if got := ep.String(); got != "bench-quad (bench-quad.local.) at 10.0.0.5:14560" {
		t.Errorf("String() = %q", got)
	}
	if ep.GetMetadata("missing") != "" {
		t.Error("GetMetadata on nil map should be empty")
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

// Live mDNS tests need multicast on the test host and are not run here.
