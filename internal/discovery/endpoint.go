package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// TXT record keys published by the server
const (
	TXTPath    = "path"    // WebSocket path of the tuning link
	TXTTLS     = "tls"     // "1" when the link needs wss://
	TXTVersion = "version" // server build version
	TXTParams  = "params"  // number of registered parameters
)

// Endpoint is a discovered tuning server
type Endpoint struct {
	// Instance is the advertised instance name (e.g., "bench-quad")
	Instance string

	// Host is the mDNS hostname (e.g., "bench-quad.local.")
	Host string

	// IP is the resolved address, IPv4 preferred
	IP string

	// Port is the tuning-link port
	Port int

	// Metadata contains the TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the endpoint was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable representation of the endpoint
func (e *Endpoint) String() string {
	return fmt.Sprintf("%s (%s) at %s", e.Instance, e.Host, net.JoinHostPort(e.IP, strconv.Itoa(e.Port)))
}

// URL returns the WebSocket URL of the tuning link
func (e *Endpoint) URL() string {
	scheme := "ws"
	if e.GetMetadata(TXTTLS) == "1" {
		scheme = "wss"
	}
	path := e.GetMetadata(TXTPath)
	if path == "" {
		path = DefaultPath
	}
	return fmt.Sprintf("%s://%s%s", scheme, net.JoinHostPort(e.IP, strconv.Itoa(e.Port)), path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (e *Endpoint) GetMetadata(key string) string {
	if e.Metadata == nil {
		return ""
	}
	return e.Metadata[key]
}
