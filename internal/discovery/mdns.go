package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/mcparam/internal/logging"
)

const (
	// ServiceType is the mDNS service type of tuning servers
	ServiceType = "_mcparam._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultPath is the tuning-link path assumed when the TXT record has none
	DefaultPath = "/ws"
)

// Advertise registers the tuning server with mDNS and keeps the
// registration alive until ctx ends.
func Advertise(ctx context.Context, instance string, port int, txt []string) error {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, txt, nil)
	if err != nil {
		return fmt.Errorf("failed to register mDNS service: %w", err)
	}
	defer server.Shutdown()

	logging.Info("Advertising tuning server",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port),
		zap.Strings("txt", txt),
	)

	<-ctx.Done()
	logging.Debug("mDNS advertisement stopped", zap.String("instance", instance))
	return nil
}

// Scanner handles mDNS discovery of tuning servers
type Scanner struct {
	// Timeout is the maximum time to wait for responses
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// browse resolves service entries until ctx ends or accept returns true
func (s *Scanner) browse(ctx context.Context, accept func(*Endpoint) bool) error {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				if ep := parseServiceEntry(entry); ep != nil && accept(ep) {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()
	<-done
	return nil
}

// Scan discovers every tuning server that answers within the timeout.
// An endpoint seen more than once is reported once.
func (s *Scanner) Scan(ctx context.Context) ([]*Endpoint, error) {
	var (
		mu        sync.Mutex
		endpoints []*Endpoint
		seen      = make(map[string]bool)
	)
	err := s.browse(ctx, func(ep *Endpoint) bool {
		mu.Lock()
		defer mu.Unlock()
		key := ep.Instance + "|" + ep.IP
		if !seen[key] {
			seen[key] = true
			endpoints = append(endpoints, ep)
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	mu.Lock()
	defer mu.Unlock()
	logging.Debug("mDNS scan finished", zap.Int("endpoints", len(endpoints)))
	return endpoints, nil
}

// Find waits for the named instance. An empty instance accepts the first
// server that answers.
func (s *Scanner) Find(ctx context.Context, instance string) (*Endpoint, error) {
	found := make(chan *Endpoint, 1)
	err := s.browse(ctx, func(ep *Endpoint) bool {
		if instance != "" && ep.Instance != instance {
			return false
		}
		found <- ep
		return true
	})
	if err != nil {
		return nil, err
	}

	select {
	case ep := <-found:
		return ep, nil
	default:
		if instance == "" {
			return nil, fmt.Errorf("no tuning server found within %s", s.Timeout)
		}
		return nil, fmt.Errorf("tuning server %q not found within %s", instance, s.Timeout)
	}
}

// parseServiceEntry converts a zeroconf service entry to an Endpoint.
// Returns nil if the entry has no usable address.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Endpoint {
	if entry == nil || entry.Port == 0 {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Endpoint{
		Instance:     entry.Instance,
		Host:         entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// Scan is a convenience function to scan with a custom timeout
func Scan(ctx context.Context, timeout time.Duration) ([]*Endpoint, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan(ctx)
}
