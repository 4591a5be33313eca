// Package discovery advertises and finds tuning servers with mDNS.
//
// Servers register the "_mcparam._tcp" service in the "local." domain. The
// TXT record carries the tuning-link path, whether TLS is required, the build
// version and the number of registered parameters.
//
// # Usage Example
//
//	// Server side: advertise until ctx ends
//	go discovery.Advertise(ctx, "bench-quad", 14560, []string{"path=/ws"})
//
//	// Client side: find every server within five seconds
//	endpoints, err := discovery.Scan(ctx, 5*time.Second)
//	if err != nil {
//	    return err
//	}
//	for _, ep := range endpoints {
//	    fmt.Println(ep.Instance, ep.URL())
//	}
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Firewall must allow mDNS (UDP port 5353)
package discovery
