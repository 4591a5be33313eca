// Package server serves a parameter registry to ground-station tools.
//
// One HTTP listener (optionally TLS) carries two surfaces:
//   - /ws: the binary tuning link (see package protocol), upgraded with
//     gorilla/websocket
//   - /api/params, /api/params/{name}, /api/health: a read-only JSON API
//     for telemetry dashboards
//
// # Sessions
//
// Each WebSocket connection is a session with a uuid. A session runs one
// reader goroutine and one writer goroutine, so the connection always has a
// single writer. Replies and broadcasts go through a bounded queue; a session
// that cannot keep up is disconnected rather than stalling the registry.
//
// Every value the registry publishes, whoever made the change, is broadcast
// to all sessions as a Value message with message id 0.
//
// # Usage Example
//
//	srv, err := server.New(server.Config{
//	    Port:      14560,
//	    Advertise: true,
//	    Instance:  "bench-quad",
//	}, reg, server.WithAutosaver(store.NewAutosaver(st, reg, 0)))
//	if err != nil {
//	    return err
//	}
//
//	// Run blocks until ctx ends
//	return srv.Run(ctx)
//
// # Graceful Shutdown
//
// When ctx ends, Run:
//  1. Stops accepting new connections
//  2. Closes every tuning session
//  3. Flushes pending autosave work
//  4. Withdraws the mDNS advertisement
package server
