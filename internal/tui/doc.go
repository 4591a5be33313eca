// Package tui implements the interactive tuning console started by
// "mcparam-cfg tune".
//
// The console has two screens. The discovery screen browses multicast DNS for
// tuning servers and accepts a typed URL when multicast is unavailable. The
// dashboard lists every parameter with its value, default, and change count;
// values are edited in place and reset to their defaults with a single key.
// Broadcasts from the server keep the list current while other sessions or
// the vehicle change values.
//
// Screens follow the Bubble Tea model/update/view pattern and are wrapped by
// RenderApplicationContainer so every screen shares the same frame.
package tui
