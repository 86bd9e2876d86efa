// Package api provides the HTTP server for Voicebridge.
//
// It exposes the voice-assistant protocol endpoints (discovery and
// control) plus a small operational REST surface for inspecting the
// simulated fleet and its change history.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api
