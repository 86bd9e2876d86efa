// Package smarthome implements the voice-assistant smart-home protocol
// core: directive dispatch, per-type capability catalogs, payload
// validation, state mutation and response construction.
//
// # Control flow
//
//	Discovery  → Service.Discover  → capability catalog → discovery response
//	Control    → Service.HandleDirective → router → handler → registry.Update
//	             → notifier fan-out (best effort) → directive response
//	StateReport→ Service.HandleDirective → router → reporter → state report
//
// The router maps (device type, namespace, name) to a handler through a
// lookup table built once at startup; the optional instance only
// disambiguates inside multi-instance handlers (mode and range
// controllers). Handlers are pure functions from state to state: they
// validate the payload first and mutate nothing on rejection, so a
// directive either fully applies or fully rejects.
//
// Transport, authentication and payload sanitisation are collaborators
// outside this package; the Service assumes directives it receives are
// authorised and syntactically clean, and performs only semantic
// validation (closed enums, numeric ranges, required keys).
package smarthome
