package smarthome

import "errors"

// Error taxonomy for directive processing.
//
// All three surface to the transport layer as distinct user-visible
// failures and are never retried internally. Actuation notify failures
// are not part of the taxonomy: they are logged and swallowed because
// the state mutation has already succeeded.
var (
	// ErrUnknownDevice is returned when the endpoint ID is not in the registry.
	// The transport layer maps this to 404.
	ErrUnknownDevice = errors.New("smarthome: unknown device")

	// ErrUnsupportedCommand is returned when the namespace/name/instance
	// combination is not registered for the device's type. The transport
	// layer maps this to 400.
	ErrUnsupportedCommand = errors.New("smarthome: unsupported command")

	// ErrInvalidValue is returned when a payload is present but semantically
	// invalid for the target field (out of range, outside a closed enum,
	// missing a required key). The transport layer maps this to 400.
	ErrInvalidValue = errors.New("smarthome: invalid value")
)
