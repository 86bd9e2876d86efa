package smarthome

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/greyfell/voicebridge/internal/device"
)

// NewMessageID returns a fresh message ID. Every response carries its
// own; IDs are never reused across responses.
func NewMessageID() string {
	return uuid.NewString()
}

// EndpointDescriptor is one device entry in a discovery response.
type EndpointDescriptor struct {
	EndpointID        string                 `json:"endpointId"`
	ManufacturerName  string                 `json:"manufacturerName"`
	FriendlyName      string                 `json:"friendlyName"`
	Description       string                 `json:"description"`
	DisplayCategories []string               `json:"displayCategories"`
	Capabilities      []CapabilityDescriptor `json:"capabilities"`
}

// DiscoveryPayload is the payload of a Discover.Response event.
type DiscoveryPayload struct {
	Endpoints []EndpointDescriptor `json:"endpoints"`
}

func describe(t device.Type) string {
	switch t {
	case device.TypeCoffeeMaker:
		return "Simulated smart coffee maker"
	case device.TypeLight:
		return "Simulated smart light"
	case device.TypeThermostat:
		return "Simulated smart thermostat"
	case device.TypeContactSensor:
		return "Simulated contact sensor"
	}
	return "Simulated device"
}

// BuildDiscoveryResponse describes the full fleet. Capability instances
// are qualified per endpoint so multiple devices of one type stay
// addressable independently.
func BuildDiscoveryResponse(devices []device.Device, manufacturer string) Response {
	endpoints := make([]EndpointDescriptor, 0, len(devices))
	for _, d := range devices {
		caps := CapabilitiesFor(d.Type)
		qualified := make([]CapabilityDescriptor, len(caps))
		for i, c := range caps {
			c.Instance = QualifyInstance(c.Instance, d.ID)
			qualified[i] = c
		}
		endpoints = append(endpoints, EndpointDescriptor{
			EndpointID:        d.ID,
			ManufacturerName:  manufacturer,
			FriendlyName:      d.FriendlyName,
			Description:       describe(d.Type),
			DisplayCategories: []string{displayCategory(d.Type)},
			Capabilities:      qualified,
		})
	}

	return Response{Event: Event{
		Header: Header{
			Namespace:      NamespaceDiscovery,
			Name:           "Discover.Response",
			PayloadVersion: PayloadVersion,
			MessageID:      NewMessageID(),
		},
		Payload: DiscoveryPayload{Endpoints: endpoints},
	}}
}

// BuildDirectiveResponse acknowledges a successful command. The event
// echoes the request's namespace and correlation token, is named
// "<Name>Response", and carries the applied change in the context block
// with zero uncertainty.
func BuildDirectiveResponse(d Directive, change StateChange, now time.Time) Response {
	prop := PropertyValue{
		Namespace:                 change.Namespace,
		Name:                      change.Property,
		Instance:                  QualifyInstance(change.Instance, d.EndpointID),
		Value:                     change.Value,
		TimeOfSample:              formatTimeOfSample(now),
		UncertaintyInMilliseconds: 0,
	}

	return Response{
		Event: Event{
			Header: Header{
				Namespace:        d.Namespace,
				Name:             d.Name + "Response",
				PayloadVersion:   PayloadVersion,
				MessageID:        NewMessageID(),
				CorrelationToken: d.CorrelationToken,
				Instance:         QualifyInstance(change.Instance, d.EndpointID),
			},
			Endpoint: &Endpoint{EndpointID: d.EndpointID},
			Payload:  struct{}{},
		},
		Context: &Context{Properties: []PropertyValue{prop}},
	}
}

// StateReportPayload carries the property snapshot of a state report.
type StateReportPayload struct {
	Properties []PropertyValue `json:"properties"`
}

// BuildStateReport wraps a full property snapshot in an
// Alexa.StateReport event.
func BuildStateReport(d Directive, props []PropertyValue) Response {
	return Response{Event: Event{
		Header: Header{
			Namespace:        NamespaceAlexa,
			Name:             "StateReport",
			PayloadVersion:   PayloadVersion,
			MessageID:        NewMessageID(),
			CorrelationToken: d.CorrelationToken,
		},
		Endpoint: &Endpoint{EndpointID: d.EndpointID},
		Payload:  StateReportPayload{Properties: props},
	}}
}

// ErrorPayload is the payload of an Alexa ErrorResponse event.
type ErrorPayload struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Error response types.
const (
	ErrorTypeNoSuchEndpoint   = "NO_SUCH_ENDPOINT"
	ErrorTypeInvalidDirective = "INVALID_DIRECTIVE"
	ErrorTypeInvalidValue     = "INVALID_VALUE"
	ErrorTypeInternal         = "INTERNAL_ERROR"
)

// ClassifyError maps a directive-processing error to its protocol error
// type and HTTP status.
func ClassifyError(err error) (errorType string, status int) {
	switch {
	case errors.Is(err, ErrUnknownDevice), errors.Is(err, device.ErrDeviceNotFound):
		return ErrorTypeNoSuchEndpoint, http.StatusNotFound
	case errors.Is(err, ErrUnsupportedCommand):
		return ErrorTypeInvalidDirective, http.StatusBadRequest
	case errors.Is(err, ErrInvalidValue):
		return ErrorTypeInvalidValue, http.StatusBadRequest
	}
	return ErrorTypeInternal, http.StatusInternalServerError
}

// BuildErrorResponse turns a directive-processing error into an Alexa
// ErrorResponse event plus the HTTP status the transport should use.
func BuildErrorResponse(d Directive, err error) (Response, int) {
	errorType, status := ClassifyError(err)

	resp := Response{Event: Event{
		Header: Header{
			Namespace:        NamespaceAlexa,
			Name:             "ErrorResponse",
			PayloadVersion:   PayloadVersion,
			MessageID:        NewMessageID(),
			CorrelationToken: d.CorrelationToken,
		},
		Payload: ErrorPayload{Type: errorType, Message: err.Error()},
	}}
	if d.EndpointID != "" {
		resp.Event.Endpoint = &Endpoint{EndpointID: d.EndpointID}
	}
	return resp, status
}
