package smarthome

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PayloadVersion is the protocol version stamped on every event header.
const PayloadVersion = "3"

// Capability interface namespaces.
const (
	NamespaceAlexa          = "Alexa"
	NamespaceDiscovery      = "Alexa.Discovery"
	NamespacePower          = "Alexa.PowerController"
	NamespaceBrightness     = "Alexa.BrightnessController"
	NamespaceColor          = "Alexa.ColorController"
	NamespaceMode           = "Alexa.ModeController"
	NamespaceRange          = "Alexa.RangeController"
	NamespaceThermostat     = "Alexa.ThermostatController"
	NamespaceTemperature    = "Alexa.TemperatureSensor"
	NamespaceContact        = "Alexa.ContactSensor"
	NamespaceEndpointHealth = "Alexa.EndpointHealth"
	NamespaceStateReport    = "Alexa.StateReport"
)

// Directive names.
const (
	NameTurnOn               = "TurnOn"
	NameTurnOff              = "TurnOff"
	NameSetMode              = "SetMode"
	NameSetRangeValue        = "SetRangeValue"
	NameAdjustRangeValue     = "AdjustRangeValue"
	NameSetBrightness        = "SetBrightness"
	NameAdjustBrightness     = "AdjustBrightness"
	NameSetColor             = "SetColor"
	NameSetTargetTemperature = "SetTargetTemperature"
	NameSetThermostatMode    = "SetThermostatMode"
	NameReportState          = "ReportState"
	NameDiscover             = "Discover"
)

// Semantic capability instances. On the wire each is qualified with the
// endpoint ID ("BrewStrength.coffee_maker_123"); internally only the
// semantic name is used.
const (
	InstanceBrewStrength = "BrewStrength"
	InstanceErrorState   = "ErrorState"
	InstanceWaterLevel   = "WaterLevel"
)

// QualifyInstance produces the wire form of a capability instance for a
// specific endpoint.
func QualifyInstance(instance, endpointID string) string {
	if instance == "" {
		return ""
	}
	return instance + "." + endpointID
}

// SemanticInstance strips the endpoint qualifier from a wire-form
// instance. Bare semantic names pass through unchanged so internally
// generated directives need no qualifier.
func SemanticInstance(wire, endpointID string) string {
	if trimmed, ok := strings.CutSuffix(wire, "."+endpointID); ok {
		return trimmed
	}
	return wire
}

// Directive is one parsed inbound control or report request.
type Directive struct {
	Namespace        string
	Name             string
	Instance         string
	CorrelationToken string
	EndpointID       string
	Payload          json.RawMessage
}

type directiveEnvelope struct {
	Directive struct {
		Header struct {
			Namespace        string `json:"namespace"`
			Name             string `json:"name"`
			Instance         string `json:"instance"`
			CorrelationToken string `json:"correlationToken"`
		} `json:"header"`
		Endpoint struct {
			EndpointID string `json:"endpointId"`
		} `json:"endpoint"`
		Payload json.RawMessage `json:"payload"`
	} `json:"directive"`
}

// ParseDirective decodes the standard directive envelope. Namespace,
// name and endpoint ID are required; instance, correlation token and
// payload are optional.
func ParseDirective(data []byte) (Directive, error) {
	var env directiveEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Directive{}, fmt.Errorf("%w: malformed directive envelope: %v", ErrInvalidValue, err)
	}

	d := Directive{
		Namespace:        env.Directive.Header.Namespace,
		Name:             env.Directive.Header.Name,
		Instance:         env.Directive.Header.Instance,
		CorrelationToken: env.Directive.Header.CorrelationToken,
		EndpointID:       env.Directive.Endpoint.EndpointID,
		Payload:          env.Directive.Payload,
	}
	if d.Namespace == "" || d.Name == "" {
		return Directive{}, fmt.Errorf("%w: directive header missing namespace or name", ErrInvalidValue)
	}
	// Discovery is fleet-wide and carries no endpoint.
	if d.EndpointID == "" && d.Namespace != NamespaceDiscovery {
		return Directive{}, fmt.Errorf("%w: directive missing endpoint id", ErrInvalidValue)
	}
	return d, nil
}

// StateChange describes the single field a command handler changed.
// Namespace/Property/Instance address the protocol-level property; Field
// is the internal identifier used for actuation topics and history rows.
type StateChange struct {
	Namespace string
	Property  string
	Instance  string
	Field     string
	Value     any
}

// timeOfSampleLayout renders UTC timestamps with millisecond precision,
// e.g. "2026-08-23T12:00:00.000Z".
const timeOfSampleLayout = "2006-01-02T15:04:05.000Z"

// PropertyValue is one reported property in a context block or state
// report snapshot.
type PropertyValue struct {
	Namespace                 string `json:"namespace"`
	Name                      string `json:"name"`
	Instance                  string `json:"instance,omitempty"`
	Value                     any    `json:"value"`
	TimeOfSample              string `json:"timeOfSample"`
	UncertaintyInMilliseconds int    `json:"uncertaintyInMilliseconds"`
}

// TemperatureValue is the scale-tagged value shape shared by setpoints
// and temperature readings.
type TemperatureValue struct {
	Value float64 `json:"value"`
	Scale string  `json:"scale"`
}

// ScaleCelsius is the only temperature scale the simulator speaks.
const ScaleCelsius = "CELSIUS"

// ConnectivityValue is the EndpointHealth connectivity property value.
type ConnectivityValue struct {
	Value string `json:"value"`
}

// ConnectivityOK is the connectivity value reported for every simulated
// endpoint; simulated devices are always reachable.
const ConnectivityOK = "OK"

// Header is the event header carried on every response.
type Header struct {
	Namespace        string `json:"namespace"`
	Name             string `json:"name"`
	PayloadVersion   string `json:"payloadVersion"`
	MessageID        string `json:"messageId"`
	CorrelationToken string `json:"correlationToken,omitempty"`
	Instance         string `json:"instance,omitempty"`
}

// Endpoint identifies the device a response concerns.
type Endpoint struct {
	EndpointID string `json:"endpointId"`
}

// Event is the header/endpoint/payload triple inside a response.
type Event struct {
	Header   Header    `json:"header"`
	Endpoint *Endpoint `json:"endpoint,omitempty"`
	Payload  any       `json:"payload"`
}

// Context carries the changed or reported properties alongside an event.
type Context struct {
	Properties []PropertyValue `json:"properties"`
}

// Response is the top-level envelope returned for every request.
type Response struct {
	Event   Event    `json:"event"`
	Context *Context `json:"context,omitempty"`
}

func formatTimeOfSample(t time.Time) string {
	return t.UTC().Format(timeOfSampleLayout)
}
