package smarthome

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/greyfell/voicebridge/internal/device"
)

var testNow = time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)

func testFleet() []device.Device {
	return []device.Device{
		{
			ID:           "coffee_maker_123",
			FriendlyName: "Kitchen Coffee Maker",
			Type:         device.TypeCoffeeMaker,
			State: device.CoffeeMakerState{
				PowerState:   device.PowerOff,
				BrewStrength: device.BrewMedium,
				WaterLevel:   100,
				ErrorState:   device.ErrorNone,
			},
		},
		{
			ID:           "light_456",
			FriendlyName: "Living Room Light",
			Type:         device.TypeLight,
			State: device.LightState{
				PowerState: device.PowerOff,
				Brightness: 60,
				Color:      device.Color{Hue: 0, Saturation: 0, Brightness: 1},
			},
		},
		{
			ID:           "thermostat_789",
			FriendlyName: "Hallway Thermostat",
			Type:         device.TypeThermostat,
			State: device.ThermostatState{
				TargetSetpoint: 21,
				Temperature:    20.5,
				Mode:           device.ModeHeat,
			},
		},
		{
			ID:           "contact_front_door",
			FriendlyName: "Front Door Sensor",
			Type:         device.TypeContactSensor,
			State: device.ContactSensorState{
				DetectionState: device.NotDetected,
				Temperature:    19,
			},
		},
	}
}

func newTestService(t *testing.T, notifiers ...Notifier) *Service {
	t.Helper()
	r := device.NewRegistry()
	for _, d := range testFleet() {
		if err := r.Add(d); err != nil {
			t.Fatalf("seeding registry: %v", err)
		}
	}
	s, err := New(Deps{Registry: r, Notifiers: notifiers})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.now = func() time.Time { return testNow }
	return s
}

func directive(namespace, name, endpointID, payload string) Directive {
	d := Directive{
		Namespace:        namespace,
		Name:             name,
		EndpointID:       endpointID,
		CorrelationToken: "corr-token-1",
	}
	if payload != "" {
		d.Payload = json.RawMessage(payload)
	}
	return d
}

func TestHandleDirective_TurnOn(t *testing.T) {
	s := newTestService(t)

	resp, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "coffee_maker_123", "{}"))
	if err != nil {
		t.Fatalf("HandleDirective() error = %v", err)
	}

	h := resp.Event.Header
	if h.Namespace != NamespacePower || h.Name != "TurnOnResponse" {
		t.Errorf("header = %s %s, want %s TurnOnResponse", h.Namespace, h.Name, NamespacePower)
	}
	if h.CorrelationToken != "corr-token-1" {
		t.Errorf("correlation token = %q, not echoed", h.CorrelationToken)
	}
	if h.MessageID == "" {
		t.Error("message ID is empty")
	}

	if resp.Context == nil || len(resp.Context.Properties) != 1 {
		t.Fatalf("context = %+v, want one property", resp.Context)
	}
	p := resp.Context.Properties[0]
	if p.Name != "powerState" || p.Value != device.PowerOn {
		t.Errorf("changed property = %s=%v, want powerState=ON", p.Name, p.Value)
	}
	if p.UncertaintyInMilliseconds != 0 {
		t.Errorf("applied change uncertainty = %d, want 0", p.UncertaintyInMilliseconds)
	}

	d, _ := s.registry.Get("coffee_maker_123")
	if d.State.(device.CoffeeMakerState).PowerState != device.PowerOn {
		t.Error("TurnOn did not persist")
	}
}

// Repeating a directive in the target state must succeed again with a
// fresh message ID.
func TestHandleDirective_TurnOnIdempotent(t *testing.T) {
	s := newTestService(t)

	first, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "light_456", "{}"))
	if err != nil {
		t.Fatalf("first TurnOn error = %v", err)
	}
	second, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "light_456", "{}"))
	if err != nil {
		t.Fatalf("second TurnOn error = %v", err)
	}

	if second.Context.Properties[0].Value != device.PowerOn {
		t.Error("repeated TurnOn changed reported value")
	}
	if first.Event.Header.MessageID == second.Event.Header.MessageID {
		t.Error("message IDs must be unique per response")
	}
}

// Applying the same absolute Set* directive twice must leave the device
// in the same state both times, and both applications must succeed.
func TestHandleDirective_SetDirectivesIdempotent(t *testing.T) {
	tests := []struct {
		name       string
		namespace  string
		dirName    string
		endpointID string
		instance   string
		payload    string
	}{
		{
			name:       "SetMode",
			namespace:  NamespaceMode,
			dirName:    NameSetMode,
			endpointID: "coffee_maker_123",
			instance:   InstanceBrewStrength,
			payload:    `{"mode":{"value":"strong"}}`,
		},
		{
			name:       "SetBrightness",
			namespace:  NamespaceBrightness,
			dirName:    NameSetBrightness,
			endpointID: "light_456",
			payload:    `{"brightness":42}`,
		},
		{
			name:       "SetRangeValue",
			namespace:  NamespaceRange,
			dirName:    NameSetRangeValue,
			endpointID: "coffee_maker_123",
			instance:   InstanceWaterLevel,
			payload:    `{"rangeValue":35}`,
		},
		{
			name:       "SetTargetTemperature",
			namespace:  NamespaceThermostat,
			dirName:    NameSetTargetTemperature,
			endpointID: "thermostat_789",
			payload:    `{"targetSetpoint":{"value":18.5,"scale":"CELSIUS"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestService(t)

			d := directive(tt.namespace, tt.dirName, tt.endpointID, tt.payload)
			d.Instance = tt.instance

			first, err := s.HandleDirective(d)
			if err != nil {
				t.Fatalf("first %s error = %v", tt.dirName, err)
			}
			dev, _ := s.registry.Get(tt.endpointID)
			afterFirst := dev.State

			second, err := s.HandleDirective(d)
			if err != nil {
				t.Fatalf("second %s error = %v", tt.dirName, err)
			}
			dev, _ = s.registry.Get(tt.endpointID)

			if dev.State != afterFirst {
				t.Errorf("state after second apply = %+v, want %+v", dev.State, afterFirst)
			}
			if first.Context.Properties[0].Value != second.Context.Properties[0].Value {
				t.Errorf("reported value changed between applies: %v vs %v",
					first.Context.Properties[0].Value, second.Context.Properties[0].Value)
			}
		})
	}
}

func TestHandleDirective_SetModeQualifiedInstance(t *testing.T) {
	s := newTestService(t)

	d := directive(NamespaceMode, NameSetMode, "coffee_maker_123", `{"mode":{"value":"strong"}}`)
	d.Instance = "BrewStrength.coffee_maker_123"

	resp, err := s.HandleDirective(d)
	if err != nil {
		t.Fatalf("HandleDirective() error = %v", err)
	}

	p := resp.Context.Properties[0]
	if p.Name != "mode" || p.Value != device.BrewStrong {
		t.Errorf("changed property = %s=%v, want mode=strong", p.Name, p.Value)
	}
	if p.Instance != "BrewStrength.coffee_maker_123" {
		t.Errorf("reported instance = %q, want wire-qualified form", p.Instance)
	}

	dev, _ := s.registry.Get("coffee_maker_123")
	if dev.State.(device.CoffeeMakerState).BrewStrength != device.BrewStrong {
		t.Error("SetMode did not persist")
	}
}

func TestHandleDirective_SetModeInvalidValueLeavesState(t *testing.T) {
	s := newTestService(t)

	d := directive(NamespaceMode, NameSetMode, "coffee_maker_123", `{"mode":{"value":"espresso"}}`)
	d.Instance = InstanceBrewStrength

	_, err := s.HandleDirective(d)
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("HandleDirective() = %v, want ErrInvalidValue", err)
	}

	dev, _ := s.registry.Get("coffee_maker_123")
	if dev.State.(device.CoffeeMakerState).BrewStrength != device.BrewMedium {
		t.Error("rejected directive mutated state")
	}
}

func TestHandleDirective_UnknownDevice(t *testing.T) {
	s := newTestService(t)

	_, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "garage_door_999", "{}"))
	if !errors.Is(err, ErrUnknownDevice) {
		t.Errorf("HandleDirective() = %v, want ErrUnknownDevice", err)
	}
}

func TestHandleDirective_UnsupportedCommand(t *testing.T) {
	s := newTestService(t)

	// Contact sensors are report-only.
	_, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "contact_front_door", "{}"))
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Errorf("TurnOn on contact sensor = %v, want ErrUnsupportedCommand", err)
	}

	// Brightness is not a coffee maker capability.
	_, err = s.HandleDirective(directive(NamespaceBrightness, NameSetBrightness, "coffee_maker_123", `{"brightness":50}`))
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Errorf("SetBrightness on coffee maker = %v, want ErrUnsupportedCommand", err)
	}
}

func TestHandleDirective_StateReport(t *testing.T) {
	s := newTestService(t)

	// ReportState is routed under any namespace the type supports.
	for _, ns := range []string{NamespaceAlexa, NamespaceStateReport, NamespacePower, NamespaceEndpointHealth} {
		resp, err := s.HandleDirective(directive(ns, NameReportState, "light_456", ""))
		if err != nil {
			t.Fatalf("ReportState under %s error = %v", ns, err)
		}
		if resp.Event.Header.Namespace != NamespaceAlexa || resp.Event.Header.Name != "StateReport" {
			t.Errorf("report header = %s %s, want Alexa StateReport", resp.Event.Header.Namespace, resp.Event.Header.Name)
		}

		payload, ok := resp.Event.Payload.(StateReportPayload)
		if !ok {
			t.Fatalf("payload type = %T, want StateReportPayload", resp.Event.Payload)
		}
		if len(payload.Properties) != 4 {
			t.Fatalf("light snapshot has %d properties, want 4", len(payload.Properties))
		}
		for _, p := range payload.Properties {
			if p.UncertaintyInMilliseconds != sampleUncertaintyMillis {
				t.Errorf("sampled uncertainty = %d, want %d", p.UncertaintyInMilliseconds, sampleUncertaintyMillis)
			}
		}
		if last := payload.Properties[3]; last.Namespace != NamespaceEndpointHealth {
			t.Errorf("last property namespace = %s, want EndpointHealth", last.Namespace)
		}
	}
}

func TestHandleDirective_StateReportUnsupportedNamespace(t *testing.T) {
	s := newTestService(t)

	_, err := s.HandleDirective(directive(NamespaceBrightness, NameReportState, "coffee_maker_123", ""))
	if !errors.Is(err, ErrUnsupportedCommand) {
		t.Errorf("ReportState under unsupported namespace = %v, want ErrUnsupportedCommand", err)
	}
}

func TestDiscover(t *testing.T) {
	s := newTestService(t)

	resp := s.Discover()
	if resp.Event.Header.Namespace != NamespaceDiscovery || resp.Event.Header.Name != "Discover.Response" {
		t.Fatalf("discovery header = %+v", resp.Event.Header)
	}

	payload, ok := resp.Event.Payload.(DiscoveryPayload)
	if !ok {
		t.Fatalf("payload type = %T, want DiscoveryPayload", resp.Event.Payload)
	}
	if len(payload.Endpoints) != 4 {
		t.Fatalf("discovered %d endpoints, want 4", len(payload.Endpoints))
	}

	// Registry listing is sorted by ID, so the coffee maker comes first.
	cm := payload.Endpoints[0]
	if cm.EndpointID != "coffee_maker_123" {
		t.Fatalf("first endpoint = %s, want coffee_maker_123", cm.EndpointID)
	}
	if cm.DisplayCategories[0] != "COFFEE_MAKER" {
		t.Errorf("display category = %v", cm.DisplayCategories)
	}

	var sawQualified bool
	for _, c := range cm.Capabilities {
		if c.Instance == "BrewStrength.coffee_maker_123" {
			sawQualified = true
		}
		if c.Instance != "" && c.Instance == InstanceBrewStrength {
			t.Error("discovery leaked an unqualified instance")
		}
	}
	if !sawQualified {
		t.Error("brew strength instance not qualified with endpoint ID")
	}
}

type recordingNotifier struct {
	calls chan string
	err   error
}

func (n *recordingNotifier) Notify(deviceID, field string, _ any) error {
	n.calls <- deviceID + "/" + field
	return n.err
}

func TestHandleDirective_NotifierFanOut(t *testing.T) {
	failing := &recordingNotifier{calls: make(chan string, 1), err: errors.New("sink down")}
	healthy := &recordingNotifier{calls: make(chan string, 1)}
	s := newTestService(t, failing, healthy)

	if _, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "light_456", "{}")); err != nil {
		t.Fatalf("HandleDirective() error = %v", err)
	}

	// A failing sink must not stop later sinks from being notified.
	for _, n := range []*recordingNotifier{failing, healthy} {
		select {
		case got := <-n.calls:
			if got != "light_456/powerState" {
				t.Errorf("notify call = %q, want light_456/powerState", got)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("notifier was not called")
		}
	}
}

type fakeRecorder struct {
	outcomes []string
}

func (r *fakeRecorder) RecordDirective(namespace, name string, accepted bool) {
	r.outcomes = append(r.outcomes, fmt.Sprintf("%s/%s/%t", namespace, name, accepted))
}

// Every directive outcome, accepted or rejected, must be counted exactly
// once.
func TestHandleDirective_RecordsOutcomes(t *testing.T) {
	rec := &fakeRecorder{}
	r := device.NewRegistry()
	for _, d := range testFleet() {
		if err := r.Add(d); err != nil {
			t.Fatalf("seeding registry: %v", err)
		}
	}
	s, err := New(Deps{Registry: r, Recorder: rec})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	s.now = func() time.Time { return testNow }

	// Accepted control directive.
	if _, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "light_456", "{}")); err != nil {
		t.Fatalf("TurnOn error = %v", err)
	}
	// Accepted state report.
	if _, err := s.HandleDirective(directive(NamespaceAlexa, NameReportState, "light_456", "")); err != nil {
		t.Fatalf("ReportState error = %v", err)
	}
	// Rejected: unknown endpoint.
	if _, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "garage_door_999", "{}")); err == nil {
		t.Fatal("expected unknown device error")
	}
	// Rejected: unsupported command for the device type.
	if _, err := s.HandleDirective(directive(NamespacePower, NameTurnOn, "contact_front_door", "{}")); err == nil {
		t.Fatal("expected unsupported command error")
	}
	// Rejected: handler refused the value.
	if _, err := s.HandleDirective(directive(NamespaceBrightness, NameSetBrightness, "light_456", `{"brightness":200}`)); err == nil {
		t.Fatal("expected invalid value error")
	}

	want := []string{
		"Alexa.PowerController/TurnOn/true",
		"Alexa/ReportState/true",
		"Alexa.PowerController/TurnOn/false",
		"Alexa.PowerController/TurnOn/false",
		"Alexa.BrightnessController/SetBrightness/false",
	}
	if len(rec.outcomes) != len(want) {
		t.Fatalf("recorded %d outcomes, want %d: %v", len(rec.outcomes), len(want), rec.outcomes)
	}
	for i, w := range want {
		if rec.outcomes[i] != w {
			t.Errorf("outcome[%d] = %q, want %q", i, rec.outcomes[i], w)
		}
	}
}

func TestParseDirective(t *testing.T) {
	raw := `{
		"directive": {
			"header": {
				"namespace": "Alexa.ModeController",
				"name": "SetMode",
				"instance": "BrewStrength.coffee_maker_123",
				"correlationToken": "abc"
			},
			"endpoint": {"endpointId": "coffee_maker_123"},
			"payload": {"mode": {"value": "strong"}}
		}
	}`

	d, err := ParseDirective([]byte(raw))
	if err != nil {
		t.Fatalf("ParseDirective() error = %v", err)
	}
	if d.Namespace != NamespaceMode || d.Name != NameSetMode {
		t.Errorf("parsed header = %s %s", d.Namespace, d.Name)
	}
	if d.Instance != "BrewStrength.coffee_maker_123" || d.EndpointID != "coffee_maker_123" {
		t.Errorf("parsed routing = %q %q", d.Instance, d.EndpointID)
	}

	bad := []string{
		`not json`,
		`{"directive":{"header":{"name":"TurnOn"},"endpoint":{"endpointId":"x"}}}`,
		`{"directive":{"header":{"namespace":"Alexa.PowerController","name":"TurnOn"}}}`,
	}
	for _, raw := range bad {
		if _, err := ParseDirective([]byte(raw)); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("ParseDirective(%q) = %v, want ErrInvalidValue", raw, err)
		}
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err        error
		wantType   string
		wantStatus int
	}{
		{ErrUnknownDevice, ErrorTypeNoSuchEndpoint, 404},
		{device.ErrDeviceNotFound, ErrorTypeNoSuchEndpoint, 404},
		{ErrUnsupportedCommand, ErrorTypeInvalidDirective, 400},
		{ErrInvalidValue, ErrorTypeInvalidValue, 400},
		{errors.New("boom"), ErrorTypeInternal, 500},
	}
	for _, tt := range tests {
		gotType, gotStatus := ClassifyError(tt.err)
		if gotType != tt.wantType || gotStatus != tt.wantStatus {
			t.Errorf("ClassifyError(%v) = %s/%d, want %s/%d", tt.err, gotType, gotStatus, tt.wantType, tt.wantStatus)
		}
	}
}

func TestBuildErrorResponse(t *testing.T) {
	d := directive(NamespacePower, NameTurnOn, "nope", "")

	resp, status := BuildErrorResponse(d, ErrUnknownDevice)
	if status != 404 {
		t.Errorf("status = %d, want 404", status)
	}
	if resp.Event.Header.Namespace != NamespaceAlexa || resp.Event.Header.Name != "ErrorResponse" {
		t.Errorf("header = %+v", resp.Event.Header)
	}
	payload := resp.Event.Payload.(ErrorPayload)
	if payload.Type != ErrorTypeNoSuchEndpoint {
		t.Errorf("error type = %s, want NO_SUCH_ENDPOINT", payload.Type)
	}
}
