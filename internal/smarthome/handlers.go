package smarthome

import (
	"encoding/json"
	"fmt"

	"github.com/greyfell/voicebridge/internal/device"
)

// Handler applies one directive to a device's state. Handlers are pure:
// they validate first and return the unchanged input on any error, so a
// rejected directive never partially applies. The instance on the
// directive is already reduced to its semantic name.
type Handler func(st device.State, d Directive) (device.State, StateChange, error)

func decodePayload(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return fmt.Errorf("%w: missing payload", ErrInvalidValue)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: malformed payload: %v", ErrInvalidValue, err)
	}
	return nil
}

func clampPercent(v float64) float64 {
	if v < device.PercentMin {
		return device.PercentMin
	}
	if v > device.PercentMax {
		return device.PercentMax
	}
	return v
}

func powerChange(value string) StateChange {
	return StateChange{Namespace: NamespacePower, Property: "powerState", Field: "powerState", Value: value}
}

// handleTurnOn and handleTurnOff are idempotent; repeating one yields
// the same state and a fresh success response.
func handleTurnOn(st device.State, _ Directive) (device.State, StateChange, error) {
	switch s := st.(type) {
	case device.CoffeeMakerState:
		s.PowerState = device.PowerOn
		return s, powerChange(device.PowerOn), nil
	case device.LightState:
		s.PowerState = device.PowerOn
		return s, powerChange(device.PowerOn), nil
	}
	return st, StateChange{}, fmt.Errorf("%w: power control on %s", ErrUnsupportedCommand, st.DeviceType())
}

func handleTurnOff(st device.State, _ Directive) (device.State, StateChange, error) {
	switch s := st.(type) {
	case device.CoffeeMakerState:
		s.PowerState = device.PowerOff
		return s, powerChange(device.PowerOff), nil
	case device.LightState:
		s.PowerState = device.PowerOff
		return s, powerChange(device.PowerOff), nil
	}
	return st, StateChange{}, fmt.Errorf("%w: power control on %s", ErrUnsupportedCommand, st.DeviceType())
}

type modePayload struct {
	Mode struct {
		Value *string `json:"value"`
	} `json:"mode"`
}

// handleSetMode dispatches on the semantic instance: the coffee maker
// carries two mode controllers, brew strength and error state.
func handleSetMode(st device.State, d Directive) (device.State, StateChange, error) {
	s, ok := st.(device.CoffeeMakerState)
	if !ok {
		return st, StateChange{}, fmt.Errorf("%w: mode control on %s", ErrUnsupportedCommand, st.DeviceType())
	}

	var p modePayload
	if err := decodePayload(d.Payload, &p); err != nil {
		return st, StateChange{}, err
	}
	if p.Mode.Value == nil {
		return st, StateChange{}, fmt.Errorf("%w: missing mode.value", ErrInvalidValue)
	}
	value := *p.Mode.Value

	switch d.Instance {
	case InstanceBrewStrength:
		if !device.ValidBrewStrength(value) {
			return st, StateChange{}, fmt.Errorf("%w: brew strength %q", ErrInvalidValue, value)
		}
		s.BrewStrength = value
		return s, StateChange{Namespace: NamespaceMode, Property: "mode", Instance: InstanceBrewStrength, Field: "brewStrength", Value: value}, nil
	case InstanceErrorState:
		if !device.ValidErrorState(value) {
			return st, StateChange{}, fmt.Errorf("%w: error state %q", ErrInvalidValue, value)
		}
		s.ErrorState = value
		return s, StateChange{Namespace: NamespaceMode, Property: "mode", Instance: InstanceErrorState, Field: "errorState", Value: value}, nil
	}
	return st, StateChange{}, fmt.Errorf("%w: mode instance %q", ErrUnsupportedCommand, d.Instance)
}

type rangePayload struct {
	RangeValue *float64 `json:"rangeValue"`
}

type rangeDeltaPayload struct {
	RangeValueDelta *float64 `json:"rangeValueDelta"`
}

func handleSetRangeValue(st device.State, d Directive) (device.State, StateChange, error) {
	s, ok := st.(device.CoffeeMakerState)
	if !ok || d.Instance != InstanceWaterLevel {
		return st, StateChange{}, fmt.Errorf("%w: range instance %q on %s", ErrUnsupportedCommand, d.Instance, st.DeviceType())
	}

	var p rangePayload
	if err := decodePayload(d.Payload, &p); err != nil {
		return st, StateChange{}, err
	}
	if p.RangeValue == nil {
		return st, StateChange{}, fmt.Errorf("%w: missing rangeValue", ErrInvalidValue)
	}
	if !device.ValidPercent(*p.RangeValue) {
		return st, StateChange{}, fmt.Errorf("%w: range value %v outside [%d,%d]", ErrInvalidValue, *p.RangeValue, device.PercentMin, device.PercentMax)
	}

	s.WaterLevel = *p.RangeValue
	return s, StateChange{Namespace: NamespaceRange, Property: "rangeValue", Instance: InstanceWaterLevel, Field: "waterLevel", Value: s.WaterLevel}, nil
}

// handleAdjustRangeValue applies a signed delta and clamps the result to
// the supported range; an out-of-range delta is not an error.
func handleAdjustRangeValue(st device.State, d Directive) (device.State, StateChange, error) {
	s, ok := st.(device.CoffeeMakerState)
	if !ok || d.Instance != InstanceWaterLevel {
		return st, StateChange{}, fmt.Errorf("%w: range instance %q on %s", ErrUnsupportedCommand, d.Instance, st.DeviceType())
	}

	var p rangeDeltaPayload
	if err := decodePayload(d.Payload, &p); err != nil {
		return st, StateChange{}, err
	}
	if p.RangeValueDelta == nil {
		return st, StateChange{}, fmt.Errorf("%w: missing rangeValueDelta", ErrInvalidValue)
	}

	s.WaterLevel = clampPercent(s.WaterLevel + *p.RangeValueDelta)
	return s, StateChange{Namespace: NamespaceRange, Property: "rangeValue", Instance: InstanceWaterLevel, Field: "waterLevel", Value: s.WaterLevel}, nil
}

type brightnessPayload struct {
	Brightness *float64 `json:"brightness"`
}

type brightnessDeltaPayload struct {
	BrightnessDelta *float64 `json:"brightnessDelta"`
}

func handleSetBrightness(st device.State, d Directive) (device.State, StateChange, error) {
	s, ok := st.(device.LightState)
	if !ok {
		return st, StateChange{}, fmt.Errorf("%w: brightness control on %s", ErrUnsupportedCommand, st.DeviceType())
	}

	var p brightnessPayload
	if err := decodePayload(d.Payload, &p); err != nil {
		return st, StateChange{}, err
	}
	if p.Brightness == nil {
		return st, StateChange{}, fmt.Errorf("%w: missing brightness", ErrInvalidValue)
	}
	if !device.ValidPercent(*p.Brightness) {
		return st, StateChange{}, fmt.Errorf("%w: brightness %v outside [%d,%d]", ErrInvalidValue, *p.Brightness, device.PercentMin, device.PercentMax)
	}

	s.Brightness = *p.Brightness
	return s, StateChange{Namespace: NamespaceBrightness, Property: "brightness", Field: "brightness", Value: s.Brightness}, nil
}

func handleAdjustBrightness(st device.State, d Directive) (device.State, StateChange, error) {
	s, ok := st.(device.LightState)
	if !ok {
		return st, StateChange{}, fmt.Errorf("%w: brightness control on %s", ErrUnsupportedCommand, st.DeviceType())
	}

	var p brightnessDeltaPayload
	if err := decodePayload(d.Payload, &p); err != nil {
		return st, StateChange{}, err
	}
	if p.BrightnessDelta == nil {
		return st, StateChange{}, fmt.Errorf("%w: missing brightnessDelta", ErrInvalidValue)
	}

	s.Brightness = clampPercent(s.Brightness + *p.BrightnessDelta)
	return s, StateChange{Namespace: NamespaceBrightness, Property: "brightness", Field: "brightness", Value: s.Brightness}, nil
}

type colorPayload struct {
	Color *struct {
		Hue        *float64 `json:"hue"`
		Saturation *float64 `json:"saturation"`
		Brightness *float64 `json:"brightness"`
	} `json:"color"`
}

// handleSetColor requires the full hue/saturation/brightness triple; a
// partial colour is rejected rather than merged.
func handleSetColor(st device.State, d Directive) (device.State, StateChange, error) {
	s, ok := st.(device.LightState)
	if !ok {
		return st, StateChange{}, fmt.Errorf("%w: colour control on %s", ErrUnsupportedCommand, st.DeviceType())
	}

	var p colorPayload
	if err := decodePayload(d.Payload, &p); err != nil {
		return st, StateChange{}, err
	}
	if p.Color == nil || p.Color.Hue == nil || p.Color.Saturation == nil || p.Color.Brightness == nil {
		return st, StateChange{}, fmt.Errorf("%w: color requires hue, saturation and brightness", ErrInvalidValue)
	}

	s.Color = device.Color{Hue: *p.Color.Hue, Saturation: *p.Color.Saturation, Brightness: *p.Color.Brightness}
	return s, StateChange{Namespace: NamespaceColor, Property: "color", Field: "color", Value: s.Color}, nil
}

type targetTemperaturePayload struct {
	TargetSetpoint *struct {
		Value *float64 `json:"value"`
		Scale string   `json:"scale"`
	} `json:"targetSetpoint"`
}

type thermostatModePayload struct {
	ThermostatMode *struct {
		Value *string `json:"value"`
	} `json:"thermostatMode"`
}

func handleSetTargetTemperature(st device.State, d Directive) (device.State, StateChange, error) {
	s, ok := st.(device.ThermostatState)
	if !ok {
		return st, StateChange{}, fmt.Errorf("%w: thermostat control on %s", ErrUnsupportedCommand, st.DeviceType())
	}

	var p targetTemperaturePayload
	if err := decodePayload(d.Payload, &p); err != nil {
		return st, StateChange{}, err
	}
	if p.TargetSetpoint == nil || p.TargetSetpoint.Value == nil {
		return st, StateChange{}, fmt.Errorf("%w: missing targetSetpoint.value", ErrInvalidValue)
	}
	if scale := p.TargetSetpoint.Scale; scale != "" && scale != ScaleCelsius {
		return st, StateChange{}, fmt.Errorf("%w: unsupported scale %q", ErrInvalidValue, scale)
	}

	s.TargetSetpoint = *p.TargetSetpoint.Value
	return s, StateChange{
		Namespace: NamespaceThermostat,
		Property:  "targetSetpoint",
		Field:     "targetSetpoint",
		Value:     TemperatureValue{Value: s.TargetSetpoint, Scale: ScaleCelsius},
	}, nil
}

func handleSetThermostatMode(st device.State, d Directive) (device.State, StateChange, error) {
	s, ok := st.(device.ThermostatState)
	if !ok {
		return st, StateChange{}, fmt.Errorf("%w: thermostat control on %s", ErrUnsupportedCommand, st.DeviceType())
	}

	var p thermostatModePayload
	if err := decodePayload(d.Payload, &p); err != nil {
		return st, StateChange{}, err
	}
	if p.ThermostatMode == nil || p.ThermostatMode.Value == nil {
		return st, StateChange{}, fmt.Errorf("%w: missing thermostatMode.value", ErrInvalidValue)
	}
	if !device.ValidThermostatMode(*p.ThermostatMode.Value) {
		return st, StateChange{}, fmt.Errorf("%w: thermostat mode %q", ErrInvalidValue, *p.ThermostatMode.Value)
	}

	s.Mode = *p.ThermostatMode.Value
	return s, StateChange{Namespace: NamespaceThermostat, Property: "thermostatMode", Field: "thermostatMode", Value: s.Mode}, nil
}
