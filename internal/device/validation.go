package device

import "fmt"

// Pre-computed validation sets for O(1) lookups.
var (
	validTypes           map[Type]struct{}
	validBrewStrengths   map[string]struct{}
	validErrorStates     map[string]struct{}
	validThermostatModes map[string]struct{}
)

func init() {
	validTypes = make(map[Type]struct{}, len(AllTypes()))
	for _, t := range AllTypes() {
		validTypes[t] = struct{}{}
	}

	validBrewStrengths = make(map[string]struct{}, len(BrewStrengths()))
	for _, s := range BrewStrengths() {
		validBrewStrengths[s] = struct{}{}
	}

	validErrorStates = make(map[string]struct{}, len(ErrorStates()))
	for _, s := range ErrorStates() {
		validErrorStates[s] = struct{}{}
	}

	validThermostatModes = make(map[string]struct{}, len(ThermostatModes()))
	for _, m := range ThermostatModes() {
		validThermostatModes[m] = struct{}{}
	}
}

// ValidType reports whether t is a recognised device type.
func ValidType(t Type) bool {
	_, ok := validTypes[t]
	return ok
}

// ValidBrewStrength reports whether s is in the closed brew strength set.
func ValidBrewStrength(s string) bool {
	_, ok := validBrewStrengths[s]
	return ok
}

// ValidErrorState reports whether s is in the closed error state set.
func ValidErrorState(s string) bool {
	_, ok := validErrorStates[s]
	return ok
}

// ValidThermostatMode reports whether m is in the closed thermostat mode set.
func ValidThermostatMode(m string) bool {
	_, ok := validThermostatModes[m]
	return ok
}

// ValidPercent reports whether v lies in the inclusive [0,100] range.
func ValidPercent(v float64) bool {
	return v >= PercentMin && v <= PercentMax
}

// validPowerState reports whether s is ON or OFF.
func validPowerState(s string) bool {
	return s == PowerOn || s == PowerOff
}

// ValidateDevice performs full validation of a device: identity fields,
// type, and state invariants. The range and enum invariants hold at all
// times, not just at mutation boundaries, so this is also run on seed data.
func ValidateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}
	if d.FriendlyName == "" {
		return fmt.Errorf("%w: friendly name is required", ErrInvalidDevice)
	}
	if !ValidType(d.Type) {
		return fmt.Errorf("%w: %q", ErrInvalidType, d.Type)
	}
	if d.State == nil {
		return fmt.Errorf("%w: state is required", ErrInvalidDevice)
	}
	if d.State.DeviceType() != d.Type {
		return fmt.Errorf("%w: %T for device type %q", ErrStateMismatch, d.State, d.Type)
	}
	return ValidateState(d.State)
}

// ValidateState checks the invariants of a state variant.
func ValidateState(s State) error {
	switch st := s.(type) {
	case CoffeeMakerState:
		if !validPowerState(st.PowerState) {
			return fmt.Errorf("%w: powerState %q", ErrInvalidState, st.PowerState)
		}
		if !ValidBrewStrength(st.BrewStrength) {
			return fmt.Errorf("%w: brewStrength %q", ErrInvalidState, st.BrewStrength)
		}
		if !ValidPercent(st.WaterLevel) {
			return fmt.Errorf("%w: waterLevel %v out of [0,100]", ErrInvalidState, st.WaterLevel)
		}
		if !ValidErrorState(st.ErrorState) {
			return fmt.Errorf("%w: errorState %q", ErrInvalidState, st.ErrorState)
		}
	case LightState:
		if !validPowerState(st.PowerState) {
			return fmt.Errorf("%w: powerState %q", ErrInvalidState, st.PowerState)
		}
		if !ValidPercent(st.Brightness) {
			return fmt.Errorf("%w: brightness %v out of [0,100]", ErrInvalidState, st.Brightness)
		}
	case ThermostatState:
		if !ValidThermostatMode(st.Mode) {
			return fmt.Errorf("%w: thermostatMode %q", ErrInvalidState, st.Mode)
		}
	case ContactSensorState:
		if st.DetectionState != Detected && st.DetectionState != NotDetected {
			return fmt.Errorf("%w: detectionState %q", ErrInvalidState, st.DetectionState)
		}
	default:
		return fmt.Errorf("%w: unknown state variant %T", ErrInvalidState, s)
	}
	return nil
}
