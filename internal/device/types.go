package device

// Type identifies the kind of simulated device. The type is fixed at
// creation and selects which State variant the device carries.
type Type string

// Device types.
const (
	TypeCoffeeMaker   Type = "COFFEE_MAKER"
	TypeLight         Type = "LIGHT"
	TypeThermostat    Type = "THERMOSTAT"
	TypeContactSensor Type = "CONTACT_SENSOR"
)

// AllTypes returns all valid device type values.
func AllTypes() []Type {
	return []Type{TypeCoffeeMaker, TypeLight, TypeThermostat, TypeContactSensor}
}

// Power states.
const (
	PowerOn  = "ON"
	PowerOff = "OFF"
)

// Brew strength values for the coffee maker's BrewStrength mode.
const (
	BrewLight  = "light"
	BrewMedium = "medium"
	BrewStrong = "strong"
)

// BrewStrengths returns the closed set of brew strength values.
func BrewStrengths() []string {
	return []string{BrewLight, BrewMedium, BrewStrong}
}

// Error state values for the coffee maker's ErrorState mode.
const (
	ErrorNone     = "none"
	ErrorLowWater = "lowWater"
	ErrorJammed   = "jammed"
)

// ErrorStates returns the closed set of error state values.
func ErrorStates() []string {
	return []string{ErrorNone, ErrorLowWater, ErrorJammed}
}

// Thermostat modes.
const (
	ModeHeat = "HEAT"
	ModeCool = "COOL"
	ModeAuto = "AUTO"
	ModeOff  = "OFF"
)

// ThermostatModes returns the closed set of thermostat mode values.
func ThermostatModes() []string {
	return []string{ModeHeat, ModeCool, ModeAuto, ModeOff}
}

// Detection states for contact sensors.
const (
	Detected    = "DETECTED"
	NotDetected = "NOT_DETECTED"
)

// Percentage bounds shared by brightness, water level and range values.
const (
	PercentMin = 0
	PercentMax = 100
)

// Color is the hue/saturation/brightness triple used by colour-capable
// lights. All three components must be present in a SetColor payload.
type Color struct {
	Hue        float64 `json:"hue" yaml:"hue"`
	Saturation float64 `json:"saturation" yaml:"saturation"`
	Brightness float64 `json:"brightness" yaml:"brightness"`
}

// State is the type-tagged variant of per-type device state.
//
// Every concrete variant is a plain value struct (no maps, slices or
// pointers), so copying a State copies it completely. Handlers never
// mutate a variant in place; they return a replacement value.
type State interface {
	// DeviceType reports which device type this variant belongs to.
	DeviceType() Type
}

// CoffeeMakerState is the state variant for coffee makers.
type CoffeeMakerState struct {
	PowerState   string  `json:"powerState"`
	BrewStrength string  `json:"brewStrength"`
	WaterLevel   float64 `json:"waterLevel"`
	ErrorState   string  `json:"errorState"`
}

// DeviceType implements State.
func (CoffeeMakerState) DeviceType() Type { return TypeCoffeeMaker }

// LightState is the state variant for lights.
type LightState struct {
	PowerState string  `json:"powerState"`
	Brightness float64 `json:"brightness"`
	Color      Color   `json:"color"`
}

// DeviceType implements State.
func (LightState) DeviceType() Type { return TypeLight }

// ThermostatState is the state variant for thermostats.
type ThermostatState struct {
	TargetSetpoint float64 `json:"targetSetpoint"`
	Temperature    float64 `json:"temperature"`
	Mode           string  `json:"thermostatMode"`
}

// DeviceType implements State.
func (ThermostatState) DeviceType() Type { return TypeThermostat }

// ContactSensorState is the state variant for contact sensors.
// Contact sensors are read-only; no command handler is registered for them.
type ContactSensorState struct {
	DetectionState string  `json:"detectionState"`
	Temperature    float64 `json:"temperature"`
}

// DeviceType implements State.
func (ContactSensorState) DeviceType() Type { return TypeContactSensor }

// Device represents one simulated endpoint in the fleet.
type Device struct {
	// ID is the endpoint identifier. Unique and immutable.
	ID string

	// FriendlyName is the human-facing name surfaced at discovery.
	FriendlyName string

	// Type is fixed at creation.
	Type Type

	// State is the current type-tagged state variant.
	State State
}
