package smarthome

import "github.com/greyfell/voicebridge/internal/device"

// CapabilityDescriptor is one advertised capability in a discovery
// response. Instance is the semantic name here; discovery qualifies it
// with the endpoint ID before it goes on the wire.
type CapabilityDescriptor struct {
	Type                string                `json:"type"`
	Interface           string                `json:"interface"`
	Version             string                `json:"version"`
	Instance            string                `json:"instance,omitempty"`
	Properties          *CapabilityProperties `json:"properties,omitempty"`
	CapabilityResources *Resources            `json:"capabilityResources,omitempty"`
	Configuration       any                   `json:"configuration,omitempty"`
}

// CapabilityProperties lists the retrievable properties of one
// capability.
type CapabilityProperties struct {
	Supported           []SupportedProperty `json:"supported"`
	Retrievable         bool                `json:"retrievable"`
	ProactivelyReported bool                `json:"proactivelyReported"`
}

// SupportedProperty names one reportable property.
type SupportedProperty struct {
	Name string `json:"name"`
}

// Resources holds the friendly names a voice assistant can resolve a
// capability or mode value by.
type Resources struct {
	FriendlyNames []FriendlyName `json:"friendlyNames"`
}

// FriendlyName is one text/locale pair inside Resources.
type FriendlyName struct {
	Type  string            `json:"@type"`
	Value FriendlyNameInner `json:"value"`
}

// FriendlyNameInner is the text payload of a FriendlyName.
type FriendlyNameInner struct {
	Text   string `json:"text"`
	Locale string `json:"locale"`
}

// ModeConfiguration describes a mode controller's value set.
type ModeConfiguration struct {
	Ordered        bool        `json:"ordered"`
	SupportedModes []ModeValue `json:"supportedModes"`
}

// ModeValue is one member of a mode controller's closed value set.
type ModeValue struct {
	Value         string    `json:"value"`
	ModeResources Resources `json:"modeResources"`
}

// RangeConfiguration describes a range controller's numeric bounds.
type RangeConfiguration struct {
	SupportedRange SupportedRange `json:"supportedRange"`
	UnitOfMeasure  string         `json:"unitOfMeasure,omitempty"`
}

// SupportedRange is the min/max/precision triple of a range controller.
type SupportedRange struct {
	MinimumValue float64 `json:"minimumValue"`
	MaximumValue float64 `json:"maximumValue"`
	Precision    float64 `json:"precision"`
}

const unitPercent = "Alexa.Unit.Percent"

func friendlyText(text string) Resources {
	return Resources{FriendlyNames: []FriendlyName{{
		Type:  "text",
		Value: FriendlyNameInner{Text: text, Locale: "en-US"},
	}}}
}

func modeValues(values ...string) []ModeValue {
	out := make([]ModeValue, 0, len(values))
	for _, v := range values {
		out = append(out, ModeValue{Value: v, ModeResources: friendlyText(v)})
	}
	return out
}

func baseCapability() CapabilityDescriptor {
	return CapabilityDescriptor{Type: "AlexaInterface", Interface: NamespaceAlexa, Version: PayloadVersion}
}

func retrievable(iface string, properties ...string) CapabilityDescriptor {
	supported := make([]SupportedProperty, 0, len(properties))
	for _, p := range properties {
		supported = append(supported, SupportedProperty{Name: p})
	}
	return CapabilityDescriptor{
		Type:      "AlexaInterface",
		Interface: iface,
		Version:   PayloadVersion,
		Properties: &CapabilityProperties{
			Supported:   supported,
			Retrievable: true,
		},
	}
}

// CapabilitiesFor returns the capability catalog for a device type. The
// declaration order here fixes the property order of state report
// snapshots; Snapshot walks the same capabilities in the same order.
func CapabilitiesFor(t device.Type) []CapabilityDescriptor {
	switch t {
	case device.TypeCoffeeMaker:
		brew := retrievable(NamespaceMode, "mode")
		brew.Instance = InstanceBrewStrength
		brew.CapabilityResources = ptrResources(friendlyText("Brew Strength"))
		brew.Configuration = ModeConfiguration{SupportedModes: modeValues(device.BrewStrengths()...)}

		errState := retrievable(NamespaceMode, "mode")
		errState.Instance = InstanceErrorState
		errState.CapabilityResources = ptrResources(friendlyText("Error State"))
		errState.Configuration = ModeConfiguration{SupportedModes: modeValues(device.ErrorStates()...)}

		water := retrievable(NamespaceRange, "rangeValue")
		water.Instance = InstanceWaterLevel
		water.CapabilityResources = ptrResources(friendlyText("Water Level"))
		water.Configuration = RangeConfiguration{
			SupportedRange: SupportedRange{MinimumValue: device.PercentMin, MaximumValue: device.PercentMax, Precision: 1},
			UnitOfMeasure:  unitPercent,
		}

		return []CapabilityDescriptor{
			baseCapability(),
			retrievable(NamespacePower, "powerState"),
			brew,
			errState,
			water,
			retrievable(NamespaceEndpointHealth, "connectivity"),
		}

	case device.TypeLight:
		return []CapabilityDescriptor{
			baseCapability(),
			retrievable(NamespacePower, "powerState"),
			retrievable(NamespaceBrightness, "brightness"),
			retrievable(NamespaceColor, "color"),
			retrievable(NamespaceEndpointHealth, "connectivity"),
		}

	case device.TypeThermostat:
		return []CapabilityDescriptor{
			baseCapability(),
			retrievable(NamespaceThermostat, "targetSetpoint", "thermostatMode"),
			retrievable(NamespaceTemperature, "temperature"),
			retrievable(NamespaceEndpointHealth, "connectivity"),
		}

	case device.TypeContactSensor:
		return []CapabilityDescriptor{
			baseCapability(),
			retrievable(NamespaceContact, "detectionState"),
			retrievable(NamespaceTemperature, "temperature"),
			retrievable(NamespaceEndpointHealth, "connectivity"),
		}
	}
	return nil
}

func ptrResources(r Resources) *Resources { return &r }

// displayCategory maps a device type to its discovery display category.
func displayCategory(t device.Type) string {
	switch t {
	case device.TypeCoffeeMaker:
		return "COFFEE_MAKER"
	case device.TypeLight:
		return "LIGHT"
	case device.TypeThermostat:
		return "THERMOSTAT"
	case device.TypeContactSensor:
		return "CONTACT_SENSOR"
	}
	return "OTHER"
}

// namespacesFor lists the capability namespaces a type supports,
// derived from its catalog. Used to register state report routes.
func namespacesFor(t device.Type) []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range CapabilitiesFor(t) {
		if seen[c.Interface] {
			continue
		}
		seen[c.Interface] = true
		out = append(out, c.Interface)
	}
	return out
}
