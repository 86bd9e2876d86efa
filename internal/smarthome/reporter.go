package smarthome

import (
	"time"

	"github.com/greyfell/voicebridge/internal/device"
)

// sampleUncertaintyMillis is the uncertainty window stamped on sampled
// (non-actuated) property reads. Applied changes report zero because
// the value is known exactly at mutation time.
const sampleUncertaintyMillis = 50

// Snapshot reports every retrievable property of a device, in the order
// its capability catalog declares them, with the EndpointHealth
// connectivity property last. Instances are wire-qualified.
func Snapshot(d device.Device, now time.Time) []PropertyValue {
	ts := formatTimeOfSample(now)

	sample := func(namespace, name, instance string, value any) PropertyValue {
		return PropertyValue{
			Namespace:                 namespace,
			Name:                      name,
			Instance:                  QualifyInstance(instance, d.ID),
			Value:                     value,
			TimeOfSample:              ts,
			UncertaintyInMilliseconds: sampleUncertaintyMillis,
		}
	}

	var props []PropertyValue
	switch st := d.State.(type) {
	case device.CoffeeMakerState:
		props = []PropertyValue{
			sample(NamespacePower, "powerState", "", st.PowerState),
			sample(NamespaceMode, "mode", InstanceBrewStrength, st.BrewStrength),
			sample(NamespaceMode, "mode", InstanceErrorState, st.ErrorState),
			sample(NamespaceRange, "rangeValue", InstanceWaterLevel, st.WaterLevel),
		}
	case device.LightState:
		props = []PropertyValue{
			sample(NamespacePower, "powerState", "", st.PowerState),
			sample(NamespaceBrightness, "brightness", "", st.Brightness),
			sample(NamespaceColor, "color", "", st.Color),
		}
	case device.ThermostatState:
		props = []PropertyValue{
			sample(NamespaceThermostat, "targetSetpoint", "", TemperatureValue{Value: st.TargetSetpoint, Scale: ScaleCelsius}),
			sample(NamespaceThermostat, "thermostatMode", "", st.Mode),
			sample(NamespaceTemperature, "temperature", "", TemperatureValue{Value: st.Temperature, Scale: ScaleCelsius}),
		}
	case device.ContactSensorState:
		props = []PropertyValue{
			sample(NamespaceContact, "detectionState", "", st.DetectionState),
			sample(NamespaceTemperature, "temperature", "", TemperatureValue{Value: st.Temperature, Scale: ScaleCelsius}),
		}
	}

	return append(props, sample(NamespaceEndpointHealth, "connectivity", "", ConnectivityValue{Value: ConnectivityOK}))
}
