package device

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// seedFile is the on-disk shape of the device seed table.
type seedFile struct {
	Devices []seedDevice `yaml:"devices"`
}

// seedDevice is one row of the seed table. State fields are a superset
// of all variants; buildState picks the ones relevant to the type and
// fills defaults for the rest.
type seedDevice struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name"`
	Type  Type      `yaml:"type"`
	State seedState `yaml:"state"`
}

type seedState struct {
	PowerState     string   `yaml:"power_state"`
	BrewStrength   string   `yaml:"brew_strength"`
	WaterLevel     *float64 `yaml:"water_level"`
	ErrorState     string   `yaml:"error_state"`
	Brightness     *float64 `yaml:"brightness"`
	Color          *Color   `yaml:"color"`
	TargetSetpoint *float64 `yaml:"target_setpoint"`
	Temperature    *float64 `yaml:"temperature"`
	Mode           string   `yaml:"mode"`
	DetectionState string   `yaml:"detection_state"`
}

// LoadSeed reads the device seed table from a YAML file.
//
// Every device is fully validated; a single bad row fails the whole load
// so a misconfigured fleet never half-starts.
func LoadSeed(path string) ([]Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}

	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	if len(f.Devices) == 0 {
		return nil, fmt.Errorf("%w: seed file contains no devices", ErrInvalidDevice)
	}

	devices := make([]Device, 0, len(f.Devices))
	for _, row := range f.Devices {
		state, err := buildState(row.Type, row.State)
		if err != nil {
			return nil, fmt.Errorf("device %q: %w", row.ID, err)
		}

		d := Device{
			ID:           row.ID,
			FriendlyName: row.Name,
			Type:         row.Type,
			State:        state,
		}
		if err := ValidateDevice(&d); err != nil {
			return nil, fmt.Errorf("device %q: %w", row.ID, err)
		}
		devices = append(devices, d)
	}

	return devices, nil
}

// Seed loads the seed table and registers every device.
func Seed(r *Registry, path string) error {
	devices, err := LoadSeed(path)
	if err != nil {
		return err
	}
	for _, d := range devices {
		if err := r.Add(d); err != nil {
			return fmt.Errorf("seeding device %q: %w", d.ID, err)
		}
	}
	return nil
}

// buildState constructs the state variant for a device type from a seed
// row, applying defaults for omitted fields.
func buildState(t Type, s seedState) (State, error) {
	switch t {
	case TypeCoffeeMaker:
		st := CoffeeMakerState{
			PowerState:   defaultString(s.PowerState, PowerOff),
			BrewStrength: defaultString(s.BrewStrength, BrewMedium),
			WaterLevel:   defaultFloat(s.WaterLevel, PercentMax),
			ErrorState:   defaultString(s.ErrorState, ErrorNone),
		}
		return st, nil
	case TypeLight:
		st := LightState{
			PowerState: defaultString(s.PowerState, PowerOff),
			Brightness: defaultFloat(s.Brightness, PercentMax),
		}
		if s.Color != nil {
			st.Color = *s.Color
		} else {
			st.Color = Color{Hue: 0, Saturation: 0, Brightness: 1}
		}
		return st, nil
	case TypeThermostat:
		st := ThermostatState{
			TargetSetpoint: defaultFloat(s.TargetSetpoint, 21.0),
			Temperature:    defaultFloat(s.Temperature, 20.0),
			Mode:           defaultString(s.Mode, ModeHeat),
		}
		return st, nil
	case TypeContactSensor:
		st := ContactSensorState{
			DetectionState: defaultString(s.DetectionState, NotDetected),
			Temperature:    defaultFloat(s.Temperature, 20.0),
		}
		return st, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, t)
	}
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func defaultFloat(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}
