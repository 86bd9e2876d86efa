package smarthome

import (
	"fmt"

	"github.com/greyfell/voicebridge/internal/device"
)

type routeKey struct {
	deviceType device.Type
	namespace  string
	name       string
}

// resolution is the routing outcome for one (type, namespace, name)
// triple: either a command handler or a state report marker.
type resolution struct {
	handler Handler
	report  bool
}

// routes is built once at startup and read-only afterwards, so lookups
// need no locking.
var routes = buildRoutes()

func command(t device.Type, namespace, name string, h Handler) (routeKey, resolution) {
	return routeKey{t, namespace, name}, resolution{handler: h}
}

func buildRoutes() map[routeKey]resolution {
	r := make(map[routeKey]resolution)

	add := func(k routeKey, v resolution) {
		if _, dup := r[k]; dup {
			panic(fmt.Sprintf("smarthome: duplicate route %+v", k))
		}
		r[k] = v
	}

	add(command(device.TypeCoffeeMaker, NamespacePower, NameTurnOn, handleTurnOn))
	add(command(device.TypeCoffeeMaker, NamespacePower, NameTurnOff, handleTurnOff))
	add(command(device.TypeCoffeeMaker, NamespaceMode, NameSetMode, handleSetMode))
	add(command(device.TypeCoffeeMaker, NamespaceRange, NameSetRangeValue, handleSetRangeValue))
	add(command(device.TypeCoffeeMaker, NamespaceRange, NameAdjustRangeValue, handleAdjustRangeValue))

	add(command(device.TypeLight, NamespacePower, NameTurnOn, handleTurnOn))
	add(command(device.TypeLight, NamespacePower, NameTurnOff, handleTurnOff))
	add(command(device.TypeLight, NamespaceBrightness, NameSetBrightness, handleSetBrightness))
	add(command(device.TypeLight, NamespaceBrightness, NameAdjustBrightness, handleAdjustBrightness))
	add(command(device.TypeLight, NamespaceColor, NameSetColor, handleSetColor))

	add(command(device.TypeThermostat, NamespaceThermostat, NameSetTargetTemperature, handleSetTargetTemperature))
	add(command(device.TypeThermostat, NamespaceThermostat, NameSetThermostatMode, handleSetThermostatMode))

	// ReportState is accepted under every namespace a type's catalog
	// advertises, plus the bare Alexa and legacy Alexa.StateReport
	// namespaces. Contact sensors end up report-only.
	for _, t := range device.AllTypes() {
		reportNamespaces := append(namespacesFor(t), NamespaceStateReport)
		for _, ns := range reportNamespaces {
			k := routeKey{t, ns, NameReportState}
			if _, exists := r[k]; !exists {
				r[k] = resolution{report: true}
			}
		}
	}

	return r
}

// resolve looks up the handling for a directive against a device type.
// A miss means the combination is not supported for that type; device
// existence has already been established by the caller.
func resolve(t device.Type, namespace, name string) (resolution, error) {
	res, ok := routes[routeKey{t, namespace, name}]
	if !ok {
		return resolution{}, fmt.Errorf("%w: %s %s for %s", ErrUnsupportedCommand, namespace, name, t)
	}
	return res, nil
}
