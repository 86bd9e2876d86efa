// Package device defines the simulated device fleet for Voicebridge.
//
// A Device pairs an immutable identity (ID, friendly name, type) with a
// type-tagged State variant. Each device type owns a disjoint state
// struct (CoffeeMakerState, LightState, ThermostatState,
// ContactSensorState); code reaches the fields only after a type switch,
// so a light can never grow a brew strength.
//
// The Registry is the process-wide store. It is seeded once at startup
// from a YAML table and mutated only through Update, which serialises
// read-modify-write per device while letting directives against
// different devices proceed concurrently. List returns a snapshot taken
// under the registry write lock, so discovery never observes a mix of
// pre- and post-mutation states.
//
// Nothing in this package is persisted; the fleet lives and dies with
// the process.
package device
