package device

import (
	"sort"
	"sync"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Registry is the process-wide device store.
//
// Locking model: mu is the registry generation lock. Every per-device
// operation (Get, Update) holds mu.RLock for its whole duration plus the
// device's own entry lock, so directives against the same device are
// serialised while directives against different devices run concurrently.
// List takes mu.Lock, which waits out every in-flight mutation and blocks
// new ones, yielding a snapshot of a single registry generation.
//
// Devices are added only during startup seeding and never removed.
//
// All public methods are thread-safe.
type Registry struct {
	mu      sync.RWMutex
	devices map[string]*entry
	logger  Logger
}

// entry pairs a device with its per-device mutation lock.
type entry struct {
	mu  sync.Mutex
	dev Device
}

// NewRegistry creates an empty device registry.
func NewRegistry() *Registry {
	return &Registry{
		devices: make(map[string]*entry),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// Add registers a device. It is called during startup seeding only.
// Returns ErrDeviceExists if the ID is already registered, or a
// validation error if the device violates a state invariant.
func (r *Registry) Add(d Device) error {
	if err := ValidateDevice(&d); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.devices[d.ID]; ok {
		return ErrDeviceExists
	}
	r.devices[d.ID] = &entry{dev: d}

	r.logger.Info("device registered", "id", d.ID, "type", d.Type)
	return nil
}

// Get retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a copy; state variants are value types, so the
// copy is complete.
func (r *Registry) Get(id string) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.devices[id]
	if !ok {
		return Device{}, ErrDeviceNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.dev, nil
}

// Update applies fn to the device's current state as one atomic
// read-modify-write. If fn returns an error nothing is written; otherwise
// the returned state replaces the old one and the updated device copy is
// returned.
//
// fn must be pure and fast: it runs under the device lock and the
// registry read lock, so it must not block or call back into the registry.
func (r *Registry) Update(id string, fn func(State) (State, error)) (Device, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.devices[id]
	if !ok {
		return Device{}, ErrDeviceNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	next, err := fn(e.dev.State)
	if err != nil {
		return Device{}, err
	}
	if next.DeviceType() != e.dev.Type {
		return Device{}, ErrStateMismatch
	}

	e.dev.State = next
	r.logger.Debug("device state updated", "id", id)
	return e.dev, nil
}

// List returns all devices as of a single registry generation, ordered
// by ID for stable discovery output. Taking the write lock excludes all
// in-flight mutations, so the snapshot is never a mix of pre- and
// post-mutation states.
func (r *Registry) List() []Device {
	r.mu.Lock()
	defer r.mu.Unlock()

	devices := make([]Device, 0, len(r.devices))
	for _, e := range r.devices {
		devices = append(devices, e.dev)
	}
	sort.Slice(devices, func(i, j int) bool { return devices[i].ID < devices[j].ID })
	return devices
}

// Count returns the number of registered devices.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices)
}
