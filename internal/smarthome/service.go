package smarthome

import (
	"errors"
	"fmt"
	"time"

	"github.com/greyfell/voicebridge/internal/device"
)

// Notifier receives post-mutation actuation notifications. Delivery is
// best effort: a failing notifier is logged and never rolls back or
// delays the directive response.
type Notifier interface {
	Notify(deviceID, field string, value any) error
}

// DirectiveRecorder observes the outcome of every processed directive,
// accepted or rejected. Used for telemetry; calls must be cheap and
// must not block.
type DirectiveRecorder interface {
	RecordDirective(namespace, name string, accepted bool)
}

// Logger is the minimal logging interface the service needs.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps carries the collaborators a Service needs.
type Deps struct {
	Registry     *device.Registry
	Manufacturer string
	Notifiers    []Notifier
	Recorder     DirectiveRecorder
	Logger       Logger
}

// Service orchestrates discovery, control and state reporting against
// the device registry.
type Service struct {
	registry     *device.Registry
	manufacturer string
	notifiers    []Notifier
	recorder     DirectiveRecorder
	logger       Logger

	// now is swappable for deterministic timestamps in tests.
	now func() time.Time
}

// New creates a Service. Registry is required; a nil logger disables
// logging and an empty manufacturer gets a default.
func New(deps Deps) (*Service, error) {
	if deps.Registry == nil {
		return nil, errors.New("smarthome: registry is required")
	}
	if deps.Logger == nil {
		deps.Logger = noopLogger{}
	}
	if deps.Manufacturer == "" {
		deps.Manufacturer = "Greyfell Labs"
	}
	return &Service{
		registry:     deps.Registry,
		manufacturer: deps.Manufacturer,
		notifiers:    deps.Notifiers,
		recorder:     deps.Recorder,
		logger:       deps.Logger,
		now:          time.Now,
	}, nil
}

// Discover describes the full fleet as protocol endpoints.
func (s *Service) Discover() Response {
	devices := s.registry.List()
	s.logger.Debug("discovery requested", "endpoints", len(devices))
	return BuildDiscoveryResponse(devices, s.manufacturer)
}

// HandleDirective routes and executes one control or report directive.
// On error the caller builds the error response; the returned error is
// always one of the package sentinels (or wraps one).
func (s *Service) HandleDirective(d Directive) (Response, error) {
	dev, err := s.registry.Get(d.EndpointID)
	if err != nil {
		s.recordDirective(d, false)
		if errors.Is(err, device.ErrDeviceNotFound) {
			return Response{}, fmt.Errorf("%w: %s", ErrUnknownDevice, d.EndpointID)
		}
		return Response{}, err
	}

	res, err := resolve(dev.Type, d.Namespace, d.Name)
	if err != nil {
		s.recordDirective(d, false)
		return Response{}, err
	}

	if res.report {
		snapshot := Snapshot(dev, s.now())
		s.logger.Debug("state report",
			"device_id", d.EndpointID,
			"namespace", d.Namespace,
			"properties", len(snapshot))
		s.recordDirective(d, true)
		return BuildStateReport(d, snapshot), nil
	}

	// Multi-instance controllers receive the semantic instance name;
	// the wire form carries an endpoint qualifier.
	d.Instance = SemanticInstance(d.Instance, d.EndpointID)

	var change StateChange
	_, err = s.registry.Update(d.EndpointID, func(st device.State) (device.State, error) {
		next, ch, err := res.handler(st, d)
		if err != nil {
			return nil, err
		}
		change = ch
		return next, nil
	})
	if err != nil {
		s.recordDirective(d, false)
		return Response{}, err
	}
	s.recordDirective(d, true)

	s.logger.Info("directive applied",
		"device_id", d.EndpointID,
		"namespace", d.Namespace,
		"name", d.Name,
		"field", change.Field)

	s.dispatchNotifications(d.EndpointID, change)

	return BuildDirectiveResponse(d, change, s.now()), nil
}

// recordDirective reports one processed directive to the recorder, if any.
func (s *Service) recordDirective(d Directive, accepted bool) {
	if s.recorder == nil {
		return
	}
	s.recorder.RecordDirective(d.Namespace, d.Name, accepted)
}

// dispatchNotifications fans the applied change out to the actuation
// sinks. Runs off the request path and outside all registry locks.
func (s *Service) dispatchNotifications(deviceID string, change StateChange) {
	if len(s.notifiers) == 0 {
		return
	}
	notifiers := s.notifiers
	go func() {
		for _, n := range notifiers {
			if err := n.Notify(deviceID, change.Field, change.Value); err != nil {
				s.logger.Warn("actuation notify failed",
					"device_id", deviceID,
					"field", change.Field,
					"error", err)
			}
		}
	}()
}
