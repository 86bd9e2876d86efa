// Voicebridge - voice assistant smart home bridge
//
// This is the main entry point for the Voicebridge application: a
// protocol adapter that exposes a simulated device fleet to a voice
// assistant platform. It answers discovery, control and state report
// directives over HTTP and fans applied changes out to MQTT, InfluxDB
// and a SQLite history log.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/greyfell/voicebridge/internal/actuation"
	"github.com/greyfell/voicebridge/internal/api"
	"github.com/greyfell/voicebridge/internal/device"
	"github.com/greyfell/voicebridge/internal/history"
	"github.com/greyfell/voicebridge/internal/infrastructure/config"
	"github.com/greyfell/voicebridge/internal/infrastructure/influxdb"
	"github.com/greyfell/voicebridge/internal/infrastructure/logging"
	"github.com/greyfell/voicebridge/internal/infrastructure/mqtt"
	"github.com/greyfell/voicebridge/internal/smarthome"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Voicebridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Initialise device registry from the seed table
	registry := device.NewRegistry()
	registry.SetLogger(log)
	if err := device.Seed(registry, cfg.Devices.SeedFile); err != nil {
		return fmt.Errorf("seeding device registry: %w", err)
	}
	log.Info("device registry seeded",
		"seed_file", cfg.Devices.SeedFile,
		"devices", registry.Count(),
	)

	// Actuation sinks are collected as they come online
	var (
		notifiers    []smarthome.Notifier
		recorder     smarthome.DirectiveRecorder
		mqttClient   *mqtt.Client
		influxClient *influxdb.Client
	)

	// Connect to MQTT broker (optional)
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		mqttClient.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		mqttClient.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})

		notifiers = append(notifiers, actuation.NewMQTTSink(mqttClient))
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to InfluxDB (optional)
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		influxSink := actuation.NewInfluxSink(influxClient)
		notifiers = append(notifiers, influxSink)
		recorder = influxSink
	} else {
		log.Info("InfluxDB disabled")
	}

	// Open the state change history log (optional)
	var store *history.Store
	if cfg.History.Enabled {
		store, err = history.Open(history.Config{
			Path:        cfg.History.Path,
			WALMode:     cfg.History.WALMode,
			BusyTimeout: cfg.History.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening history store: %w", err)
		}
		defer func() {
			log.Info("closing history store")
			if closeErr := store.Close(); closeErr != nil {
				log.Error("error closing history store", "error", closeErr)
			}
		}()
		log.Info("history store opened", "path", cfg.History.Path)

		notifiers = append(notifiers, store)
	} else {
		log.Info("history disabled")
	}

	// Build the smart home service
	service, err := smarthome.New(smarthome.Deps{
		Registry:     registry,
		Manufacturer: cfg.Service.Manufacturer,
		Notifiers:    notifiers,
		Recorder:     recorder,
		Logger:       log,
	})
	if err != nil {
		return fmt.Errorf("creating smart home service: %w", err)
	}

	// Start the API server
	server, err := api.New(api.Deps{
		Config:   cfg.API,
		Security: cfg.Security,
		Logger:   log,
		Service:  service,
		Registry: registry,
		History:  store,
		Version:  version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started",
		"host", cfg.API.Host,
		"port", cfg.API.Port,
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, mqttClient, influxClient, store, server); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// 1. API server
	// 2. History store (if enabled)
	// 3. InfluxDB (if enabled)
	// 4. MQTT (if enabled)

	log.Info("Voicebridge stopped")
	return nil
}

// healthCheck verifies all enabled components are healthy after startup.
// Disabled components are passed as nil and skipped.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - mqttClient: MQTT client, or nil if MQTT is disabled
//   - influxClient: InfluxDB client, or nil if InfluxDB is disabled
//   - store: History store, or nil if history is disabled
//   - server: API server (always present)
//
// Returns:
//   - error: nil if all checks pass, or error naming the failing component
func healthCheck(ctx context.Context, mqttClient *mqtt.Client, influxClient *influxdb.Client, store *history.Store, server *api.Server) error {
	if mqttClient != nil {
		if err := mqttClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("mqtt: %w", err)
		}
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	if store != nil {
		if err := store.HealthCheck(ctx); err != nil {
			return fmt.Errorf("history: %w", err)
		}
	}

	if err := server.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}

// getConfigPath returns the configuration file path.
// Uses VOICEBRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("VOICEBRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
