// Rhasspy Automation - voice intent rule engine
//
// This is the main entry point for the automation daemon. It connects a
// Rhasspy voice assistant to a home automation platform over MQTT:
// recognised intents become events, a declarative rule file binds events
// to conditional service calls, and every dispatch outcome is audited.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/Darknemesis98/rhasspy/migrations"

	"github.com/Darknemesis98/rhasspy/internal/automation"
	"github.com/Darknemesis98/rhasspy/internal/bridges/hass"
	"github.com/Darknemesis98/rhasspy/internal/bridges/rhasspy"
	"github.com/Darknemesis98/rhasspy/internal/infrastructure/config"
	"github.com/Darknemesis98/rhasspy/internal/infrastructure/database"
	"github.com/Darknemesis98/rhasspy/internal/infrastructure/influxdb"
	"github.com/Darknemesis98/rhasspy/internal/infrastructure/logging"
	"github.com/Darknemesis98/rhasspy/internal/infrastructure/mqtt"
	"github.com/Darknemesis98/rhasspy/internal/state"
	"github.com/Darknemesis98/rhasspy/internal/template"
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
	log.Info("starting rhasspy automation",
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

	// Open database and run migrations
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database ready", "path", cfg.Database.Path)

	// Compile the rule file before touching the network: a broken file
	// should fail startup immediately.
	stateStore := state.NewStore()
	evaluator, err := template.NewEvaluator(stateStore)
	if err != nil {
		return fmt.Errorf("creating template evaluator: %w", err)
	}

	registry := automation.NewRegistry(cfg.Rules.Path, evaluator)
	registry.SetLogger(log)
	if err := registry.Load(); err != nil {
		return fmt.Errorf("loading rules: %w", err)
	}
	log.Info("rules loaded", "path", cfg.Rules.Path, "count", registry.RuleCount())

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
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

	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Feed the state cache from the platform's retained statestream
	if err := stateStore.Subscribe(mqttClient, cfg.Engine.StateTopic, byte(cfg.MQTT.QoS), log); err != nil {
		return fmt.Errorf("subscribing to statestream: %w", err)
	}
	log.Info("state cache subscribed", "topic", cfg.Engine.StateTopic)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
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
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Assemble the engine
	bridge := hass.New(mqttClient)
	bridge.SetLogger(log)

	repo := automation.NewSQLiteRepository(db.DB)

	// A typed nil pointer would pass the engine's interface nil check,
	// so only assign when telemetry is actually on.
	var telemetry automation.Telemetry
	if influxClient != nil {
		telemetry = influxClient
	}

	engine := automation.NewEngine(registry, bridge, repo, telemetry, log)
	engine.SetDispatchTimeout(cfg.DispatchTimeout())

	// Attach the intent source last: no events arrive before the engine
	// is fully wired.
	source := rhasspy.NewSource(ctx, engine)
	source.SetLogger(log)
	if err := source.Subscribe(mqttClient, cfg.Engine.IntentTopic); err != nil {
		return fmt.Errorf("subscribing to intents: %w", err)
	}
	log.Info("intent source subscribed", "topic", cfg.Engine.IntentTopic)

	// SIGHUP reloads the rule file without dropping the broker session
	go watchReload(ctx, registry, log)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("initialisation complete, waiting for events")

	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses RHASSPY_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("RHASSPY_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// watchReload reloads the rule file on SIGHUP until the context ends.
// A failed reload logs the rejection and keeps the previous rules serving.
func watchReload(ctx context.Context, registry *automation.Registry, log *logging.Logger) {
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			return
		case <-hup:
			if err := registry.Load(); err != nil {
				log.Error("reload rejected, previous rules still active", "error", err)
				continue
			}
			log.Info("rules reloaded", "count", registry.RuleCount())
		}
	}
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}
	return nil
}
