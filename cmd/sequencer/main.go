// Scene Sequencer - Scene Cycling Service
//
// This is the main entry point for the scene sequencer service. The
// sequencer is a companion service on the Gray Logic platform bus: it
// listens for cycle requests, advances a persistent cursor per scene
// sequence, and activates the next scene via MQTT commands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/nerrad567/scene-sequencer/migrations"

	"github.com/nerrad567/scene-sequencer/internal/api"
	"github.com/nerrad567/scene-sequencer/internal/dispatch"
	"github.com/nerrad567/scene-sequencer/internal/entity"
	"github.com/nerrad567/scene-sequencer/internal/infrastructure/config"
	"github.com/nerrad567/scene-sequencer/internal/infrastructure/database"
	"github.com/nerrad567/scene-sequencer/internal/infrastructure/influxdb"
	"github.com/nerrad567/scene-sequencer/internal/infrastructure/logging"
	"github.com/nerrad567/scene-sequencer/internal/infrastructure/mqtt"
	"github.com/nerrad567/scene-sequencer/internal/scene"
	"github.com/nerrad567/scene-sequencer/internal/sequencer"
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

	// Run the application
	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error { //nolint:gocognit // Startup sequence: wiring + defer chain, linear and readable
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Scene Sequencer",
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

	// Open database
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
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Initialise entity registry
	entityRegistry := entity.NewRegistry(entity.NewSQLiteRepository(db.DB))
	entityRegistry.SetLogger(log)
	if refreshErr := entityRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading entity registry: %w", refreshErr)
	}
	log.Info("entity registry initialised", "entities", entityRegistry.Count())

	// Initialise scene registry
	sceneRegistry := scene.NewRegistry(scene.NewSQLiteRepository(db.DB))
	sceneRegistry.SetLogger(log)
	if refreshErr := sceneRegistry.RefreshCache(ctx); refreshErr != nil {
		return fmt.Errorf("loading scene registry: %w", refreshErr)
	}
	log.Info("scene registry initialised", "scenes", sceneRegistry.Count())

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

	// Set up MQTT logging callbacks
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		// Set up InfluxDB error callback
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
	} else {
		log.Info("InfluxDB disabled")
	}

	// WebSocket hub is shared between the API server and the cycle
	// handler so cycle events reach connected UI clients.
	hub := api.NewHub(cfg.WebSocket, log)

	// Assemble the cycle handler
	sceneActivator := scene.NewActivator(mqttClient)
	sceneActivator.SetLogger(log)

	store := sequencer.NewEntityStore(entityRegistry, cfg.Sequencer.StoreEntityID)

	handlerOpts := sequencer.Options{
		Logger: log,
		Hub:    hub,
	}
	if influxClient != nil {
		handlerOpts.Metrics = influxClient
	}
	handler := sequencer.NewHandler(store, entityStateReader{entityRegistry}, sceneActivator, sceneRegistry, handlerOpts)
	log.Info("cycle handler initialised", "store_entity", store.EntityID())

	// Start the MQTT dispatcher (service topic + entity state stream)
	dispatcher := dispatch.NewDispatcher(
		mqttSubscriber{client: mqttClient},
		handler,
		entityRegistry,
		dispatch.Options{
			ServiceTopic: cfg.Sequencer.ServiceTopic,
			StatePrefix:  cfg.Sequencer.StateTopicPrefix,
			Logger:       log,
		},
	)
	if startErr := dispatcher.Start(ctx); startErr != nil {
		return fmt.Errorf("starting dispatcher: %w", startErr)
	}
	log.Info("dispatcher started",
		"service_topic", cfg.Sequencer.ServiceTopic,
		"state_prefix", cfg.Sequencer.StateTopicPrefix,
	)

	// Start the API server
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Security:    cfg.Security,
		Logger:      log,
		Entities:    entityRegistry,
		Scenes:      sceneRegistry,
		Activator:   sceneActivator,
		Handler:     handler,
		Store:       store,
		DB:          db,
		MQTT:        mqttClient,
		ExternalHub: hub,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := apiServer.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		log.Info("stopping API server")
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, apiServer); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls will run in reverse order:
	// 1. API server
	// 2. InfluxDB (if enabled)
	// 3. MQTT
	// 4. Database

	log.Info("Scene Sequencer stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses SEQUENCER_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("SEQUENCER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//   - apiServer: API server to check
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, apiServer *api.Server) error {
	// Check database
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	// Check MQTT
	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	// Check InfluxDB (if enabled)
	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	// Check API server
	if err := apiServer.HealthCheck(ctx); err != nil {
		return fmt.Errorf("api: %w", err)
	}

	return nil
}

// entityStateReader adapts the entity registry to the cycle handler's
// StateReader interface.
type entityStateReader struct {
	entities *entity.Registry
}

// GetState implements sequencer.StateReader.
func (r entityStateReader) GetState(ctx context.Context, entityID string) (sequencer.EntityState, bool) {
	e, err := r.entities.Get(ctx, entityID)
	if err != nil {
		return sequencer.EntityState{}, false
	}
	return sequencer.EntityState{Value: e.Value, Attributes: e.Attributes}, true
}

// mqttSubscriber adapts the infrastructure MQTT client to the dispatcher's
// Subscriber interface. The signatures match field for field, but the
// client's handler is a named type so the conversion has to be explicit.
type mqttSubscriber struct {
	client *mqtt.Client
}

// Subscribe implements dispatch.Subscriber.
func (s mqttSubscriber) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return s.client.Subscribe(topic, qos, mqtt.MessageHandler(handler))
}
