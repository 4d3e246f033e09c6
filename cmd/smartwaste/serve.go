package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wastemanagement141-bit/garbage-overflow/internal/api"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/audit"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/config"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/database"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/influxdb"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/logging"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/infrastructure/mqtt"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/ingest"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/registry"
	"github.com/wastemanagement141-bit/garbage-overflow/internal/telemetry"
	_ "github.com/wastemanagement141-bit/garbage-overflow/migrations"
)

func newServeCommand(ctx context.Context, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and MQTT ingestion",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			return run(ctx, opts.resolveConfigPath())
		},
	}
}

// run is the server lifecycle, separated from the command for testability.
// It blocks until ctx is cancelled.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//   - configPath: YAML configuration file
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context, configPath string) error {
	log := logging.Default()
	log.Info("starting SmartWaste Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

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

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	tel := telemetry.NewService(telemetry.NewSQLiteRepository(db.DB))
	tel.SetLogger(log)

	auditRepo := audit.NewSQLiteRepository(db.DB)
	reg := registry.NewService(registry.NewSQLiteRepository(db.DB), tel)
	reg.SetLogger(log)
	reg.SetAuditRecorder(auditRepo)

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		stack, mqttErr := startMQTT(ctx, cfg, tel, log)
		if mqttErr != nil {
			return mqttErr
		}
		defer stack.close(log)
		mqttClient = stack.client
	} else {
		log.Info("MQTT disabled")
	}

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
		tel.AddObserver(influxClient)
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	server, err := api.New(api.Deps{
		Config:    cfg.API,
		WS:        cfg.WebSocket,
		Logger:    log,
		Telemetry: tel,
		Registry:  reg,
		Audit:     auditRepo,
		Version:   version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if startErr := server.Start(ctx); startErr != nil {
		return fmt.Errorf("starting API server: %w", startErr)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	// Deferred closes run in reverse: API, InfluxDB, MQTT, database.
	log.Info("SmartWaste Core stopped")
	return nil
}

// mqttStack is the broker connection and the ingestion components
// running on it. bridge and publisher are nil when disabled.
type mqttStack struct {
	client    *mqtt.Client
	bridge    *ingest.Bridge
	publisher *ingest.StatusPublisher
}

// close stops the components before disconnecting from the broker.
func (m *mqttStack) close(log *logging.Logger) {
	if m.bridge != nil {
		log.Info("stopping MQTT ingestion")
		if err := m.bridge.Stop(); err != nil {
			log.Warn("error stopping MQTT ingestion", "error", err)
		}
	}
	if m.publisher != nil {
		log.Info("stopping MQTT status publisher")
		m.publisher.Stop()
	}
	log.Info("disconnecting from MQTT")
	if err := m.client.Close(); err != nil {
		log.Error("error closing MQTT", "error", err)
	}
}

// startMQTT connects to the broker and wires the ingestion bridge and the
// status publisher according to cfg.Ingest.
func startMQTT(ctx context.Context, cfg *config.Config, tel *telemetry.Service, log *logging.Logger) (*mqttStack, error) {
	client, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("connecting to MQTT: %w", err)
	}
	client.SetLogger(log)
	client.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	client.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	stack := &mqttStack{client: client}

	if cfg.Ingest.PublishStatus {
		stack.publisher = ingest.NewStatusPublisher(client, client.QoS())
		stack.publisher.SetLogger(log)
		stack.publisher.Start(ctx)
		tel.AddObserver(stack.publisher)
	}

	if cfg.Ingest.MQTT {
		bridge := ingest.NewBridge(client, tel, client.QoS())
		bridge.SetLogger(log)
		if err := bridge.Start(ctx); err != nil {
			stack.close(log)
			return nil, fmt.Errorf("starting MQTT ingestion: %w", err)
		}
		stack.bridge = bridge
		log.Info("MQTT ingestion started", "topic", mqtt.Topics{}.AllBinFill())
	}

	return stack, nil
}

// healthCheck verifies all infrastructure connections are healthy.
// mqttClient and influxClient are nil when disabled.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}
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
	return nil
}
