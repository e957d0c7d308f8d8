// handsense - dexterous hand control and tactile perception service
//
// This is the main entry point for the handsense application. It owns the
// Modbus TCP link to the hand controller, runs the tactile acquisition and
// perception pipeline, ingests external tracking frames, and exposes the
// whole surface over HTTP, WebSocket and MQTT.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync/atomic"
	"syscall"
	"time"

	_ "github.com/handsense/handsense-core/migrations"

	"github.com/handsense/handsense-core/internal/api"
	"github.com/handsense/handsense-core/internal/dispatch"
	"github.com/handsense/handsense-core/internal/hand"
	"github.com/handsense/handsense-core/internal/infrastructure/config"
	"github.com/handsense/handsense-core/internal/infrastructure/database"
	"github.com/handsense/handsense-core/internal/infrastructure/influxdb"
	"github.com/handsense/handsense-core/internal/infrastructure/logging"
	"github.com/handsense/handsense-core/internal/infrastructure/mqtt"
	"github.com/handsense/handsense-core/internal/modbus"
	"github.com/handsense/handsense-core/internal/perception"
	"github.com/handsense/handsense-core/internal/pose"
	"github.com/handsense/handsense-core/internal/shape"
	"github.com/handsense/handsense-core/internal/tracking"
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
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting handsense",
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

	poseRepo := pose.NewSQLiteRepository(db.DB)

	// Connect to MQTT broker (optional)
	var mqttClient *mqtt.Client
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
		mqttClient.SetLogger(log)
		mqttClient.SetOnConnect(func() { log.Info("MQTT reconnected") })
		mqttClient.SetOnDisconnect(func(err error) { log.Warn("MQTT disconnected", "error", err) })
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
	} else {
		log.Info("MQTT disabled")
	}

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

	// Command dispatcher: long-lived, rebound to each device connection.
	dispatcher := dispatch.New(cfg.Dispatcher.GetDrainInterval())
	dispatcher.SetLogger(log.With("component", "dispatcher"))
	go func() {
		//nolint:errcheck // Run only returns the context error
		dispatcher.Run(ctx)
	}()

	// Perception fan-out: WebSocket, MQTT and InfluxDB all hang off the
	// engine's result sink. The API server is wired in below, after it
	// exists.
	fan := &fanout{
		mqtt:   mqttClient,
		influx: influxClient,
		qos:    byte(cfg.MQTT.QoS), //#nosec G115 -- QoS validated to 0..2
		logger: log,
	}
	engine := perception.NewEngine(
		perception.WithThreshold(int(cfg.Polling.PressureThreshold)),
		perception.WithLogger(log.With("component", "perception")),
		perception.WithResultSink(fan.publish),
	)

	// External tracking ingest (optional)
	var tracker *tracking.Listener
	if cfg.Tracking.Enabled {
		addr := net.JoinHostPort(cfg.Tracking.Host, strconv.Itoa(cfg.Tracking.Port))
		tracker = tracking.NewListener(addr, dispatcher)
		tracker.SetLogger(log.With("component", "tracking"))
		go func() {
			if runErr := tracker.Run(ctx); runErr != nil {
				log.Error("tracking listener stopped", "error", runErr)
			}
		}()
		log.Info("tracking listener started", "addr", addr)
	} else {
		log.Info("tracking disabled")
	}

	// Device supervisor: dials the hand controller and keeps redialling
	// until shutdown.
	sup := &supervisor{
		cfg:        cfg,
		dispatcher: dispatcher,
		engine:     engine,
		logger:     log.With("component", "supervisor"),
	}
	go sup.run(ctx)

	// HTTP / WebSocket API
	server, err := api.New(api.Deps{
		Config:          cfg.API,
		WS:              cfg.WebSocket,
		Logger:          log,
		Poller:          nil, // set per connection via supervisor
		Engine:          engine,
		Dispatcher:      dispatcher,
		Tracker:         tracker,
		Poses:           poseRepo,
		DeviceConnected: sup.isConnected,
		Version:         version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	sup.onPoller = server.SetPoller
	fan.api = server

	if err := server.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := server.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()

	// Remote command ingest over MQTT
	if mqttClient != nil {
		if subErr := subscribeCommands(mqttClient, dispatcher, byte(cfg.MQTT.QoS), log); subErr != nil { //#nosec G115 -- QoS validated to 0..2
			return fmt.Errorf("subscribing to command topics: %w", subErr)
		}
	}

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses HANDSENSE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("HANDSENSE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// subscribeCommands wires the MQTT command topics into the dispatcher.
// Payloads are JSON arrays of six joint values.
func subscribeCommands(client *mqtt.Client, dispatcher *dispatch.Dispatcher, qos byte, log *logging.Logger) error {
	topics := mqtt.Topics{}

	decode := func(payload []byte) (hand.JointVector, error) {
		var v hand.JointVector
		if err := json.Unmarshal(payload, &v); err != nil {
			return v, fmt.Errorf("decoding joint vector: %w", err)
		}
		return v, nil
	}

	if err := client.Subscribe(topics.JointCommand(), qos, func(_ string, payload []byte) error {
		v, err := decode(payload)
		if err != nil {
			return err
		}
		dispatcher.Enqueue(v)
		return nil
	}); err != nil {
		return err
	}

	if err := client.Subscribe(topics.SpeedCommand(), qos, func(_ string, payload []byte) error {
		v, err := decode(payload)
		if err != nil {
			return err
		}
		return dispatcher.SetSpeed(context.Background(), v)
	}); err != nil {
		return err
	}

	if err := client.Subscribe(topics.ForceCommand(), qos, func(_ string, payload []byte) error {
		v, err := decode(payload)
		if err != nil {
			return err
		}
		return dispatcher.SetForce(context.Background(), v)
	}); err != nil {
		return err
	}

	log.Info("MQTT command topics subscribed")
	return nil
}

// supervisor owns the Modbus connection lifecycle: dial, bind the
// dispatcher and poller, run until failure, tear down, redial.
type supervisor struct {
	cfg        *config.Config
	dispatcher *dispatch.Dispatcher
	engine     *perception.Engine
	logger     *logging.Logger
	onPoller   func(*hand.Poller)

	connected atomic.Bool
}

func (s *supervisor) isConnected() bool {
	return s.connected.Load()
}

// run keeps the device connection alive until the context is cancelled.
func (s *supervisor) run(ctx context.Context) {
	redial := s.cfg.Device.GetRedialInterval()
	addr := net.JoinHostPort(s.cfg.Device.Host, strconv.Itoa(s.cfg.Device.Port))

	for {
		if ctx.Err() != nil {
			return
		}

		client, err := modbus.Connect(ctx, modbus.Config{
			Address:        addr,
			UnitID:         byte(s.cfg.Device.UnitID), //#nosec G115 -- unit id validated to 0..255
			ConnectTimeout: s.cfg.Device.GetConnectTimeout(),
			ReadTimeout:    s.cfg.Device.GetReadTimeout(),
			WriteTimeout:   s.cfg.Device.GetWriteTimeout(),
		})
		if err != nil {
			s.logger.Warn("device dial failed, retrying", "addr", addr, "error", err)
			if !sleepCtx(ctx, redial) {
				return
			}
			continue
		}

		s.logger.Info("device connected", "addr", addr)
		client.SetLogger(s.logger)
		s.dispatcher.SetConn(client)
		s.connected.Store(true)

		poller := hand.NewPoller(client, hand.PollerConfig{
			Interval: s.cfg.Polling.GetInterval(),
			Backoff:  s.cfg.Polling.GetBackoff(),
		})
		poller.SetLogger(s.logger.With("component", "poller"))
		poller.OnSnapshot(func(snap *hand.Snapshot) {
			s.engine.Process(snap)
		})
		if s.onPoller != nil {
			s.onPoller(poller)
		}

		// Blocks until the connection dies or the context is cancelled.
		if runErr := poller.Run(ctx); runErr != nil {
			s.logger.Warn("acquisition stopped", "error", runErr)
		}

		s.connected.Store(false)
		s.dispatcher.SetConn(nil)
		if s.onPoller != nil {
			s.onPoller(nil)
		}
		if closeErr := client.Close(); closeErr != nil {
			s.logger.Debug("error closing device connection", "error", closeErr)
		}

		if ctx.Err() != nil {
			return
		}
		if !sleepCtx(ctx, redial) {
			return
		}
	}
}

// sleepCtx waits for d or until the context is done. Returns false when
// the context ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// fanout pushes each perception result to its external consumers.
type fanout struct {
	api    *api.Server
	mqtt   *mqtt.Client
	influx *influxdb.Client
	qos    byte
	logger *logging.Logger
}

// publish runs on the acquisition goroutine; every branch is either
// buffered (InfluxDB), non-blocking (WebSocket) or a fast broker write.
func (f *fanout) publish(res *perception.Result) {
	if f.api != nil {
		f.api.PublishResult(res)
	}
	if f.mqtt != nil && f.mqtt.IsConnected() {
		f.publishMQTT(res)
	}
	if f.influx != nil {
		f.writeInflux(res)
	}
}

func (f *fanout) publishMQTT(res *perception.Result) {
	topics := mqtt.Topics{}

	publish := func(topic string, v any) {
		payload, err := json.Marshal(v)
		if err != nil {
			return
		}
		if err := f.mqtt.Publish(topic, payload, f.qos, false); err != nil {
			f.logger.Debug("state publish failed", "topic", topic, "error", err)
		}
	}

	publish(topics.JointState(), res.Actual)
	publish(topics.ShapeState(), map[string]any{
		"kind":       res.Estimate.Kind.String(),
		"confidence": res.Estimate.Confidence,
		"in_contact": res.InContact,
	})
	if len(res.Contacts) > 0 {
		publish(topics.ContactState(), res.Contacts)
	}
	for region, a := range res.Analyses {
		if !a.Contact {
			continue
		}
		publish(topics.TactileState(region), map[string]any{
			"active_cells":   a.ActiveCells,
			"total_pressure": a.TotalPressure,
			"curvature":      a.Curvature,
		})
	}
}

func (f *fanout) writeInflux(res *perception.Result) {
	for i := 0; i < hand.JointCount; i++ {
		f.influx.WriteJointAngle(hand.JointName(i), res.Actual[i])
	}
	for region, a := range res.Analyses {
		if !a.Contact {
			continue
		}
		f.influx.WriteRegionPressure(region, uint64(a.TotalPressure*1000), a.ActiveCells)
	}
	if res.Estimate.Kind != shape.Unknown {
		f.influx.WriteShapeEstimate(res.Estimate.Kind.String(), res.Estimate.Confidence, len(res.Contacts))
	}
}
