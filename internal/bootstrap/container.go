package bootstrap

import (
	"context"
	"log"

	"donkey-remote-be/internal/config"
	"donkey-remote-be/internal/controller"
	"donkey-remote-be/internal/handler"
	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/internal/repository/memory"
	"donkey-remote-be/internal/service"
	"donkey-remote-be/internal/websocket"
	pktNats "donkey-remote-be/pkg/nats"
	"donkey-remote-be/pkg/pilot"
	"donkey-remote-be/pkg/recorder"
	"donkey-remote-be/pkg/tags"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	VehicleController controller.IVehicleController
	TagController     controller.ITagController

	// Background Services (Exposed for main.go to run)
	TelemetryService service.ITelemetryService

	// WebSockets
	TelemetryHandler *handler.TelemetryHandler
	WebSocketHub     *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	vehicles := memory.NewVehicleRepository(cfg.Drive.VehicleIdleTTL, sysLogger)

	catalog, err := pilot.LoadCatalog(cfg.Storage.PilotsFile)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load pilot catalog: %v", err)
	}
	log.Printf("[INFO] Loaded %d pilot(s) from %s", len(catalog.Names()), cfg.Storage.PilotsFile)

	fileRecorder := recorder.NewFileRecorder(cfg.Storage.SessionsPath)
	tagStore := tags.NewStore(cfg.Storage.TagsFile)

	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 256},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// 3. Infrastructure
	// NATS (optional)
	var forwarder service.EventForwarder
	if cfg.App.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// Redis (optional)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.App.RedisURL,
			}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		c.closers = append(c.closers, func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.TelemetryLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run(ctx)

	// 4. Services
	publisherService := service.NewPublisherService(pubSub, service.VehicleEventsTopic, sysLogger)
	telemetryService := service.NewTelemetryService(pubSub, service.VehicleEventsTopic, wsHub, forwarder, wsLogger)

	controlService := service.NewControlService(vehicles, publisherService, sysLogger, service.ControlOptions{
		PilotTimeout: cfg.Drive.PilotTimeout,
		JPEGQuality:  cfg.Drive.JPEGQuality,
	})
	teleopService := service.NewTeleopService(vehicles, fileRecorder, publisherService, sysLogger)
	videoService := service.NewVideoService(vehicles, cfg.Drive.VideoPollInterval, sysLogger)
	vehicleService := service.NewVehicleService(vehicles, catalog, publisherService, sysLogger)
	tagService := service.NewTagService(tagStore, sysLogger)

	// 5. Controllers
	c.VehicleController = controller.NewVehicleController(ctx, controlService, teleopService, videoService, vehicleService)
	c.TagController = controller.NewTagController(tagService)
	c.TelemetryService = telemetryService
	c.TelemetryHandler = handler.NewTelemetryHandler(wsHub, wsLogger)
	c.WebSocketHub = wsHub
	c.closers = append(c.closers, func() {
		_ = wsLogger.Sync()
		_ = sysLogger.Sync()
	})

	return c
}

// Close releases infrastructure in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
