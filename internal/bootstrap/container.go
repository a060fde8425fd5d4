package bootstrap

import (
	"context"
	"errors"

	"ragchat-be/internal/config"
	"ragchat-be/internal/controller"
	"ragchat-be/internal/handler"
	"ragchat-be/internal/pkg/logger"
	"ragchat-be/internal/repository/memory"
	"ragchat-be/internal/repository/snapshot"
	"ragchat-be/internal/service"
	"ragchat-be/internal/websocket"
	"ragchat-be/pkg/events"
	"ragchat-be/pkg/rag/classifier"
	"ragchat-be/pkg/rag/history"
	"ragchat-be/pkg/rag/session"
	"ragchat-be/pkg/ragapi"

	pktNats "ragchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

const (
	containerModule         = "Container"
	documentIngestedDurable = "ragchat-document-ingested"
)

type Container struct {
	Logger logger.ILogger

	// Controllers
	ChatController     controller.IChatController
	DocumentController controller.IDocumentController

	// WebSockets & Notification
	NotificationHandler *handler.NotificationHandler
	WebSocketHub        *websocket.Hub

	Sessions *session.Manager

	cfg                 *config.Config
	ingestionBus        *gochannel.GoChannel
	notificationBus     *gochannel.GoChannel
	ingestionPublisher  service.IPublisherService
	consumerService     service.IConsumerService
	notificationService *service.NotificationService
	snapshotMirror      *service.SnapshotMirror

	rdb     *redis.Client
	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber

	stopHub context.CancelFunc
}

func NewContainer(cfg *config.Config, sysLogger logger.ILogger, ragClient ragapi.Client) *Container {
	// 1. Event Buses
	// Ingestion publishes block until the consumer has attached the document,
	// so an upload response always reflects the session's new state.
	watermillLogger := watermill.NewStdLogger(false, false)
	ingestionBus := gochannel.NewGoChannel(
		gochannel.Config{BlockPublishUntilSubscriberAck: true},
		watermillLogger,
	)
	notificationBus := gochannel.NewGoChannel(
		gochannel.Config{OutputChannelBuffer: 64},
		watermillLogger,
	)
	ingestionPublisher := service.NewPublisherService(service.DocumentIngestedTopic, ingestionBus)

	// 2. Session Store
	sessions := session.NewManager(memory.NewSessionRepository(), session.Options{
		Deleter:       ragClient,
		Publisher:     service.NewEventBusPublisher(service.NewPublisherService(service.SessionChangesTopic, notificationBus)),
		Logger:        sysLogger,
		DeleteTimeout: cfg.RAG.RequestTimeout,
	})

	// 3. Notification Sinks
	wsHub := websocket.NewHub(sysLogger)
	notificationService := service.NewNotificationService(notificationBus, service.SessionChangesTopic, sysLogger, wsHub)

	c := &Container{
		Logger:              sysLogger,
		WebSocketHub:        wsHub,
		Sessions:            sessions,
		cfg:                 cfg,
		ingestionBus:        ingestionBus,
		notificationBus:     notificationBus,
		ingestionPublisher:  ingestionPublisher,
		notificationService: notificationService,
	}

	if cfg.Events.NatsEnabled {
		c.connectNats()
	}
	if cfg.Events.MirrorEnabled {
		c.connectRedis()
	}

	// 4. Services
	conversationService := service.NewConversationService(
		sessions,
		classifier.New(nil),
		history.NewWindow(cfg.Chat.HistoryWindow),
		ragClient,
		sysLogger,
		service.ConversationOptions{RollbackHistoryOnFailure: cfg.Chat.RollbackHistoryOnFailure},
	)
	documentService := service.NewDocumentService(sessions, ragClient, ingestionPublisher, conversationService, sysLogger)
	sessionService := service.NewSessionService(sessions, conversationService, sysLogger)
	c.consumerService = service.NewConsumerService(ingestionBus, service.DocumentIngestedTopic, sessions, ragClient, sysLogger)

	// 5. Controllers
	c.ChatController = controller.NewChatController(sessionService, conversationService)
	c.DocumentController = controller.NewDocumentController(documentService, int64(cfg.RAG.MaxUploadBytes))
	c.NotificationHandler = handler.NewNotificationHandler(wsHub, sysLogger)

	return c
}

func (c *Container) connectNats() {
	natsPub, err := pktNats.NewPublisher(c.cfg.App.NatsURL, c.Logger)
	if err != nil {
		c.Logger.Warn(containerModule, "Failed to connect NATS publisher", map[string]interface{}{"error": err.Error()})
	} else {
		c.natsPub = natsPub
		c.notificationService.AddSink(natsPub)
	}

	natsSub, err := pktNats.NewSubscriber(c.cfg.App.NatsURL, c.Logger)
	if err != nil {
		c.Logger.Warn(containerModule, "Failed to connect NATS subscriber", map[string]interface{}{"error": err.Error()})
		return
	}
	c.natsSub = natsSub
}

func (c *Container) connectRedis() {
	opt, err := redis.ParseURL(c.cfg.App.RedisURL)
	if err != nil {
		c.Logger.Warn(containerModule, "Failed to parse Redis URL, using direct Addr", map[string]interface{}{"error": err.Error()})
		opt = &redis.Options{Addr: c.cfg.App.RedisURL}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		c.Logger.Warn(containerModule, "Failed to connect to Redis, snapshot mirror disabled", map[string]interface{}{"error": err.Error()})
		_ = rdb.Close()
		return
	}

	c.rdb = rdb
	repo := snapshot.NewRedisSnapshotRepository(rdb, snapshot.DefaultKey, c.cfg.Chat.SnapshotTTL)
	c.snapshotMirror = service.NewSnapshotMirror(repo, c.Sessions, c.Logger)
	c.notificationService.AddSink(c.snapshotMirror)
}

// Start subscribes every consumer and initializes the session store. It must
// return before the server accepts requests.
func (c *Container) Start(ctx context.Context) error {
	if err := c.consumerService.Consume(ctx); err != nil {
		return err
	}
	if err := c.notificationService.Consume(ctx); err != nil {
		return err
	}

	hubCtx, stop := context.WithCancel(ctx)
	c.stopHub = stop
	go c.WebSocketHub.Run(hubCtx)

	if c.snapshotMirror != nil {
		c.snapshotMirror.Restore(ctx, c.Sessions, c.cfg.Chat.RestoreSessions)
	} else {
		c.Sessions.Init(nil, false)
	}

	if c.natsSub != nil {
		err := c.natsSub.Subscribe(ctx, events.DocumentIngested, documentIngestedDurable, service.ForwardPayload(c.ingestionPublisher))
		if err != nil {
			c.Logger.Warn(containerModule, "Failed to subscribe to external ingestion events", map[string]interface{}{"error": err.Error()})
		}
	}
	return nil
}

// Close waits for pending chunk deletions and releases every connection.
func (c *Container) Close() error {
	if c.stopHub != nil {
		c.stopHub()
	}
	c.Sessions.Drain()

	if c.natsSub != nil {
		c.natsSub.Close()
	}

	var errs []error
	if err := c.ingestionBus.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := c.notificationBus.Close(); err != nil {
		errs = append(errs, err)
	}

	if c.natsPub != nil {
		c.natsPub.Close()
	}
	if c.rdb != nil {
		if err := c.rdb.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
