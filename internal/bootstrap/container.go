package bootstrap

import (
	"context"
	"fmt"

	"chat-relay-be/internal/config"
	"chat-relay-be/internal/controller"
	"chat-relay-be/internal/pkg/logger"
	"chat-relay-be/internal/repository/unitofwork"
	"chat-relay-be/internal/service"
	"chat-relay-be/internal/websocket"
	"chat-relay-be/pkg/database"
	"chat-relay-be/pkg/llm/factory"
	"chat-relay-be/pkg/lock"

	pktNats "chat-relay-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	bootstrapModule = "Bootstrap"
	redisLockPrefix = "lock:"
)

type Container struct {
	// Controllers
	ChatController controller.IChatController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	TurnFeed        *websocket.Hub

	Logger      logger.ILogger
	HealthCheck func() error

	closers []func()
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	providerLogger := logger.NewIsolatedLogger(cfg.App.ProviderLogFilePath)

	c := &Container{
		Logger:      sysLogger,
		HealthCheck: func() error { return database.Ping(db) },
	}

	if cfg.Provider.APIKey == "" {
		sysLogger.Warn(bootstrapModule, "Provider API key is empty", nil)
	}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { _ = pubSub.Close() })

	// NATS relay is optional
	var natsRelay service.EventRelay
	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Events.NatsURL, sysLogger)
		if err != nil {
			sysLogger.Warn(bootstrapModule, "Failed to connect to NATS, events stay in process", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			natsRelay = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	// 3. Infrastructure
	llmProvider, err := factory.NewLLMProvider(cfg.Provider, providerLogger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	sysLogger.Info(bootstrapModule, "Using LLM provider", map[string]interface{}{
		"provider": cfg.Provider.Name,
		"model":    cfg.Provider.Model,
	})

	rdb, err := newRedisClient(cfg.Lock, sysLogger, c)
	if err != nil {
		c.Close()
		return nil, err
	}
	locker := newLocker(cfg.Lock, rdb, sysLogger)

	// Live turn feed shares the lock's redis for cross-instance delivery
	c.TurnFeed = websocket.NewHub(rdb, sysLogger)

	// 4. Services
	publisherService := service.NewPublisherService(cfg.Events.Topic, pubSub)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		cfg.Events.Topic,
		uowFactory,
		service.ChainRelays(natsRelay, c.TurnFeed),
		sysLogger,
	)

	chatService := service.NewChatService(
		uowFactory,
		llmProvider,
		locker,
		publisherService,
		sysLogger,
		cfg.Chat,
	)

	// 5. Controllers
	c.ChatController = controller.NewChatController(chatService, c.TurnFeed)

	c.closers = append(c.closers, func() {
		_ = providerLogger.Sync()
		_ = sysLogger.Sync()
	})
	return c, nil
}

// newRedisClient connects when the redis lock backend is selected, nil otherwise.
func newRedisClient(cfg config.LockConfig, log logger.ILogger, c *Container) (*redis.Client, error) {
	if cfg.Backend != "redis" {
		return nil, nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Warn(bootstrapModule, "Failed to parse Redis URL, using it as address", map[string]interface{}{
			"error": err.Error(),
		})
		opt = &redis.Options{
			Addr: cfg.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	c.closers = append(c.closers, func() { _ = rdb.Close() })

	log.Info(bootstrapModule, "Connected to Redis", map[string]interface{}{"addr": opt.Addr})
	return rdb, nil
}

func newLocker(cfg config.LockConfig, rdb *redis.Client, log logger.ILogger) lock.Locker {
	if rdb == nil {
		return lock.NewMemoryLocker(cfg.IdleTTL)
	}

	log.Info(bootstrapModule, "Using redis session lock", map[string]interface{}{"ttl": cfg.TTL.String()})
	return lock.NewRedisLocker(rdb, redisLockPrefix, cfg.TTL)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
