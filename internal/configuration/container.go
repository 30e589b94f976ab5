package configuration

import (
	"context"
	"fmt"
	"time"

	"Massenger/internal/db"
	"Massenger/internal/handler"
	"Massenger/internal/hub"
	"Massenger/internal/model"
	"Massenger/internal/repo"
	"Massenger/internal/service"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	MessageHandler handler.MessageHandler
	UserHandler    handler.UserHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Config         Config
	Logger         *zap.Logger

	// private - for cleanup
	mongoDatabase *mongo.Database
}

func BuildContainer(configName string) (*Container, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	config, err := LoadConfig(logger, configName)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	con, err := db.OpenConnection(config.Mongo.URI, config.Mongo.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	messageMongoRepo := db.NewRepository[model.Message](con, config.Mongo.MessagesCollection)
	conversationMongoRepo := db.NewRepository[model.Conversation](con, config.Mongo.ConversationsCollection)
	userMongoRepo := db.NewRepository[model.User](con, config.Mongo.UsersCollection)

	messageRepo := repo.NewMessageRepository(con, messageMongoRepo, logger)
	conversationRepo := repo.NewConversationRepository(con, conversationMongoRepo, logger)
	userRepo := repo.NewUserRepository(con, userMongoRepo)

	registry := hub.NewRegistry()
	wsHub := hub.NewHub(registry, hub.Options{
		TypingTTL:      config.Hub.TypingTTL,
		AllowedOrigins: config.Server.AllowedOrigins,
	}, logger)
	relay := hub.NewStatusRelay(registry, logger)

	messageService := service.NewMessageService(messageRepo, conversationRepo, userRepo, relay, logger)
	userService := service.NewUserService(userRepo)

	return &Container{
		MessageHandler: handler.NewMessageHandler(messageService),
		UserHandler:    handler.NewUserHandler(userService),
		MonitorHandler: handler.NewMonitorHandler(hub.NewMonitorService(wsHub)),
		Hub:            wsHub,
		Config:         *config,
		Logger:         logger,
		mongoDatabase:  con,
	}, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	// Close MongoDB connection pool
	if c.mongoDatabase != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoDatabase.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	return nil
}
