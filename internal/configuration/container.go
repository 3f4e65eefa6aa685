package configuration

import (
	"chatapp/internal/auth"
	"chatapp/internal/db"
	"chatapp/internal/handler"
	"chatapp/internal/hub"
	"chatapp/internal/model"
	"chatapp/internal/repo"
	"chatapp/internal/service"
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Container struct {
	MessageHandler handler.MessageHandler
	UserHandler    handler.UserHandler
	MonitorHandler handler.MonitorHandler
	Hub            *hub.Hub
	Tokens         *auth.JWTManager
	Tasks          *service.TaskRunner
	Config         Config
	Logger         *zap.Logger

	// Memory is set when no Mongo URI is configured.
	Memory *repo.MemoryStore

	// private - for cleanup
	mongoClient *mongo.Database
}

type stores struct {
	messages      repo.MessageRepository
	conversations repo.ConversationRepository
	users         repo.UserRepository
}

func BuildContainer() (*Container, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	config, err := LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := NewLogger(config.Log)
	if err != nil {
		return nil, err
	}

	return NewContainer(*config, logger)
}

// NewContainer wires every component from an already loaded config.
func NewContainer(config Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config: config,
		Logger: logger,
	}

	var s stores
	if config.UseMemoryStore() {
		logger.Warn("mongo uri not configured, using in-memory store")
		c.Memory = repo.NewMemoryStore()
		s = stores{messages: c.Memory, conversations: c.Memory, users: c.Memory}
	} else {
		con, err := db.OpenConnection(config.ChatDatabase.Uri, config.ChatDatabase.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to mongo: %w", err)
		}
		c.mongoClient = con

		repoLogger := logger.Named("repo")
		s = stores{
			messages: repo.NewMessageRepository(
				db.NewRepository[model.Message](con, config.ChatDatabase.MessagesCollection), repoLogger),
			conversations: repo.NewConversationRepository(
				db.NewRepository[model.Conversation](con, config.ChatDatabase.ConversationsCollection), repoLogger),
			users: repo.NewUserRepository(
				db.NewRepository[model.User](con, config.ChatDatabase.UsersCollection), repoLogger),
		}
	}

	c.Tokens = auth.NewJWTManager(auth.JWTConfig{
		SecretKey:     config.Auth.Secret,
		Issuer:        config.Auth.Issuer,
		TokenDuration: config.TokenDuration(),
	})

	c.Hub = hub.NewHub(hub.Config{
		SendBuffer:     config.Hub.SendBuffer,
		SendTimeout:    config.SendTimeout(),
		TypingThrottle: config.TypingThrottle(),
		ReapBuffer:     config.Hub.ReapBuffer,
		AllowedOrigins: config.Server.AllowedOrigins,
	}, s.conversations, c.Tokens, logger.Named("hub"))

	c.Tasks = service.NewTaskRunner(logger.Named("tasks"))
	userService := service.NewUserService(s.users, c.Hub.Presence(), logger.Named("users"))
	messageService := service.NewMessageService(
		s.messages, s.conversations, userService, c.Hub.Router(), c.Tasks, logger.Named("messages"))

	// session read frames go through the same status machine as REST
	c.Hub.SetReadMarker(messageService)

	c.MessageHandler = handler.NewMessageHandler(messageService, logger.Named("http"))
	c.UserHandler = handler.NewUserHandler(userService)
	c.MonitorHandler = handler.NewMonitorHandler(hub.NewMonitorService(c.Hub))

	return c, nil
}

// Close gracefully shuts down all connections
func (c *Container) Close() error {
	// Stop the hub first (closes all WebSocket connections)
	if c.Hub != nil {
		c.Hub.Stop()
	}

	// Let in-flight delivered notifications finish
	if c.Tasks != nil {
		c.Tasks.Wait()
	}

	// Close MongoDB connection pool
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.mongoClient.Client().Disconnect(ctx); err != nil {
			return fmt.Errorf("failed to close MongoDB connection: %w", err)
		}
	}

	// Sync logger
	if c.Logger != nil {
		_ = c.Logger.Sync()
	}

	return nil
}
