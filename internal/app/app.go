package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	cfgman "NotifyHub/internal/config"
	"NotifyHub/internal/delivery/handlers"
	"NotifyHub/internal/delivery/middleware"
	"NotifyHub/internal/migrator"
	"NotifyHub/internal/repository/pg"
	"NotifyHub/internal/repository/rabbit"
	"NotifyHub/internal/service"
	"NotifyHub/internal/worker"
	"NotifyHub/pkg/rabbitmq"
	"NotifyHub/pkg/retry"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/ginext"
	"github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"
)

// Application основная структура приложения.
type Application struct {
	config     *cfgman.Config
	server     *ginext.Engine
	db         *dbpg.DB
	redis      *redis.Client
	pubsub     *goredis.Client
	rabbit     *rabbitmq.RabbitClient
	jobs       *rabbit.JobPublisher
	consumer   *worker.Consumer
	dispatcher *service.Dispatcher
	users      *service.UserDirectory
	inbox      *service.Inbox
	closers    []func() error
}

// New создает новое приложение.
func New() (*Application, error) {
	cfg, err := cfgman.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := initLogger(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("failed to init logger: %w", err)
	}

	return &Application{config: cfg}, nil
}

// Run запускает приложение в зависимости от команды.
func (a *Application) Run() error {
	if len(os.Args) < 2 {
		a.printUsage()
		return fmt.Errorf("no command specified")
	}

	command := os.Args[1]

	switch command {
	case "runserver":
		return a.runServer()
	case "worker":
		return a.runWorker()
	case "migrate":
		return a.runMigrate()
	case "health":
		return a.runHealthCheck()
	default:
		a.printUsage()
		return fmt.Errorf("unknown command: %s", command)
	}
}

// printUsage печатает инструкции по использованию.
func (a *Application) printUsage() {
	fmt.Println("NotifyHub - рассылка уведомлений по нескольким каналам")
	fmt.Println()
	fmt.Println("Доступные команды:")
	fmt.Println("  runserver       - запуск HTTP сервера и воркеров очереди")
	fmt.Println("  worker          - запуск только воркеров очереди")
	fmt.Println("  migrate up      - накат миграций")
	fmt.Println("  migrate down    - откат последней миграции")
	fmt.Println("  migrate version - текущая версия схемы")
	fmt.Println("  health          - проверка состояния сервисов")
}

// runHealthCheck проверяет состояние всех подключений.
func (a *Application) runHealthCheck() error {
	fmt.Println("Running health check...")

	if err := a.checkDatabase(); err != nil {
		return fmt.Errorf("database check failed: %w", err)
	}
	fmt.Println("Database connection: OK")

	if err := a.checkRedis(); err != nil {
		return fmt.Errorf("redis check failed: %w", err)
	}
	fmt.Println("Redis connection: OK")

	if err := a.checkRabbitMQ(); err != nil {
		return fmt.Errorf("rabbitmq check failed: %w", err)
	}
	fmt.Println("RabbitMQ connection: OK")

	fmt.Println("All health checks passed")
	return nil
}

func (a *Application) checkDatabase() error {
	db, err := initDatabase(a.config.Database)
	if err != nil {
		return err
	}
	return db.Master.Close()
}

func (a *Application) checkRedis() error {
	client := redis.New(a.config.Redis.Addr, a.config.Redis.Password, a.config.Redis.DB)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return client.Ping(ctx).Err()
}

func (a *Application) checkRabbitMQ() error {
	cfg := a.config.RabbitMQ
	client, err := rabbitmq.NewClient(rabbitmq.ClientConfig{
		URL:            cfg.URL,
		ConnectionName: cfg.ConnectionName + "-health",
		ConnectTimeout: 5 * time.Second,
		Heartbeat:      5 * time.Second,
		PublishRetry:   retryStrategy(cfg.PublishRetry),
	})
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	return client.Ping()
}

// initLogger инициализирует логгер.
func initLogger(level string) error {
	zlog.Init()

	zerologLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return err
	}
	return zlog.SetLevel(zerologLevel.String())
}

// runServer запускает HTTP сервер вместе с воркерами очереди.
func (a *Application) runServer() error {
	zlog.Logger.Info().Msg("Starting NotifyHub server...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := a.initConnections(); err != nil {
		return fmt.Errorf("failed to init connections: %w", err)
	}
	defer a.cleanup()
	if err := a.setupHTTPServer(); err != nil {
		return fmt.Errorf("failed to setup HTTP server: %w", err)
	}
	workerErr := a.startWorkers(ctx)

	zlog.Logger.Info().Str("address", a.config.HTTP.GetConnectionString()).Msg("HTTP server starting")
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Run(a.config.HTTP.GetConnectionString())
	}()
	select {
	case err := <-serverErr:
		return fmt.Errorf("HTTP server error: %w", err)
	case err := <-workerErr:
		return fmt.Errorf("worker error: %w", err)
	case <-ctx.Done():
		zlog.Logger.Info().Msg("Received shutdown signal")
		return nil
	}
}

// runWorker запускает только обработку очереди.
func (a *Application) runWorker() error {
	zlog.Logger.Info().Msg("Starting NotifyHub worker...")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	if err := a.initConnections(); err != nil {
		return fmt.Errorf("failed to init connections: %w", err)
	}
	defer a.cleanup()

	select {
	case err := <-a.startWorkers(ctx):
		return err
	case <-ctx.Done():
		zlog.Logger.Info().Msg("Received shutdown signal")
		return nil
	}
}

// runMigrate запускает приложение в режиме миграций.
func (a *Application) runMigrate() error {
	if len(os.Args) < 3 {
		return fmt.Errorf("migrate command requires direction (up/down/version)")
	}

	db, err := initDatabase(a.config.Database)
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}
	defer func(Master *sql.DB) {
		_ = Master.Close()
	}(db.Master)

	m, err := migrator.NewMigrator(db.Master, a.config.Migrations.Path)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() { _ = m.Close() }()

	switch direction := os.Args[2]; direction {
	case "up":
		zlog.Logger.Info().Msg("Running migrations up...")
		if err := m.Up(); err != nil {
			return fmt.Errorf("migration up failed: %w", err)
		}
		zlog.Logger.Info().Msg("Migrations applied successfully")
	case "down":
		zlog.Logger.Info().Msg("Running migrations down...")
		if err := m.Down(); err != nil {
			return fmt.Errorf("migration down failed: %w", err)
		}
		zlog.Logger.Info().Msg("Migration rolled back successfully")
	case "version":
		ver, err := m.Version()
		if err != nil {
			return err
		}
		fmt.Printf("schema version: %d\n", ver)
	default:
		return fmt.Errorf("unknown migrate direction: %s (use up/down/version)", direction)
	}
	return nil
}

// initConnections инициализирует все подключения и сервисы.
func (a *Application) initConnections() error {
	var err error

	a.db, err = initDatabase(a.config.Database)
	if err != nil {
		return fmt.Errorf("failed to init database: %w", err)
	}

	a.redis, err = initRedis(a.config.Redis)
	if err != nil {
		return fmt.Errorf("failed to init redis: %w", err)
	}
	a.pubsub = goredis.NewClient(&goredis.Options{
		Addr:     a.config.Redis.Addr,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})

	a.rabbit, err = initRabbitMQ(a.config.RabbitMQ)
	if err != nil {
		return fmt.Errorf("failed to init rabbitmq: %w", err)
	}

	if err := a.initServices(); err != nil {
		return fmt.Errorf("failed to init services: %w", err)
	}

	return nil
}

// initDatabase инициализирует подключение к базе данных.
func initDatabase(cfg cfgman.DatabaseConfig) (*dbpg.DB, error) {
	opts := &dbpg.Options{
		MaxOpenConns: cfg.MaxOpenConns,
		MaxIdleConns: cfg.MaxIdleConns,
	}

	db, err := dbpg.New(cfg.DSN, nil, opts)
	if err != nil {
		return nil, err
	}

	if err := db.Master.Ping(); err != nil {
		return nil, err
	}

	zlog.Logger.Info().Msg("Database connection established")
	return db, nil
}

// initRedis инициализирует подключение к Redis.
func initRedis(cfg cfgman.RedisConfig) (*redis.Client, error) {
	client := redis.New(cfg.Addr, cfg.Password, cfg.DB)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	zlog.Logger.Info().Msg("Redis connection established")
	return client, nil
}

// initRabbitMQ подключается к RabbitMQ и объявляет очереди задач.
func initRabbitMQ(cfg cfgman.RabbitMQConfig) (*rabbitmq.RabbitClient, error) {
	client, err := rabbitmq.NewClient(rabbitmq.ClientConfig{
		URL:            cfg.URL,
		ConnectionName: cfg.ConnectionName,
		ConnectTimeout: cfg.ConnectTimeout,
		Heartbeat:      cfg.Heartbeat,
		PublishRetry:   retryStrategy(cfg.PublishRetry),
	})
	if err != nil {
		return nil, err
	}
	if err := topology(cfg).Declare(client); err != nil {
		zlog.Logger.Error().Err(err).Msg("Failed to declare queue")
		_ = client.Close()
		return nil, err
	}
	zlog.Logger.Info().Msg("RabbitMQ connection established")
	return client, nil
}

func topology(cfg cfgman.RabbitMQConfig) rabbit.Topology {
	return rabbit.Topology{Exchange: cfg.ExchangeName, Queue: cfg.QueueName, DLQ: cfg.DLQName}
}

func retryStrategy(cfg cfgman.RabbitMqRetryConfig) retry.Strategy {
	return retry.Strategy{
		Attempts: cfg.Attempts,
		Delay:    cfg.Delay,
		Backoff:  float64(cfg.Backoff),
	}
}

// initServices собирает реестр каналов, диспетчер и сервисы чтения.
func (a *Application) initServices() error {
	store := pg.NewNotificationStore(a.db)

	a.jobs = rabbit.NewJobPublisher(
		rabbitmq.NewPublisher(a.rabbit, a.config.RabbitMQ.ExchangeName, "application/json"),
		topology(a.config.RabbitMQ),
		a.config.RabbitMQ.MessageTTL,
	)

	registry, err := a.buildRegistry(store, a.jobs)
	if err != nil {
		return err
	}
	a.dispatcher = service.NewDispatcher(registry)
	a.users = service.NewUserDirectory(pg.NewUserRepo(a.db), a.redis, a.config.Redis.UserTTL)
	a.inbox = service.NewInbox(store)
	a.consumer = worker.NewConsumer(registry, a.rabbit, a.redis,
		retryStrategy(a.config.RabbitMQ.ConsumerRetry), a.config.Redis.JobTTL)

	zlog.Logger.Info().Strs("channels", registry.Names()).Msg("Channels registered")
	return nil
}

// setupHTTPServer настраивает HTTP сервер.
func (a *Application) setupHTTPServer() error {
	a.server = ginext.New(gin.ReleaseMode)
	a.server.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowCredentials: true,
	}))

	a.server.Use(middleware.RequestIDMiddleware())
	a.server.Use(middleware.LoggingMiddleware())
	a.server.Use(middleware.MetricsMiddleware())

	h := handlers.NewHandlersSet(a.dispatcher, a.users, a.inbox)
	a.server.GET("/metrics", gin.WrapH(promhttp.Handler()))
	a.server.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	a.server.POST("/notify", h.NotifyHandler)

	users := a.server.RouterGroup.Group("users")
	users.POST("/:id/notify", h.NotifyUserHandler)
	users.POST("/:id/welcome", h.WelcomeHandler)
	users.GET("/:id/notifications", h.ListNotificationsHandler)
	users.POST("/:id/notifications/:nid/read", h.MarkAsReadHandler)
	users.POST("/:id/notifications/:nid/unread", h.MarkAsUnreadHandler)

	return nil
}

// startWorkers запускает обработку очереди задач. Канал получает ошибку, если потребитель остановился сам.
func (a *Application) startWorkers(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		err := a.consumer.Start(ctx, topology(a.config.RabbitMQ),
			a.config.RabbitMQ.Workers, a.config.RabbitMQ.PrefetchCount)
		if err != nil && !errors.Is(err, context.Canceled) {
			zlog.Logger.Error().Err(err).Msg("Consumer stopped")
			errCh <- err
		}
	}()

	zlog.Logger.Info().Int("workers", a.config.RabbitMQ.Workers).Msg("Workers started successfully")
	return errCh
}

// cleanup освобождает ресурсы.
func (a *Application) cleanup() {
	zlog.Logger.Info().Msg("Cleaning up resources...")

	for _, closeFn := range a.closers {
		_ = closeFn()
	}
	if a.rabbit != nil {
		_ = a.rabbit.Close()
	}
	if a.pubsub != nil {
		_ = a.pubsub.Close()
	}
	if a.db != nil {
		_ = a.db.Master.Close()
	}

	zlog.Logger.Info().Msg("Cleanup completed")
}
