package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dentalhub/config"
	_ "dentalhub/docs"
	"dentalhub/internal/ai"
	"dentalhub/internal/cache"
	"dentalhub/internal/domain"
	"dentalhub/internal/notify"
	"dentalhub/internal/repository"
	"dentalhub/internal/service"
	"dentalhub/internal/storage"
	"dentalhub/internal/transport/rest"
	"dentalhub/internal/transport/websocket"
	"dentalhub/internal/worker"
	"dentalhub/migrations"
	"dentalhub/pkg/auth"
	"dentalhub/pkg/database"
	"dentalhub/pkg/logger"
	"dentalhub/pkg/metrics"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title DentalHub API
// @version 1.0
// @description API маркетплейса стоматологических клиник: поиск клиник, свободные слоты, запись на прием

// @contact.name API Support
// @contact.email support@dentalhub.local

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath /api/v1

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Не удалось загрузить конфигурацию: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Environment)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Не удалось создать логгер: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(ctx, cfg.Postgres)
	if err != nil {
		log.Fatal("Не удалось подключиться к БД", zap.Error(err))
	}
	defer db.Close()

	log.Info("Запуск миграций базы данных")
	if err := database.RunMigrations(ctx, db, migrations.FS, log); err != nil {
		log.Fatal("Ошибка при выполнении миграций", zap.Error(err))
	}
	log.Info("Миграции успешно выполнены")

	deps := service.Deps{
		Repos:  repository.NewRepositories(db),
		Logger: log,
		Config: cfg,
		Tokens: auth.NewTokenManager(cfg.JWT.SigningKey, cfg.JWT.AccessTokenTTL, cfg.JWT.RefreshTokenTTL),
	}

	if cfg.S3.Endpoint != "" {
		s3Storage, err := storage.NewS3Storage(ctx, cfg.S3, log)
		if err != nil {
			log.Fatal("Не удалось инициализировать S3 хранилище", zap.Error(err))
		}
		deps.FileStorage = s3Storage
		log.Info("S3 хранилище успешно инициализировано", zap.String("endpoint", cfg.S3.Endpoint))
	} else {
		log.Warn("S3 хранилище не настроено, загрузка логотипов недоступна")
	}

	if cfg.RabbitMQ.URL != "" {
		publisher, err := notify.NewRabbitPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, log)
		if err != nil {
			log.Fatal("Не удалось подключиться к RabbitMQ", zap.Error(err))
		}
		defer publisher.Close()
		deps.Publisher = publisher
	} else {
		log.Warn("RabbitMQ не настроен, события не публикуются")
	}

	var scheduler *worker.Scheduler
	if cfg.Redis.Addr != "" {
		client, err := cache.NewRedisClient(ctx, cfg.Redis, cfg.Redis.CacheDB)
		if err != nil {
			log.Fatal("Не удалось подключиться к Redis", zap.Error(err))
		}
		defer client.Close()
		deps.Cache = cache.NewRedisCache(client)

		scheduler = worker.NewScheduler(cfg.Redis, cfg.Booking.ReminderLead, log)
		defer scheduler.Close()
		deps.Reminders = scheduler
	} else {
		log.Warn("Redis не настроен, кеш и напоминания отключены")
	}

	if cfg.AI.GeminiAPIKey != "" {
		model, err := ai.NewGeminiModel(ctx, cfg.AI.GeminiAPIKey, cfg.AI.Model, log)
		if err != nil {
			log.Fatal("Не удалось инициализировать Gemini", zap.Error(err))
		}
		defer model.Close()
		deps.AI = model
	} else {
		log.Warn("GEMINI_API_KEY не задан, AI-функции отключены")
	}

	m := metrics.New(cfg.Name)
	deps.Metrics = m

	var services *service.Services
	hub := websocket.NewHub(func(ctx context.Context, token string) (domain.Identity, error) {
		return services.Auth.ParseToken(ctx, token)
	}, cfg.HTTP.AllowedOrigins, log)
	deps.Push = hub

	services = service.NewServices(deps)

	go hub.Run(ctx)

	if scheduler != nil {
		reminders := worker.NewServer(cfg.Redis, services.Notification, log)
		if err := reminders.Start(); err != nil {
			log.Fatal("Не удалось запустить обработчик напоминаний", zap.Error(err))
		}
		defer reminders.Shutdown()
	}

	if err := services.User.EnsureAdmin(ctx, cfg.Admin); err != nil {
		log.Fatal("Не удалось создать администратора", zap.Error(err))
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	handler := rest.NewHandler(services, log, cfg, hub, m)
	handler.InitRoutes(router)

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/swagger", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/swagger/index.html")
	})

	srv := &http.Server{
		Addr:           ":" + cfg.HTTP.Port,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderMB << 20,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Ошибка запуска сервера", zap.Error(err))
		}
	}()

	log.Info("Сервер запущен", zap.String("addr", srv.Addr))

	<-ctx.Done()
	log.Info("Выключение сервера...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Ошибка при остановке сервера", zap.Error(err))
	}

	log.Info("Сервер успешно остановлен")
}
