package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/campaign-api/internal/config"
	"github.com/yourusername/campaign-api/internal/handler"
	"github.com/yourusername/campaign-api/internal/media"
	"github.com/yourusername/campaign-api/internal/middleware"
	"github.com/yourusername/campaign-api/internal/queue"
	pgRepo "github.com/yourusername/campaign-api/internal/repository/postgres"
	redisRepo "github.com/yourusername/campaign-api/internal/repository/redis"
	"github.com/yourusername/campaign-api/internal/service"
	"github.com/yourusername/campaign-api/pkg/auth"
	"github.com/yourusername/campaign-api/pkg/database"
)

func main() {
	// Загружаем конфигурацию
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	// Применяем миграции
	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	// Инициализируем подключение к Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	// Инициализируем репозитории
	campaignRepo := pgRepo.NewCampaignRepo(db)
	adminRepo := pgRepo.NewAdminRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Инициализируем медиабэкенды: fast (видеохостинг) и bulk (большие файлы)
	fastHost, err := media.NewCloudinaryHost(cfg.Media.Cloudinary)
	if err != nil {
		log.Printf("Failed to initialize Cloudinary host: %v", err)
		os.Exit(1)
	}
	bulkHost := media.NewFilestackHost(cfg.Media.Filestack, &media.FFmpegExtractor{}, fastHost)
	uploader := media.NewSizeDispatcher(fastHost, bulkHost, cfg.Media)

	// Очередь отложенных загрузок
	uploadQueue, err := queue.NewQueue(redisClient, cfg.Queue)
	if err != nil {
		log.Printf("Failed to initialize upload queue: %v", err)
		os.Exit(1)
	}

	// Инициализируем JWT
	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpirationHrs)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	// Контекст жизненного цикла фоновых горутин
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Инициализируем сервисы
	authService, err := service.NewAuthService(adminRepo, jwtService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}
	campaignService := service.NewCampaignService(
		campaignRepo,
		cacheRepo,
		uploader,
		uploadQueue,
		cfg.Cache.TTL,
		cfg.Media.UploadTimeout,
	)

	// Запускаем воркер очереди в этом же процессе: второй домен конкуренции,
	// разбирающий загрузки независимо от HTTP-пути
	worker := queue.NewWorker(uploadQueue, uploader, campaignRepo, cacheRepo)
	workerDone := make(chan struct{})
	go func() {
		worker.Run(ctx)
		close(workerDone)
	}()

	// Инициализируем обработчики и middleware
	authHandler := handler.NewAuthHandler(authService)
	campaignHandler := handler.NewCampaignHandler(campaignService, cfg.Server.PublicBaseURL, cfg.Media.MaxUploadMB)
	authMiddleware := middleware.NewAuthMiddleware(jwtService)

	// Инициализируем роутер Gin
	router := gin.Default()

	isProduction := gin.Mode() == gin.ReleaseMode
	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// Настройка CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:4200", "https://bzfront.vercel.app"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "ETag"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Маршруты администраторов
	admin := router.Group("/admin")
	{
		admin.POST("/register", authHandler.Register)
		admin.POST("/login", authHandler.Login)
		admin.GET("/me", authMiddleware.RequireAuth(), authHandler.GetMe)
	}

	// Маршруты кампаний
	campaigns := router.Group("/campaigns")
	{
		// Публичные маршруты
		campaigns.GET("/public/links", campaignHandler.PublicLinks)
		campaigns.GET("/upload-status/:jobId", campaignHandler.UploadStatus)
		campaigns.GET("/:slug", campaignHandler.GetBySlug)
		campaigns.GET("/:slug/meta", campaignHandler.GetMetaTags)

		// Маршруты, требующие аутентификации
		authed := campaigns.Group("")
		authed.Use(authMiddleware.RequireAuth())
		{
			authed.POST("", campaignHandler.Create)
			authed.GET("", campaignHandler.List)
			authed.POST("/upload", campaignHandler.Upload)
			authed.POST("/upload-async", campaignHandler.UploadAsync)
			authed.PUT("/:slug", campaignHandler.Update)
			authed.DELETE("/:slug", campaignHandler.Delete)
		}
	}

	// Настраиваем HTTP сервер с тайм-аутами для защиты от slow client attacks
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	// После получения сигнала SIGINT или SIGTERM завершаем горутины и сервер
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Останавливаем воркер и фоновые горутины
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	// Даем воркеру дописать текущую задачу, иначе она повиснет в статусе active
	// до истечения TTL хеша
	select {
	case <-workerDone:
	case <-time.After(30 * time.Second):
		log.Println("Upload worker did not stop in time, exiting anyway")
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}
