package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/octguy/learniverse-chat/internal/config"
	"github.com/octguy/learniverse-chat/internal/handler"
	"github.com/octguy/learniverse-chat/internal/middleware"
	"github.com/octguy/learniverse-chat/internal/migration"
	"github.com/octguy/learniverse-chat/internal/repository"
	"github.com/octguy/learniverse-chat/internal/routes"
	"github.com/octguy/learniverse-chat/internal/service"
	"github.com/octguy/learniverse-chat/internal/ws"
	"github.com/octguy/learniverse-chat/pkg/jwt"
	pkglogger "github.com/octguy/learniverse-chat/pkg/logger"
	pkgredis "github.com/octguy/learniverse-chat/pkg/redis"
	pkgstorage "github.com/octguy/learniverse-chat/pkg/storage"
)

// @title           Learniverse Chat API
// @version         1.0
// @description     Real-time chat service - rooms, messages, receipts and presence
//
// @license.name    MIT
//
// @host            localhost:8080
// @BasePath        /api/v1
//
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Authorization header using the Bearer scheme. Example: "Bearer {token}"

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.InitStructured(env)
	logger := pkglogger.GetLogger()
	logger.Info().Str("env", env).Strs("dotenv_files", dotenvFiles).Msg("starting learniverse-chat")

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config %s: %v", configPath, err)
	}

	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MySQL: %v", err)
	}
	logger.Info().Str("host", cfg.Database.Host).Str("database", cfg.Database.Name).Msg("connected to MySQL")

	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	logger.Info().Str("host", cfg.Redis.Host).Msg("connected to Redis")

	// S3-compatible attachment storage. The service runs without it; uploads
	// are rejected with a 503 until storage is configured.
	var uploader pkgstorage.Uploader
	if cfg.Storage.Enabled && cfg.Storage.Bucket != "" {
		s3Client, s3Err := pkgstorage.NewS3Client(pkgstorage.S3Config{
			Endpoint:        cfg.Storage.Endpoint,
			Region:          cfg.Storage.Region,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Bucket:          cfg.Storage.Bucket,
			CDNURL:          cfg.Storage.CDNURL,
			BasePath:        cfg.Storage.BasePath,
			ForcePathStyle:  cfg.Storage.ForcePathStyle,
		})
		if s3Err != nil {
			logger.Warn().Err(s3Err).Msg("S3 storage init failed, continuing without attachments")
		} else {
			uploader = s3Client
		}
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	roomRepo := repository.NewChatRoomRepository(db)
	participantRepo := repository.NewChatParticipantRepository(db)
	messageRepo := repository.NewChatMessageRepository(db)
	receiptRepo := repository.NewMessageReceiptRepository(db)

	// WebSocket hub doubles as the event broadcaster for all services
	wsHub := ws.NewHub(redisClient)

	// Services
	roomService := service.NewChatRoomService(roomRepo, participantRepo, userRepo, messageRepo, receiptRepo, cfg.Chat.DeleteEmptyRooms)
	participantService := service.NewParticipantService(roomRepo, participantRepo, userRepo)
	messageService := service.NewChatMessageService(messageRepo, roomRepo, participantRepo, userRepo, uploader, wsHub)
	receiptService := service.NewReceiptService(receiptRepo, messageRepo, participantRepo, wsHub)
	presenceService := service.NewPresenceService(redisClient, userRepo, wsHub, cfg.Presence.OnlineTTL, cfg.Presence.TypingTTL)
	gateService := service.NewGateService(participantRepo, userRepo, presenceService)

	wsHub.SetGatekeeper(gateService)
	go wsHub.Run()

	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Handlers
	roomHandler := handler.NewChatRoomHandler(roomService, participantService)
	messageHandler := handler.NewChatMessageHandler(messageService)
	receiptHandler := handler.NewReceiptHandler(receiptService)
	presenceHandler := handler.NewPresenceHandler(presenceService, gateService)
	wsHandler := handler.NewWSHandler(wsHub, presenceService, cfg.CORS.AllowOrigins)

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400,
	}))

	router.Use(middleware.Metrics())
	router.Use(middleware.RequestLogger())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "learniverse-chat",
			"time":    time.Now().Unix(),
		})
	})

	// Swagger UI
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.Setup(router, roomHandler, messageHandler, receiptHandler, presenceHandler, wsHandler, jwtManager)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info().Str("addr", addr).Msg("listening")
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}

func splitAndTrim(s string, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}

func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}

	logLevel := gormlogger.Warn
	if cfg.IsDevelopment() {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}
