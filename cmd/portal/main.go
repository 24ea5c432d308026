package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"metrix-portal/internal/config"
	"metrix-portal/internal/database/minio"
	"metrix-portal/internal/database/mongo"
	"metrix-portal/internal/database/redis"
	"metrix-portal/internal/event"
	"metrix-portal/internal/handlers"
	"metrix-portal/internal/registry"
	"metrix-portal/internal/repository"
	"metrix-portal/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const registryTimeout = 15 * time.Second

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/metrix", "log", "portal")
	err := os.MkdirAll(logDir, 0755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		log.Fatalf("Error setting up logging: %v", err)
	}
	defer logFile.Close()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on the environment")
	}

	cfg := config.New()

	db, err := mongo.Connect(cfg.MongoCfg)
	if err != nil {
		log.Fatalf("Error connecting to MongoDB: %v", err)
	}
	defer mongo.Disconnect(db)

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		log.Fatalf("Error connecting to MinIO: %v", err)
	}

	// Notifications are best-effort; the portal serves without the broker.
	var publisher services.EventPublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Printf("RabbitMQ unavailable, notifications disabled: %v", err)
	} else {
		defer rabbitConn.Close()
		publisher = event.NewRequestPublisher(rabbitConn)
	}

	registryClient := registry.NewClient(cfg.RegistryCfg.BaseURL, cfg.RegistryCfg.Token, registryTimeout)

	r := gin.Default()

	//repositories
	userRepository := repository.NewUserRepository(db)
	meterRepository := repository.NewMeterRepository(db)
	requestRepository := repository.NewRequestRepository(db)
	logRepository := repository.NewLogRepository(db)
	sessionRepository := repository.NewSessionRepository(redisClient.GetClient())
	searchRepository := repository.NewSearchRepository(redisClient.GetClient())

	//services
	resolverService := services.NewResolverService(registryClient, logRepository, searchRepository)
	authService := services.NewAuthService(userRepository, sessionRepository)
	meterService := services.NewMeterService(meterRepository)
	requestService := services.NewRequestService(requestRepository, minioClient, publisher)
	adminService := services.NewAdminService(userRepository, meterRepository, requestRepository)

	// handlers
	middleware := handlers.NewMiddleware(sessionRepository)
	authHandler := handlers.NewAuthHandler(authService)
	meterHandler := handlers.NewMeterHandler(resolverService, meterService, middleware)
	requestHandler := handlers.NewRequestHandler(requestService, middleware)
	adminHandler := handlers.NewAdminHandler(adminService, requestService)

	// Register routes
	authHandler.RegisterRoutes(r)
	meterHandler.RegisterRoutes(r)
	requestHandler.RegisterRoutes(r)
	adminHandler.RegisterRoutes(r)

	log.Printf("Starting portal on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
