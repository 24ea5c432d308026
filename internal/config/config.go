package config

import "os"

type PortalConfig struct {
	Port        string
	ProxyPort   string
	MongoCfg    MongoConfig
	RedisCfg    RedisConfig
	MinioCfg    MinioConfig
	RabbitMQCfg RabbitMQConfig
	RegistryCfg RegistryConfig
}

type MongoConfig struct {
	URI      string
	Database string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioSecure    string
	MinioLocation  string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type RegistryConfig struct {
	BaseURL string
	Token   string
}

func New() *PortalConfig {
	return &PortalConfig{
		Port:      getEnv("PORTAL_PORT", "8085"),
		ProxyPort: getEnv("PROXY_PORT", "8086"),
		MongoCfg: MongoConfig{
			URI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGO_DB", "metrix"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PWD"),
			DB:       0,
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnv("MINIO_URL", "http://localhost:9000"),
			MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
			MinioSecure:    getEnv("MINIO_SECURE", "false"),
			MinioLocation:  getEnv("MINIO_LOCATION", "us-east-1"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: os.Getenv("RABBITMQ_USER"),
			Password: os.Getenv("RABBITMQ_PWD"),
			Host:     getEnv("RABBITMQ_HOST", "localhost"),
			Port:     getEnv("RABBITMQ_PORT", "5672"),
		},
		RegistryCfg: RegistryConfig{
			BaseURL: getEnv("REGISTRY_BASE_URL", "https://sm.iot-exp.kz/api/v1"),
			Token:   os.Getenv("REGISTRY_TOKEN"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
