package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"sofimed-core/internal/infrastructure/database/mongodb"
	"sofimed-core/internal/infrastructure/database/postgres"
	"sofimed-core/internal/infrastructure/database/redis"

	"github.com/joho/godotenv"
)

// Uniquement variables d'environnement

// Config structure unifiée
type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	MongoDB     MongoConfig
	Logging     LoggingConfig
	CORS        CORSConfig
	Auth        AuthConfig
	Prediction  PredictionConfig
	Storage     StorageConfig
	Cache       CacheConfig
	Bootstrap   BootstrapConfig
}

// ServerConfig configuration serveur HTTP
type ServerConfig struct {
	Host         string        `env:"SERVER_HOST"`
	Port         int           `env:"SERVER_PORT"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT"`
}

// DatabaseConfig configuration PostgreSQL
type DatabaseConfig struct {
	Host           string        `env:"DB_HOST"`
	Port           int           `env:"DB_PORT"`
	Database       string        `env:"DB_NAME"`
	Username       string        `env:"DB_USERNAME"`
	Password       string        `env:"DB_PASSWORD"`
	MaxConnections int           `env:"DB_MAX_CONNECTIONS"`
	ConnectionTTL  time.Duration `env:"DB_CONNECTION_TTL"`
	QueryTimeout   time.Duration `env:"DB_QUERY_TIMEOUT"`
	SSLMode        string        `env:"DB_SSL_MODE"`
}

// RedisConfig configuration Redis
type RedisConfig struct {
	Host        string        `env:"REDIS_HOST"`
	Port        int           `env:"REDIS_PORT"`
	Password    string        `env:"REDIS_PASSWORD"`
	Database    int           `env:"REDIS_DATABASE"`
	MaxRetries  int           `env:"REDIS_MAX_RETRIES"`
	PoolSize    int           `env:"REDIS_POOL_SIZE"`
	PoolTimeout time.Duration `env:"REDIS_POOL_TIMEOUT"`
}

// MongoConfig configuration MongoDB
type MongoConfig struct {
	URI            string        `env:"MONGODB_URI"`
	Database       string        `env:"MONGODB_DATABASE"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT"`
	MaxPoolSize    int           `env:"MONGODB_MAX_POOL_SIZE"`
}

// LoggingConfig configuration logging
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL"`
	Format string `env:"LOG_FORMAT"` // text | json
}

// CORSConfig configuration CORS
type CORSConfig struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS"`
	MaxAge           int      `env:"CORS_MAX_AGE"`
}

// AuthConfig sessions et limitation des tentatives
type AuthConfig struct {
	SessionTTL  time.Duration `env:"AUTH_SESSION_TTL"`
	MaxAttempts int           `env:"AUTH_MAX_ATTEMPTS"`
	RateWindow  time.Duration `env:"AUTH_RATE_WINDOW"`
	BcryptCost  int           `env:"AUTH_BCRYPT_COST"`
}

// PredictionConfig service externe de prédiction
type PredictionConfig struct {
	BaseURL string        `env:"PREDICTION_SERVICE_URL"`
	APIKey  string        `env:"PREDICTION_API_KEY"`
	Timeout time.Duration `env:"PREDICTION_TIMEOUT"`
	LockTTL time.Duration `env:"PREDICTION_LOCK_TTL"`
}

// StorageConfig pièces jointes des consultations
type StorageConfig struct {
	AttachmentsDir string `env:"STORAGE_ATTACHMENTS_DIR"`
	MaxUploadBytes int64  `env:"STORAGE_MAX_UPLOAD_BYTES"`
}

// CacheConfig durées de vie du cache applicatif
type CacheConfig struct {
	DashboardTTL   time.Duration `env:"DASHBOARD_CACHE_TTL"`
	PermissionsTTL time.Duration `env:"PERMISSIONS_CACHE_TTL"`
}

// BootstrapConfig migrations et données initiales
type BootstrapConfig struct {
	RunMigrations         bool   `env:"BOOTSTRAP_RUN_MIGRATIONS"`
	RunSeeding            bool   `env:"BOOTSTRAP_RUN_SEEDING"`
	SuperAdminIdentifiant string `env:"SUPER_ADMIN_IDENTIFIANT"`
	SuperAdminPassword    string `env:"SUPER_ADMIN_PASSWORD"`
	SuperAdminEmail       string `env:"SUPER_ADMIN_EMAIL"`
	DefaultPhoneRegion    string `env:"DEFAULT_PHONE_REGION"`
}

// NewConfig charge la configuration depuis les variables d'environnement uniquement
func NewConfig() (*Config, error) {
	// Charger le fichier .env (optionnel)
	if err := godotenv.Load(".env"); err != nil {
		fmt.Printf("[CONFIG] Warning: Fichier .env non trouvé: %v\n", err)
	}

	return LoadFromEnv()
}

// LoadFromEnv construit la configuration sans lire de fichier .env
func LoadFromEnv() (*Config, error) {
	config := &Config{}

	config.Environment = getEnv("APP_ENV", "development")

	config.Server = ServerConfig{
		Host:         getEnv("SERVER_HOST", "localhost"),
		Port:         getEnvInt("SERVER_PORT", 8080),
		ReadTimeout:  getEnvDuration("SERVER_READ_TIMEOUT", 30) * time.Second,
		WriteTimeout: getEnvDuration("SERVER_WRITE_TIMEOUT", 60) * time.Second,
	}

	config.Database = DatabaseConfig{
		Host:           getEnv("DB_HOST", "localhost"),
		Port:           getEnvInt("DB_PORT", 5432),
		Database:       getEnv("DB_NAME", "sofimed"),
		Username:       getEnv("DB_USERNAME", "postgres"),
		Password:       getEnv("DB_PASSWORD", ""),
		MaxConnections: getEnvInt("DB_MAX_CONNECTIONS", 25),
		ConnectionTTL:  getEnvDuration("DB_CONNECTION_TTL", 300) * time.Second,
		QueryTimeout:   getEnvDuration("DB_QUERY_TIMEOUT", 30) * time.Second,
		SSLMode:        getEnv("DB_SSL_MODE", "disable"),
	}

	config.Redis = RedisConfig{
		Host:        getEnv("REDIS_HOST", "localhost"),
		Port:        getEnvInt("REDIS_PORT", 6379),
		Password:    getEnv("REDIS_PASSWORD", ""),
		Database:    getEnvInt("REDIS_DATABASE", 0),
		MaxRetries:  getEnvInt("REDIS_MAX_RETRIES", 3),
		PoolSize:    getEnvInt("REDIS_POOL_SIZE", 10),
		PoolTimeout: getEnvDuration("REDIS_POOL_TIMEOUT", 30) * time.Second,
	}

	defaultMongoURI := ""
	if config.Environment == "development" {
		defaultMongoURI = "mongodb://localhost:27017"
	}

	config.MongoDB = MongoConfig{
		URI:            getEnv("MONGODB_URI", defaultMongoURI),
		Database:       getEnv("MONGODB_DATABASE", "sofimed_documents"),
		ConnectTimeout: getEnvDuration("MONGODB_CONNECT_TIMEOUT", 10) * time.Second,
		MaxPoolSize:    getEnvInt("MONGODB_MAX_POOL_SIZE", 50),
	}

	defaultFormat := "text"
	if config.Environment == "docker" {
		defaultFormat = "json"
	}
	config.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "debug"),
		Format: getEnv("LOG_FORMAT", defaultFormat),
	}

	config.CORS = CORSConfig{
		AllowedOrigins:   getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		AllowedMethods:   getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}),
		AllowedHeaders:   getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Content-Type", "Authorization"}),
		AllowCredentials: getEnvBool("CORS_ALLOW_CREDENTIALS", true),
		MaxAge:           getEnvInt("CORS_MAX_AGE", 3600),
	}

	config.Auth = AuthConfig{
		SessionTTL:  getEnvDuration("AUTH_SESSION_TTL", 28800) * time.Second,
		MaxAttempts: getEnvInt("AUTH_MAX_ATTEMPTS", 5),
		RateWindow:  getEnvDuration("AUTH_RATE_WINDOW", 900) * time.Second,
		BcryptCost:  getEnvInt("AUTH_BCRYPT_COST", 12),
	}

	config.Prediction = PredictionConfig{
		BaseURL: strings.TrimRight(getEnv("PREDICTION_SERVICE_URL", "http://localhost:5000"), "/"),
		APIKey:  getEnv("PREDICTION_API_KEY", ""),
		Timeout: getEnvDuration("PREDICTION_TIMEOUT", 20) * time.Second,
		LockTTL: getEnvDuration("PREDICTION_LOCK_TTL", 60) * time.Second,
	}

	config.Storage = StorageConfig{
		AttachmentsDir: getEnv("STORAGE_ATTACHMENTS_DIR", "./storage/consultations"),
		MaxUploadBytes: int64(getEnvInt("STORAGE_MAX_UPLOAD_BYTES", 10<<20)),
	}

	config.Cache = CacheConfig{
		DashboardTTL:   getEnvDuration("DASHBOARD_CACHE_TTL", 300) * time.Second,
		PermissionsTTL: getEnvDuration("PERMISSIONS_CACHE_TTL", 3600) * time.Second,
	}

	config.Bootstrap = BootstrapConfig{
		RunMigrations:         getEnvBool("BOOTSTRAP_RUN_MIGRATIONS", true),
		RunSeeding:            getEnvBool("BOOTSTRAP_RUN_SEEDING", true),
		SuperAdminIdentifiant: getEnv("SUPER_ADMIN_IDENTIFIANT", "superadmin"),
		SuperAdminPassword:    getEnv("SUPER_ADMIN_PASSWORD", ""),
		SuperAdminEmail:       getEnv("SUPER_ADMIN_EMAIL", "admin@sofimed.ma"),
		DefaultPhoneRegion:    getEnv("DEFAULT_PHONE_REGION", "MA"),
	}

	// Validation configuration critique
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("validation configuration échouée: %w", err)
	}

	fmt.Printf("[CONFIG] ✅ Configuration chargée pour environnement: %s\n", config.Environment)
	return config, nil
}

func (c *Config) GetServer() ServerConfig         { return c.Server }
func (c *Config) GetLogging() LoggingConfig       { return c.Logging }
func (c *Config) GetCORS() CORSConfig             { return c.CORS }
func (c *Config) GetAuth() AuthConfig             { return c.Auth }
func (c *Config) GetPrediction() PredictionConfig { return c.Prediction }
func (c *Config) GetStorage() StorageConfig       { return c.Storage }
func (c *Config) GetCache() CacheConfig           { return c.Cache }

// IsDocker indique si l'application tourne en mode docker
func (c *Config) IsDocker() bool {
	return c.Environment == "docker"
}

// Convertisseurs vers configurations infrastructure

func NewPostgresConfig(config *Config) *postgres.DatabaseConfig {
	return &postgres.DatabaseConfig{
		Host:             config.Database.Host,
		Port:             config.Database.Port,
		Database:         config.Database.Database,
		Username:         config.Database.Username,
		Password:         config.Database.Password,
		SSLMode:          config.Database.SSLMode,
		MaxConnections:   config.Database.MaxConnections,
		ConnectionTTL:    config.Database.ConnectionTTL,
		StatementTimeout: config.Database.QueryTimeout,
	}
}

func NewRedisConfig(config *Config) *redis.RedisConfig {
	return &redis.RedisConfig{
		Host:        config.Redis.Host,
		Port:        config.Redis.Port,
		Password:    config.Redis.Password,
		Database:    config.Redis.Database,
		MaxRetries:  config.Redis.MaxRetries,
		PoolSize:    config.Redis.PoolSize,
		PoolTimeout: config.Redis.PoolTimeout,
	}
}

func NewMongoConfig(config *Config) *mongodb.MongoConfig {
	return &mongodb.MongoConfig{
		URI:            config.MongoDB.URI,
		Database:       config.MongoDB.Database,
		ConnectTimeout: config.MongoDB.ConnectTimeout,
		MaxPoolSize:    uint64(config.MongoDB.MaxPoolSize),
	}
}

// Helpers pour parsing variables d'environnement
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds))
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultValue
}

// validateConfig valide la configuration selon l'environnement
func validateConfig(config *Config) error {
	env := config.Environment

	if env != "development" && env != "docker" {
		return fmt.Errorf("environnement non supporté: %s (utilisez 'development' ou 'docker')", env)
	}

	if config.Logging.Format != "text" && config.Logging.Format != "json" {
		return fmt.Errorf("format de log non supporté: %s (utilisez 'text' ou 'json')", config.Logging.Format)
	}

	if config.Auth.MaxAttempts < 1 {
		return fmt.Errorf("AUTH_MAX_ATTEMPTS doit être supérieur à 0")
	}

	missingVars := []string{}

	// Variables critiques en mode docker
	if env == "docker" {
		if config.Database.Password == "" {
			missingVars = append(missingVars, "DB_PASSWORD")
		}
		if config.Bootstrap.SuperAdminPassword == "" {
			missingVars = append(missingVars, "SUPER_ADMIN_PASSWORD")
		}
		if os.Getenv("PREDICTION_SERVICE_URL") == "" {
			missingVars = append(missingVars, "PREDICTION_SERVICE_URL")
		}

		if config.Redis.Password == "" {
			fmt.Printf("[CONFIG] ⚠️ REDIS_PASSWORD non défini pour environnement docker\n")
		}
	}

	if len(missingVars) > 0 {
		return fmt.Errorf("variables critiques manquantes pour environnement docker: %v", missingVars)
	}

	return nil
}
