package config

import (
	"fmt"
	"log"
	"time"

	"github.com/ilyakaznacheev/cleanenv"

	"github.com/plantdoctor/identity/pkg/validator"
)

const (
	StorageTypeMemory = "memory"
	StorageTypeMySQL  = "mysql"

	SMSProviderLog     = "log"
	SMSProviderGateway = "gateway"
)

// Config is the reference identity server configuration.
type Config struct {
	Env        string `env:"ENV" env-default:"local"`
	LogLevel   string `env:"LOG_LEVEL" env-default:"info" env-description:"logging level, debug, info, etc."`
	HttpServer HttpServer
	Storage    Storage
	Database   Database
	Limiter    Limiter
	Auth       AuthConfig
	Cache      Cache
	Queue      Queue
	SMS        SMSConfig
}

type HttpServer struct {
	Port        string        `env:"HTTP_PORT" env-default:"8080"`
	Timeout     time.Duration `env:"HTTP_TIMEOUT" env-default:"4s"`
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
}

type Storage struct {
	Type string `env:"STORAGE_TYPE" env-default:"memory" env-description:"user storage, one of memory/mysql"`
}

type Database struct {
	Net                string        `env:"DB_NET" env-default:"tcp"`
	Server             string        `env:"DB_SERVER"`
	DBName             string        `env:"DB_NAME"`
	User               string        `env:"DB_USER"`
	Password           string        `env:"DB_PASSWORD"`
	TimeZone           string        `env:"DB_TIMEZONE" env-default:"UTC"`
	Timeout            time.Duration `env:"DB_TIMEOUT" env-default:"2s"`
	MaxIdleConnections int           `env:"DB_MAX_IDLE_CONNECTIONS" env-default:"10"`
	MaxOpenConnections int           `env:"DB_MAX_OPEN_CONNECTIONS" env-default:"10"`
}

type Limiter struct {
	RPS   int           `env:"LIMITER_RPS" env-default:"10"`
	Burst int           `env:"LIMITER_BURST" env-default:"20"`
	TTL   time.Duration `env:"LIMITER_TTL" env-default:"10m"`
}

type AuthConfig struct {
	JWT            JWTConfig
	OTPLength      int           `env:"AUTH_OTP_LENGTH" env-default:"6"`
	OTPTTL         time.Duration `env:"AUTH_OTP_TTL" env-default:"5m"`
	OTPMaxAttempts int           `env:"AUTH_OTP_MAX_ATTEMPTS" env-default:"5"`
	PinHashCost    int           `env:"AUTH_PIN_HASH_COST" env-default:"10"`
	AdminToken     string        `env:"AUTH_ADMIN_TOKEN" env-description:"bearer token for KYC approval, routes are disabled when empty"`
}

type JWTConfig struct {
	VerificationTokenTTL time.Duration `env:"JWT_VERIFICATION_TOKEN_TTL" env-default:"15m"`
	SigningKey           string        `env:"JWT_SIGNING_KEY" env-required:"true"`
}

type Cache struct {
	Type  string `env:"REDIS_TYPE" env-default:"memory" env-description:"specifies provider, one of memory/redis/redisCluster"`
	Redis struct {
		Address  string `env:"REDIS_ADDR" env-default:"" env-description:"redis host:port single instance"`
		Password string `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize int    `env:"REDIS_POOL_SIZE" env-default:"20" env-description:"max tcp connections pool size"`
	}
	RedisCluster struct {
		Addresses []string `env:"REDIS_CLUSTER_ADDRS" env-default:"" env-description:"redis cluster nodes: ['172.27.29.90:7000','172.27.29.91:7001']"`
		Password  string   `env:"REDIS_PASSWORD" env-default:"" env-description:"redis password if exists"`
		PoolSize  int      `env:"REDIS_POOL_SIZE" env-default:"20" env-description:"max tcp connections pool size"`
	}
}

type Queue struct {
	Enabled     bool `env:"QUEUE_ENABLED" env-default:"false" env-description:"dispatch OTP messages through asynq, requires redis"`
	Concurrency int  `env:"QUEUE_CONCURRENCY" env-default:"10"`
}

type SMSConfig struct {
	Provider      string `env:"SMS_PROVIDER" env-default:"log" env-description:"one of log/gateway"`
	Host          string `env:"SMTP_HOST"`
	Port          int    `env:"SMTP_PORT" env-default:"587"`
	From          string `env:"SMTP_FROM"`
	Pass          string `env:"SMTP_PASS"`
	GatewayDomain string `env:"SMS_GATEWAY_DOMAIN" env-description:"email-to-sms gateway domain, e.g. sms.example.net"`
}

// ClientConfig configures the command-line client.
type ClientConfig struct {
	Env      string `env:"ENV" env-default:"local"`
	LogLevel string `env:"LOG_LEVEL" env-default:"warn"`
	Identity IdentityClient
	Session  Session
	Cache    Cache
}

type IdentityClient struct {
	BaseURL string        `env:"IDENTITY_BASE_URL" env-default:"http://localhost:8080/api/v1"`
	Timeout time.Duration `env:"IDENTITY_TIMEOUT" env-default:"15s"`
}

type Session struct {
	Type     string `env:"SESSION_TYPE" env-default:"file" env-description:"session storage, one of memory/file/redis"`
	FilePath string `env:"SESSION_FILE" env-default:".identity-session.json"`
	Key      string `env:"SESSION_KEY" env-default:"mobile"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}

	// Clients and request validation only accept codes of this length.
	if cfg.Auth.OTPLength != validator.OTPLength {
		return nil, fmt.Errorf("AUTH_OTP_LENGTH must be %d, got %d", validator.OTPLength, cfg.Auth.OTPLength)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("cannot read config from environment: %s", err)
	}

	return cfg
}

func LoadClient() (*ClientConfig, error) {
	var cfg ClientConfig
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func MustLoadClient() *ClientConfig {
	cfg, err := LoadClient()
	if err != nil {
		log.Fatalf("cannot read client config from environment: %s", err)
	}

	return cfg
}
