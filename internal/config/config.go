package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	// MemoryLocation selects a private in-memory sqlite database.
	MemoryLocation = ":memory:"
)

type Config struct {
	App      AppConfig      `toml:"app"`
	Storage  StorageConfig  `toml:"storage"`
	Hash     HashConfig     `toml:"hash"`
	Redis    RedisConfig    `toml:"redis"`
	RabbitMQ RabbitMQConfig `toml:"rabbitmq"`
	CORS     CORSConfig     `toml:"cors"`
}

type AppConfig struct {
	Name      string `toml:"name"`
	Env       string `toml:"env"`
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	GinMode   string `toml:"gin_mode"`
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`
}

// StorageConfig selects the relational store. Location is a file path (or
// MemoryLocation) for sqlite and a DSN for mysql/postgres.
type StorageConfig struct {
	Driver   string `toml:"driver"`
	Location string `toml:"location"`
}

type HashConfig struct {
	SaltBytes int `toml:"salt_bytes"`
	N         int `toml:"n"`
	R         int `toml:"r"`
	P         int `toml:"p"`
	KeyLen    int `toml:"key_len"`
}

type RedisConfig struct {
	Addr           string `toml:"addr"`
	Password       string `toml:"password"`
	DB             int    `toml:"db"`
	UserTTLSeconds int    `toml:"user_ttl_seconds"`
}

type RabbitMQConfig struct {
	URL      string `toml:"url"`
	Exchange string `toml:"exchange"`
}

type CORSConfig struct {
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Load builds the configuration from defaults, the optional TOML file, the
// optional .env file, environment variables and finally the command line.
func Load(args []string) (*Config, error) {
	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if path := configFlag(args); path != "" {
		configPath = path
	}
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	envFile := getEnv("ENV_FILE", ".env")
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env file failed: %w", err)
	}

	overrideByEnv(cfg)
	if err := overrideByFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.App.Port)
	}
	switch c.Storage.Driver {
	case DriverSQLite, DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("unsupported storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.Location) == "" {
		return errors.New("storage location is empty")
	}
	if c.Hash.SaltBytes < 0 {
		return fmt.Errorf("invalid salt length %d", c.Hash.SaltBytes)
	}
	// scrypt requires N to be a power of two greater than one.
	if c.Hash.N <= 1 || c.Hash.N&(c.Hash.N-1) != 0 {
		return fmt.Errorf("invalid scrypt n %d", c.Hash.N)
	}
	if c.Hash.R <= 0 || c.Hash.P <= 0 || c.Hash.KeyLen <= 0 {
		return errors.New("invalid scrypt parameters")
	}
	return nil
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:      "identity-service",
			Env:       "dev",
			Host:      "0.0.0.0",
			Port:      3000,
			GinMode:   "release",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Storage: StorageConfig{
			Driver:   DriverSQLite,
			Location: MemoryLocation,
		},
		Hash: HashConfig{
			SaltBytes: 64,
			N:         32768,
			R:         8,
			P:         1,
			KeyLen:    64,
		},
		Redis: RedisConfig{
			UserTTLSeconds: 60,
		},
		RabbitMQ: RabbitMQConfig{
			Exchange: "identity.user.events",
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:8080"},
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.LogLevel = getEnv("LOG_LEVEL", cfg.App.LogLevel)
	cfg.App.LogFormat = getEnv("LOG_FORMAT", cfg.App.LogFormat)

	cfg.Storage.Driver = getEnv("STORAGE_DRIVER", cfg.Storage.Driver)
	cfg.Storage.Location = getEnv("STORAGE_LOCATION", cfg.Storage.Location)

	cfg.Hash.SaltBytes = getEnvAsInt("HASH_SALT_BYTES", cfg.Hash.SaltBytes)
	cfg.Hash.N = getEnvAsInt("HASH_SCRYPT_N", cfg.Hash.N)
	cfg.Hash.R = getEnvAsInt("HASH_SCRYPT_R", cfg.Hash.R)
	cfg.Hash.P = getEnvAsInt("HASH_SCRYPT_P", cfg.Hash.P)
	cfg.Hash.KeyLen = getEnvAsInt("HASH_KEY_LEN", cfg.Hash.KeyLen)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.UserTTLSeconds = getEnvAsInt("REDIS_USER_TTL_SECONDS", cfg.Redis.UserTTLSeconds)

	cfg.RabbitMQ.URL = getEnv("RABBITMQ_URL", cfg.RabbitMQ.URL)
	cfg.RabbitMQ.Exchange = getEnv("RABBITMQ_EXCHANGE", cfg.RabbitMQ.Exchange)

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.CORS.AllowedOrigins = splitList(origins)
	}
}

// overrideByFlags applies the named startup options. Only flags that were
// actually passed override earlier layers.
func overrideByFlags(cfg *Config, args []string) error {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse flags failed: %w", err)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "db":
			cfg.Storage.Location = f.Value.String()
		case "driver":
			cfg.Storage.Driver = f.Value.String()
		case "port":
			cfg.App.Port = f.Value.(flag.Getter).Get().(int)
		}
	})
	return nil
}

func configFlag(args []string) string {
	fs := newFlagSet()
	if err := fs.Parse(args); err != nil {
		return ""
	}
	return fs.Lookup("config").Value.String()
}

func newFlagSet() *flag.FlagSet {
	fs := flag.NewFlagSet("identity-service", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.String("db", "", "storage location: sqlite file, :memory: or DSN")
	fs.String("driver", "", "storage driver: sqlite, mysql or postgres")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("config", "", "path to TOML config file")
	return fs
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
