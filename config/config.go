package config

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/glebarez/sqlite"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver   string `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	DBTimeZone string `env:"DB_TIMEZONE" envDefault:"UTC"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"finance.db"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"127.0.0.1:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	JWTSecret  string        `env:"JWT_SECRET,required"`
	AccessTTL  time.Duration `env:"ACCESS_TTL" envDefault:"24h"`
	RefreshTTL time.Duration `env:"REFRESH_TTL" envDefault:"168h"`

	QuoteProvider    string        `env:"QUOTE_PROVIDER" envDefault:"alphavantage"`
	AlphaVantageKey  string        `env:"ALPHA_VANTAGE_API_KEY"`
	AlphaVantageURL  string        `env:"ALPHA_VANTAGE_URL" envDefault:"https://www.alphavantage.co"`
	StaticQuotes     string        `env:"STATIC_QUOTES"`
	QuoteTimeout     time.Duration `env:"QUOTE_TIMEOUT" envDefault:"5s"`
	QuoteCacheTTL    time.Duration `env:"QUOTE_CACHE_TTL" envDefault:"5m"`
	InitialCashValue string        `env:"INITIAL_CASH" envDefault:"10000"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogFile  string `env:"LOG_FILE"`
	LogJSON  bool   `env:"LOG_JSON" envDefault:"false"`
}

// Load reads an optional .env file and then the process environment.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "load %s", f)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse environment")
	}
	if _, err := cfg.InitialCash(); err != nil {
		return Config{}, err
	}
	switch cfg.QuoteProvider {
	case "alphavantage", "static":
	default:
		return Config{}, errors.Errorf("unknown QUOTE_PROVIDER %q", cfg.QuoteProvider)
	}
	return cfg, nil
}

func (c Config) InitialCash() (decimal.Decimal, error) {
	cash, err := decimal.NewFromString(c.InitialCashValue)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse INITIAL_CASH")
	}
	if cash.IsNegative() {
		return decimal.Zero, errors.Errorf("INITIAL_CASH must not be negative, got %s", cash)
	}
	return cash, nil
}

func (c Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.DBTimeZone)
}

// OpenDB connects to postgres, or to a local sqlite file when DB_DRIVER=sqlite.
func OpenDB(c Config) (*gorm.DB, error) {
	gcfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	switch c.DBDriver {
	case "postgres":
		db, err := gorm.Open(postgres.Open(c.PostgresDSN()), gcfg)
		return db, errors.Wrap(err, "connect to postgres")
	case "sqlite":
		return OpenSQLite(c.SQLitePath, gcfg)
	default:
		return nil, errors.Errorf("unknown DB_DRIVER %q", c.DBDriver)
	}
}

// OpenSQLite opens path with a single connection; sqlite has no row locks, so
// writers are serialized by the pool instead.
func OpenSQLite(path string, gcfg *gorm.Config) (*gorm.DB, error) {
	if gcfg == nil {
		gcfg = &gorm.Config{Logger: logger.Default.LogMode(logger.Silent), TranslateError: true}
	}
	db, err := gorm.Open(sqlite.Open(path+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"), gcfg)
	if err != nil {
		return nil, errors.Wrap(err, "open sqlite")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "sqlite handle")
	}
	sqlDB.SetMaxOpenConns(1)
	return db, nil
}

func OpenRedis(ctx context.Context, c Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrap(err, "connect to redis")
	}
	return rdb, nil
}
