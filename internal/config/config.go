package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	RunAddress    string `env:"RUN_ADDRESS"`
	DatabaseDSN   string `env:"DATABASE_URI"`
	MigrationsDir string `env:"MIGRATIONS_DIR"`
	JWTUserSecret string `env:"JWT_SECRET"`

	// SignupCredits количество кредитов, начисляемых при регистрации.
	SignupCredits int64 `env:"SIGNUP_CREDITS" envDefault:"5"`
	PasswordCost  int   `env:"PASSWORD_COST"  envDefault:"10"`

	ImageAPIURL     string        `env:"IMAGE_API_URL"     envDefault:"https://clipdrop-api.co"`
	ImageAPIKey     string        `env:"IMAGE_API_KEY"`
	ImageAPITimeout time.Duration `env:"IMAGE_API_TIMEOUT" envDefault:"30s"`

	PaymentGatewayURL     string        `env:"PAYMENT_GATEWAY_URL"     envDefault:"https://api.razorpay.com"`
	PaymentKeyID          string        `env:"PAYMENT_KEY_ID"`
	PaymentKeySecret      string        `env:"PAYMENT_KEY_SECRET"`
	PaymentCurrency       string        `env:"PAYMENT_CURRENCY"        envDefault:"USD"`
	PaymentGatewayTimeout time.Duration `env:"PAYMENT_GATEWAY_TIMEOUT" envDefault:"10s"`

	ReconcileInterval    time.Duration `env:"RECONCILE_INTERVAL"     envDefault:"30s"`
	ReconcileWorkers     uint          `env:"RECONCILE_WORKERS"      envDefault:"5"`
	ReconcileBatch       uint          `env:"RECONCILE_BATCH"        envDefault:"50"`
	ReconcileMaxAttempts uint          `env:"RECONCILE_MAX_ATTEMPTS" envDefault:"20"`

	// RedisURL если не задан, лимит генерации считается в памяти процесса.
	RedisURL              string `env:"REDIS_URL"`
	GenerateRatePerMinute int    `env:"GENERATE_RATE_PER_MINUTE" envDefault:"10"`
	GenerateBurst         int    `env:"GENERATE_BURST"           envDefault:"3"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
}

// String не раскрывает секреты при логировании конфига.
func (c Config) String() string {
	masked := c
	masked.DatabaseDSN = mask(c.DatabaseDSN)
	masked.JWTUserSecret = mask(c.JWTUserSecret)
	masked.ImageAPIKey = mask(c.ImageAPIKey)
	masked.PaymentKeySecret = mask(c.PaymentKeySecret)
	masked.RedisURL = mask(c.RedisURL)
	type plain Config
	return fmt.Sprintf("%+v", plain(masked))
}

func LoadConfig() (*Config, error) {
	return load(os.Args[1:])
}

func MustLoadConfig() *Config {
	config, err := LoadConfig()
	if err != nil {
		panic(err)
	}
	return config
}

func load(args []string) (*Config, error) {
	var envConfig Config

	if envParseErr := env.Parse(&envConfig); envParseErr != nil {
		return nil, fmt.Errorf("parse env config: %s", envParseErr.Error())
	}

	flagsConfig, flagsErr := loadFlags(args)
	if flagsErr != nil {
		return nil, fmt.Errorf("parse flags: %s", flagsErr.Error())
	}

	conf := mergeConfig(&envConfig, flagsConfig)
	if err := conf.validate(); err != nil {
		return nil, err
	}
	return conf, nil
}

func loadFlags(args []string) (*Config, error) {
	var flagConfig Config

	fs := flag.NewFlagSet("imagify", flag.ContinueOnError)
	fs.StringVar(&flagConfig.RunAddress, "a", "localhost:8080", "Run address in format host:port")
	fs.StringVar(&flagConfig.DatabaseDSN, "d", "", "Database DSN")
	fs.StringVar(&flagConfig.MigrationsDir, "m", "internal/db/migrations", "Database migrations directory")
	fs.StringVar(&flagConfig.JWTUserSecret, "j", "", "JWT secret key")

	if err := fs.Parse(args); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &flagConfig, nil
}

// mergeConfig значения из окружения приоритетнее флагов.
func mergeConfig(envConfig, flagsConfig *Config) *Config {
	conf := *envConfig
	conf.RunAddress = defaultIfBlank(envConfig.RunAddress, flagsConfig.RunAddress)
	conf.DatabaseDSN = defaultIfBlank(envConfig.DatabaseDSN, flagsConfig.DatabaseDSN)
	conf.MigrationsDir = defaultIfBlank(envConfig.MigrationsDir, flagsConfig.MigrationsDir)
	conf.JWTUserSecret = defaultIfBlank(envConfig.JWTUserSecret, flagsConfig.JWTUserSecret)
	return &conf
}

func (c *Config) validate() error {
	var errs []error
	required := []struct {
		name  string
		value string
	}{
		{"database DSN", c.DatabaseDSN},
		{"JWT secret", c.JWTUserSecret},
		{"image API key", c.ImageAPIKey},
		{"payment key id", c.PaymentKeyID},
		{"payment key secret", c.PaymentKeySecret},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errs = append(errs, fmt.Errorf("%s is not set", r.name))
		}
	}
	if c.SignupCredits < 0 {
		errs = append(errs, errors.New("signup credits must not be negative"))
	}
	if c.PasswordCost < bcrypt.MinCost || c.PasswordCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("password cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost))
	}
	if c.ReconcileWorkers == 0 {
		errs = append(errs, errors.New("reconcile workers must be positive"))
	}
	return errors.Join(errs...)
}

func defaultIfBlank(value string, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

func mask(value string) string {
	if value == "" {
		return ""
	}
	return "***"
}
