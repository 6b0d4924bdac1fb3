package config

import (
	"errors"
	"flag"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v8"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config interface {
	ServerAddress() string
	HMACKey() string
	DatabaseURI() string
	DefaultCurrency() string
	DefaultGateway() string
	FlutterwaveBaseURL() string
	FlutterwaveSecretKey() string
	FlutterwaveSecretHash() string
	PaymentRedirectURL() string
	PlatformFeePercent() decimal.Decimal
	PlatformFeeFlat() decimal.Decimal
	VerifyInterval() time.Duration
	KafkaBrokers() []string
	KafkaTopic() string
	RedisAddress() string
	CORSAllowedOrigins() []string
	LogLevel() string
}

type Builder struct {
	parameters *parameters
	arguments  []string
	dotEnv     []string
	err        error
}

type parameters struct {
	ServerAddress         string        `env:"RUN_ADDRESS"`
	HMACKey               string        `env:"HMAC_KEY"`
	DatabaseURI           string        `env:"DATABASE_URI"`
	DefaultCurrency       string        `env:"DEFAULT_CURRENCY"`
	DefaultGateway        string        `env:"DEFAULT_GATEWAY"`
	FlutterwaveBaseURL    string        `env:"FLUTTERWAVE_BASE_URL"`
	FlutterwaveSecretKey  string        `env:"FLUTTERWAVE_SECRET_KEY"`
	FlutterwaveSecretHash string        `env:"FLUTTERWAVE_SECRET_HASH"`
	PaymentRedirectURL    string        `env:"PAYMENT_REDIRECT_URL"`
	PlatformFeePercent    string        `env:"PLATFORM_FEE_PERCENT"`
	PlatformFeeFlat       string        `env:"PLATFORM_FEE_FLAT"`
	VerifyInterval        time.Duration `env:"VERIFY_INTERVAL"`
	KafkaBrokers          []string      `env:"KAFKA_BROKERS" envSeparator:","`
	KafkaTopic            string        `env:"KAFKA_TOPIC"`
	RedisAddress          string        `env:"REDIS_ADDR"`
	CORSAllowedOrigins    []string      `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	LogLevel              string        `env:"LOG_LEVEL"`
}

const (
	defaultServerAddress      = "localhost:8080"
	defaultCurrency           = "NGN"
	defaultGateway            = "flutterwave"
	defaultFlutterwaveBaseURL = "https://api.flutterwave.com"
	defaultPlatformFeePercent = "5"
	defaultPlatformFeeFlat    = "0"
	defaultVerifyInterval     = 30 * time.Second
	defaultKafkaTopic         = "wallet.settlements"
	defaultLogLevel           = "info"
)

func NewBuilder() *Builder {
	return &Builder{
		parameters: &parameters{
			ServerAddress:      defaultServerAddress,
			DefaultCurrency:    defaultCurrency,
			DefaultGateway:     defaultGateway,
			FlutterwaveBaseURL: defaultFlutterwaveBaseURL,
			PlatformFeePercent: defaultPlatformFeePercent,
			PlatformFeeFlat:    defaultPlatformFeeFlat,
			VerifyInterval:     defaultVerifyInterval,
			KafkaTopic:         defaultKafkaTopic,
			LogLevel:           defaultLogLevel,
		},
		arguments: os.Args[1:],
		dotEnv:    []string{".env"},
	}
}

func (b *Builder) SetDefaultServerAddress(addr string) *Builder {
	b.parameters.ServerAddress = addr

	return b
}

// LoadDotEnv загружает переменные окружения из .env файлов. Уже заданные
// переменные окружения не перезаписываются, отсутствующие файлы пропускаются.
func (b *Builder) LoadDotEnv() *Builder {
	if b.err != nil {
		return b
	}

	for _, file := range b.dotEnv {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			b.err = err

			return b
		}
	}

	return b
}

func (b *Builder) LoadEnv() *Builder {
	if b.err != nil {
		return b
	}

	b.err = env.Parse(b.parameters)

	return b
}

func (b *Builder) LoadFlags() *Builder {
	if b.err != nil {
		return b
	}

	set := flag.NewFlagSet("walletgate", flag.ContinueOnError)
	set.StringVar(&b.parameters.ServerAddress, "a", b.parameters.ServerAddress, "адрес и порт запуска HTTP-сервера")
	set.StringVar(&b.parameters.DatabaseURI, "d", b.parameters.DatabaseURI, "адрес подключения к PostgreSQL")
	set.StringVar(&b.parameters.FlutterwaveBaseURL, "f", b.parameters.FlutterwaveBaseURL, "адрес API Flutterwave")
	set.StringVar(&b.parameters.LogLevel, "l", b.parameters.LogLevel, "уровень логирования")
	b.err = set.Parse(b.arguments)

	return b
}

func (b *Builder) Build() (Config, error) {
	if b.err != nil {
		return nil, b.err
	}

	if _, err := decimal.NewFromString(b.parameters.PlatformFeePercent); err != nil {
		return nil, err
	}

	if _, err := decimal.NewFromString(b.parameters.PlatformFeeFlat); err != nil {
		return nil, err
	}

	return b, nil
}

func (b *Builder) ServerAddress() string {
	return b.parameters.ServerAddress
}

func (b *Builder) HMACKey() string {
	return b.parameters.HMACKey
}

func (b *Builder) DatabaseURI() string {
	return b.parameters.DatabaseURI
}

func (b *Builder) DefaultCurrency() string {
	return b.parameters.DefaultCurrency
}

func (b *Builder) DefaultGateway() string {
	return b.parameters.DefaultGateway
}

func (b *Builder) FlutterwaveBaseURL() string {
	return b.parameters.FlutterwaveBaseURL
}

func (b *Builder) FlutterwaveSecretKey() string {
	return b.parameters.FlutterwaveSecretKey
}

func (b *Builder) FlutterwaveSecretHash() string {
	return b.parameters.FlutterwaveSecretHash
}

func (b *Builder) PaymentRedirectURL() string {
	return b.parameters.PaymentRedirectURL
}

func (b *Builder) PlatformFeePercent() decimal.Decimal {
	return decimal.RequireFromString(b.parameters.PlatformFeePercent)
}

func (b *Builder) PlatformFeeFlat() decimal.Decimal {
	return decimal.RequireFromString(b.parameters.PlatformFeeFlat)
}

func (b *Builder) VerifyInterval() time.Duration {
	return b.parameters.VerifyInterval
}

func (b *Builder) KafkaBrokers() []string {
	return b.parameters.KafkaBrokers
}

func (b *Builder) KafkaTopic() string {
	return b.parameters.KafkaTopic
}

func (b *Builder) RedisAddress() string {
	return b.parameters.RedisAddress
}

func (b *Builder) CORSAllowedOrigins() []string {
	return b.parameters.CORSAllowedOrigins
}

func (b *Builder) LogLevel() string {
	return b.parameters.LogLevel
}
