package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr        string
	CRDBDSN         string
	MongoURI        string
	RedisAddr       string
	RabbitURL       string
	AdminToken      string
	ContributionKey string
	StoreTimeout    time.Duration
	RefreshInterval time.Duration
	OTLPEndpoint    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	storeTimeout, _ := time.ParseDuration(os.Getenv("STORE_TIMEOUT"))
	if storeTimeout == 0 {
		storeTimeout = 5 * time.Second
	}
	refresh, _ := time.ParseDuration(os.Getenv("AGGREGATE_REFRESH_INTERVAL"))
	if refresh == 0 {
		refresh = 30 * time.Second
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	return &Config{
		HTTPAddr:        addr,
		CRDBDSN:         os.Getenv("CRDB_DSN"),
		MongoURI:        os.Getenv("MONGO_URI"),
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		RabbitURL:       os.Getenv("RABBIT_URL"),
		AdminToken:      os.Getenv("ADMIN_TOKEN"),
		ContributionKey: os.Getenv("CONTRIBUTION_KEY"),
		StoreTimeout:    storeTimeout,
		RefreshInterval: refresh,
		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
	}, nil
}
