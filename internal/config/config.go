package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	AllowOrigins    []string
	LogstashTCPAddr string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOUseSSL    bool

	FeedBucket          string
	FeedIncomingPrefix  string
	FeedProcessedPrefix string
	FeedFailedPrefix    string
	AssetBucket         string

	PublicBaseURL string
	PollInterval  time.Duration

	DispatchTimeout   time.Duration
	DispatchSimulate  bool
	AutoDispatchDelay time.Duration
}

func Load() Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found: %v", err)
	}

	return Config{
		Port:            getenv("PORT", "8080"),
		DatabaseURL:     must("DATABASE_URL"),
		AllowOrigins:    splitAndTrim(getenv("ALLOW_ORIGINS", "*")),
		LogstashTCPAddr: getenv("LOGSTASH_TCP_ADDR", ""),

		MinIOEndpoint:  must("MINIO_ENDPOINT"),
		MinIOAccessKey: must("MINIO_ACCESS_KEY"),
		MinIOSecretKey: must("MINIO_SECRET_KEY"),
		MinIOUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		FeedBucket:          must("FEED_BUCKET"),
		FeedIncomingPrefix:  getenv("FEED_INCOMING_PREFIX", "incoming"),
		FeedProcessedPrefix: getenv("FEED_PROCESSED_PREFIX", "processed"),
		FeedFailedPrefix:    getenv("FEED_FAILED_PREFIX", "failed"),
		AssetBucket:         must("ASSET_BUCKET"),

		PublicBaseURL: strings.TrimRight(must("PUBLIC_BASE_URL"), "/"),
		PollInterval:  duration("POLL_INTERVAL", time.Minute),

		DispatchTimeout:   duration("DISPATCH_TIMEOUT", 30*time.Second),
		DispatchSimulate:  getenv("DISPATCH_SIMULATE", "false") == "true",
		AutoDispatchDelay: duration("AUTO_DISPATCH_DELAY", 0),
	}
}

func duration(k string, d time.Duration) time.Duration {
	raw := getenv(k, "")
	if raw == "" {
		return d
	}
	if v, err := time.ParseDuration(raw); err == nil {
		return v
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	log.Printf("Warning: could not parse %s=%q, using %s", k, raw, d)
	return d
}

func splitAndTrim(input string) []string {
	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func must(k string) string {
	v := os.Getenv(k)
	if v == "" {
		panic("missing env: " + k)
	}
	return v
}
