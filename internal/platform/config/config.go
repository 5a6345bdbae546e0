package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration. Storage and lock backends are
// selected by which URLs are present: no DATABASE_URL means in-memory stores,
// no REDIS_URL means the lock falls back to postgres advisory locks (or
// in-process when storage is in-memory too).
type Server struct {
	Addr         string
	DatabaseURL  string
	RedisURL     string
	KafkaBrokers []string
	AuditTopic   string

	JobLockTTL      time.Duration
	ShutdownTimeout time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	addr := os.Getenv("CADLINK_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	topic := os.Getenv("CADLINK_AUDIT_TOPIC")
	if topic == "" {
		topic = "cadlink.audit"
	}

	var brokers []string
	if raw := os.Getenv("CADLINK_KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Server{
		Addr:            addr,
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        os.Getenv("REDIS_URL"),
		KafkaBrokers:    brokers,
		AuditTopic:      topic,
		JobLockTTL:      durationEnv("CADLINK_JOB_LOCK_TTL", 10*time.Minute),
		ShutdownTimeout: durationEnv("CADLINK_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func durationEnv(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
