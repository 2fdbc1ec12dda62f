package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type DremioCfg struct {
	Server     string
	AuthServer string
	Username   string
	Password   string
	Timeout    time.Duration
}

type ResultCacheCfg struct {
	Enabled   bool
	RedisAddr string
	TTL       time.Duration
	OpTimeout time.Duration
}

type MetricsCfg struct {
	Enabled bool
	Addr    string
	Path    string
}

type Config struct {
	Addr         string
	BaseURL      string
	LogLevel     string
	LogConsole   bool
	Dremio       DremioCfg
	ResultCache  ResultCacheCfg
	Metrics      MetricsCfg
	CoordCacheSz int
}

func FromEnv() Config {
	return Config{
		Addr:       getenv("ADDR", ":8000"),
		BaseURL:    strings.TrimRight(getenv("BASE_URL", "http://localhost:8000"), "/"),
		LogLevel:   getenv("LOG_LEVEL", "info"),
		LogConsole: getbool("LOG_CONSOLE", false),
		Dremio: DremioCfg{
			Server:     getenv("DREMIO_SERVER", "http://localhost:9047"),
			AuthServer: getenv("DREMIO_SERVER_AUTH", getenv("DREMIO_SERVER", "http://localhost:9047")),
			Username:   getenv("DREMIO_USERNAME", ""),
			Password:   getenv("DREMIO_PASSWORD", ""),
			Timeout:    getduration("DREMIO_TIMEOUT", 60*time.Second),
		},
		ResultCache: ResultCacheCfg{
			Enabled:   getbool("RESULT_CACHE_ENABLED", false),
			RedisAddr: getenv("REDIS_ADDR", "localhost:6379"),
			TTL:       getduration("RESULT_CACHE_TTL", 5*time.Minute),
			OpTimeout: getduration("RESULT_CACHE_OP_TIMEOUT", 250*time.Millisecond),
		},
		Metrics: MetricsCfg{
			Enabled: getbool("METRICS_ENABLED", false),
			Addr:    getenv("METRICS_ADDR", ":9090"),
			Path:    getenv("METRICS_PATH", "/metrics"),
		},
		CoordCacheSz: getint("COORD_CACHE_SIZE", 4096),
	}
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// plain integers are treated as milliseconds, matching the
		// DREMIO_TIMEOUT convention used by deployments
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Millisecond
		}
	}
	return def
}
