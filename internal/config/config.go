package config

import (
	"os"
	"strings"
	"sync"
	"time"
)

const DefaultAPIBaseURL = "https://api.artifactsmmo.com"

type Config struct {
	APIBaseURL   string
	APIToken     string
	Account      string
	LogLevel     string
	LocalHost    string
	LocalPort    int
	TickInterval time.Duration
	HTTPTimeout  time.Duration
	// DBPath is empty when the default location under the config dir applies.
	DBPath string
}

var (
	cacheTTL         = 10 * time.Second
	nowFunc          = time.Now
	cacheMu          sync.RWMutex
	cachedCfg        Config
	cachedAt         time.Time
	cacheValid       bool
	defaultLocalPort = "4680"
)

func LoadConfig() Config {
	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = nowFunc()
	cacheValid = true
	cacheMu.Unlock()
	return cfg
}

func GetConfig() *Config {
	now := nowFunc()
	cacheMu.RLock()
	valid := cacheValid && now.Sub(cachedAt) < cacheTTL
	if valid {
		out := cachedCfg
		cacheMu.RUnlock()
		return &out
	}
	cacheMu.RUnlock()

	cfg := loadFromEnv()
	cacheMu.Lock()
	cachedCfg = cfg
	cachedAt = now
	cacheValid = true
	cacheMu.Unlock()

	out := cfg
	return &out
}

func loadFromEnv() Config {
	base := strings.TrimRight(strings.TrimSpace(os.Getenv("ARTIQ_API_BASE_URL")), "/")
	if base == "" {
		base = DefaultAPIBaseURL
	}

	level := os.Getenv("ARTIQ_LOG_LEVEL")
	if level == "" {
		level = "info"
	}

	localHost := os.Getenv("ARTIQ_LOCAL_HOST")
	if localHost == "" {
		localHost = "127.0.0.1"
	}
	localPort := atoiOrDefault(defaultLocalPort, 4680)
	if p := os.Getenv("ARTIQ_LOCAL_PORT"); p != "" {
		localPort = atoiOrDefault(p, localPort)
	}

	tickMS := atoiOrDefault(os.Getenv("ARTIQ_TICK_MS"), 100)
	timeoutMS := atoiOrDefault(os.Getenv("ARTIQ_HTTP_TIMEOUT_MS"), 15000)

	return Config{
		APIBaseURL:   base,
		APIToken:     strings.TrimSpace(os.Getenv("ARTIQ_API_TOKEN")),
		Account:      strings.TrimSpace(os.Getenv("ARTIQ_ACCOUNT")),
		LogLevel:     level,
		LocalHost:    localHost,
		LocalPort:    localPort,
		TickInterval: time.Duration(tickMS) * time.Millisecond,
		HTTPTimeout:  time.Duration(timeoutMS) * time.Millisecond,
		DBPath:       strings.TrimSpace(os.Getenv("ARTIQ_DB_PATH")),
	}
}

func atoiOrDefault(v string, fallback int) int {
	n := 0
	for i := 0; i < len(v); i++ {
		if v[i] < '0' || v[i] > '9' {
			return fallback
		}
		n = n*10 + int(v[i]-'0')
	}
	if n == 0 {
		return fallback
	}
	return n
}
