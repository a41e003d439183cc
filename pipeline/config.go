package pipeline

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	ProxyURL     string
	APIKey       string
	TargetURL    string
	RenderJS     bool
	RateCalls    int
	RateWindow   time.Duration
	RetryTimes   int
	RetryWait    time.Duration
	FetchTimeout time.Duration
}

func LoadConfig() Config {
	loadDotEnv()

	return Config{
		ProxyURL:     getEnv("PROXY_URL", "https://proxy.scrapeops.io/v1/"),
		APIKey:       getEnv("SCRAPEOPS_API_KEY", ""),
		TargetURL:    getEnv("TARGET_URL", "https://kick.com/stream/featured-livestreams/en"),
		RenderJS:     getEnvBool("RENDER_JS", true),
		RateCalls:    getEnvInt("RATE_LIMIT_CALLS", 10),
		RateWindow:   getEnvDuration("RATE_LIMIT_WINDOW", 60*time.Second),
		RetryTimes:   getEnvInt("RETRY_TIMES", 3),
		RetryWait:    getEnvDuration("RETRY_WAIT", 5*time.Second),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 10*time.Second),
	}
}

func loadDotEnv() {
	for _, path := range []string{".env", "../.env"} {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			k, v, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			if _, exists := os.LookupEnv(strings.TrimSpace(k)); !exists {
				os.Setenv(strings.TrimSpace(k), strings.TrimSpace(v))
			}
		}
		f.Close()
		return
	}
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
