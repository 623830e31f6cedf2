package config

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var once sync.Once
var logger *zap.SugaredLogger
var loggerOnce sync.Once

// isTestRun returns true if the current process is a Go test binary.
func isTestRun() bool {
	return flag.Lookup("test.v") != nil || filepath.Ext(os.Args[0]) == ".test"
}

func initConfig() {
	once.Do(func() {
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		root, err := getProjectRoot()
		if err != nil {
			GetLogger().Errorw("Error finding project root", "error", err)
		}
		viper.SetConfigType("yaml")

		viper.SetConfigName("config")
		viper.AddConfigPath(root)
		if err = viper.ReadInConfig(); err != nil {
			GetLogger().Errorw("Error reading config file", "error", err)
		}

		if isTestRun() {
			viper.SetConfigName("config_test")
			viper.AddConfigPath(root)
			if err = viper.MergeInConfig(); err != nil {
				GetLogger().Errorw("Error merging test config file", "error", err)
			}
		}
	})
}

func getProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", os.ErrNotExist
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	initConfig()
	durStr := viper.GetString(key)
	if durStr == "" {
		return def
	}
	dur, err := time.ParseDuration(durStr)
	if err != nil {
		return def
	}
	return dur
}

func GetOpenWeatherApiUrl() string {
	initConfig()
	url := viper.GetString("openweathermap.api_url")
	if url == "" {
		url = "http://api.openweathermap.org/data/2.5/weather"
	}
	return url
}

func GetOpenWeatherUnits() string {
	initConfig()
	units := viper.GetString("openweathermap.units")
	if units == "" {
		units = "metric"
	}
	return units
}

// GetOpenWeatherMapAPIKey reads the key from the environment, loading .env first.
// OW_API_KEY wins over OPENWEATHERMAP_API_KEY.
func GetOpenWeatherMapAPIKey() string {
	_ = godotenv.Load()
	if key := os.Getenv("OW_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("OPENWEATHERMAP_API_KEY")
}

func GetISSApiUrl() string {
	initConfig()
	url := viper.GetString("iss.api_url")
	if url == "" {
		url = "http://api.open-notify.org/iss-now.json"
	}
	return url
}

func GetISSCacheTTL() time.Duration {
	return durationOrDefault("iss.cache_ttl", 5*time.Second)
}

// GetISSTLE returns the two-line element set used when the ISS API is down.
// Both lines are empty when no fallback is configured.
func GetISSTLE() (line1, line2 string) {
	initConfig()
	return strings.TrimSpace(viper.GetString("iss.tle_line1")), strings.TrimSpace(viper.GetString("iss.tle_line2"))
}

func GetSunApiUrl() string {
	initConfig()
	url := viper.GetString("sun.api_url")
	if url == "" {
		url = "https://api.sunrise-sunset.org/json"
	}
	return url
}

func GetSunCacheTTL() time.Duration {
	return durationOrDefault("sun.cache_ttl", 6*time.Hour)
}

// GetDefaultLocation returns the observer position used until a visitor reports one.
func GetDefaultLocation() (lat, lon float64) {
	initConfig()
	return viper.GetFloat64("location.latitude"), viper.GetFloat64("location.longitude")
}

// GetTimezone returns the zone sunrise/sunset hours and the night check are evaluated in.
// Falls back to UTC when the configured name cannot be loaded.
func GetTimezone() *time.Location {
	initConfig()
	name := viper.GetString("location.timezone")
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		GetLogger().Warnw("Unknown timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

// GetOverheadTolerance returns the half-width in degrees of the overhead box. Defaults to 5.
func GetOverheadTolerance() float64 {
	initConfig()
	tol := viper.GetFloat64("advisor.overhead_tolerance")
	if tol <= 0 {
		tol = 5
	}
	return tol
}

func GetRedisAddr() string {
	initConfig()
	addr := viper.GetString("redis.addr")
	if addr == "" {
		addr = "localhost:6379"
	}
	return addr
}

func GetServerPort() string {
	initConfig()
	serverPort := viper.GetString("server.port")
	if serverPort == "" {
		serverPort = "8080"
	}
	return serverPort
}

// GetCacheExpirationDuration parses cache.expiration, defaulting to 10m.
func GetCacheExpirationDuration() time.Duration {
	return durationOrDefault("cache.expiration", 10*time.Minute)
}

// GetServerTimeoutDuration parses server.<key> and falls back to def.
func GetServerTimeoutDuration(key string, def time.Duration) time.Duration {
	return durationOrDefault("server."+key, def)
}

// GetTestRedisMockPort is the address the integration suite's miniredis listens on.
func GetTestRedisMockPort() string {
	initConfig()
	return viper.GetString("test.redis_mock_port")
}

// ReloadConfigForTest resets the config singleton and reloads Viper config. Use only in tests.
func ReloadConfigForTest() {
	once = sync.Once{}
	initConfig()
}

func GetLogger() *zap.SugaredLogger {
	loggerOnce.Do(func() {
		l, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		logger = l.Sugar()
	})
	return logger
}

// GetRateLimiterCleanupTimeout returns the rate limiter cleanup timeout as a time.Duration.
// Defaults to 3m if not set or invalid.
func GetRateLimiterCleanupTimeout() time.Duration {
	return durationOrDefault("rate_limiter.cleanup_timeout", 3*time.Minute)
}

// GetGlobalRateLimiterConfig returns requests per minute and burst for the per-IP limiter.
func GetGlobalRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.global.rate")
	if rate == 0 {
		rate = 60
	}
	burst = viper.GetInt("rate_limiter.global.burst")
	if burst == 0 {
		burst = 60
	}
	return
}

// GetRouteRateLimiterConfig returns requests per minute and burst for the per-IP, per-route limiter.
func GetRouteRateLimiterConfig() (rate float64, burst int) {
	initConfig()
	rate = viper.GetFloat64("rate_limiter.route.rate")
	if rate == 0 {
		rate = 30
	}
	burst = viper.GetInt("rate_limiter.route.burst")
	if burst == 0 {
		burst = 10
	}
	return
}

// GetTrustedProxies returns the peer IPs allowed to set X-Forwarded-For.
func GetTrustedProxies() []string {
	initConfig()
	return viper.GetStringSlice("rate_limiter.trusted_proxies")
}
