package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/km-arc/go-autowire/framework/validation"
)

// Config is the central typed configuration struct.
type Config struct {
	App       AppConfig
	Container ContainerConfig
}

type AppConfig struct {
	Name     string
	Env      string // local | production | testing
	Debug    bool
	Port     string
	LogLevel string // debug | info | warn | error
}

// ContainerConfig selects where the container keeps its dependency cache
// and which service manifest it applies at boot.
type ContainerConfig struct {
	CacheDriver string // memory | file | none
	CachePath   string
	CacheKey    string
	Manifest    string // path to a services YAML file, empty for none
}

// Load reads .env (if present) and populates a Config from environment variables.
// Call once at bootstrap: cfg := config.Load()
func Load(envFiles ...string) *Config {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}
	// Non-fatal: .env may not exist in production
	_ = godotenv.Load(files...)

	return &Config{
		App: AppConfig{
			Name:     env("APP_NAME", "Autowire"),
			Env:      env("APP_ENV", "local"),
			Debug:    envBool("APP_DEBUG", true),
			Port:     env("APP_PORT", "8000"),
			LogLevel: strings.ToLower(env("LOG_LEVEL", "info")),
		},
		Container: ContainerConfig{
			CacheDriver: strings.ToLower(env("CONTAINER_CACHE_DRIVER", "file")),
			CachePath:   env("CONTAINER_CACHE_PATH", "storage/cache/container.json"),
			CacheKey:    env("CONTAINER_CACHE_KEY", "container.dependencies"),
			Manifest:    env("CONTAINER_MANIFEST", ""),
		},
	}
}

// Validate checks the values an application cannot start with. The returned
// error is a *validation.Errors keyed by environment variable.
func (c *Config) Validate() error {
	rules := validation.Rules{
		"APP_ENV":                "nullable|alpha_dash",
		"APP_PORT":               "required|integer",
		"LOG_LEVEL":              "nullable|in:debug,info,warn,warning,error",
		"CONTAINER_CACHE_DRIVER": "nullable|in:none,memory,array,file",
	}
	if c.Container.CacheDriver == "file" {
		rules["CONTAINER_CACHE_PATH"] = "required"
		rules["CONTAINER_CACHE_KEY"] = "required"
	}
	return validation.Make(map[string]string{
		"APP_ENV":                c.App.Env,
		"APP_PORT":               c.App.Port,
		"LOG_LEVEL":              c.App.LogLevel,
		"CONTAINER_CACHE_DRIVER": c.Container.CacheDriver,
		"CONTAINER_CACHE_PATH":   c.Container.CachePath,
		"CONTAINER_CACHE_KEY":    c.Container.CacheKey,
	}, rules).Validate()
}

// Get returns a raw env value, falling back to defaultVal.
func Get(key, defaultVal string) string {
	return env(key, defaultVal)
}

// GetInt returns an int env value.
func GetInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool env value.
func GetBool(key string, defaultVal bool) bool {
	return envBool(key, defaultVal)
}

// ── helpers ─────────────────────────────────────────────────────────────────

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
