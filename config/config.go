package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const keyEnv = "ENV"
const envLocal = "local"

const (
	defaultPort              = "8080"
	defaultBlogPath          = "content/blog"
	defaultProjectsPath      = "content/projects"
	defaultCacheTTL          = 5 * time.Minute
	defaultCacheRetryBackoff = 10 * time.Second
	defaultSearchCacheSize   = 256
	defaultSearchRateLimit   = 20.0
	defaultSearchRateBurst   = 40
	defaultLogLevel          = "info"
)

type Config struct {
	config *viper.Viper
}

func Load(env string) (*Config, error) {

	if len(env) == 0 {
		if env = os.Getenv(keyEnv); len(env) == 0 {
			env = envLocal
		}
	}

	configPath, err := getConfigPath(env)

	viperConfig := viper.New()
	setDefaults(viperConfig)
	if err == nil {
		viperConfig.SetConfigFile(configPath)
		if err := viperConfig.ReadInConfig(); err != nil {
			slog.Warn(fmt.Sprintf("error reading config file, %s", err))
		}
	}
	viperConfig.AutomaticEnv()

	cfg := &Config{
		config: viperConfig,
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", defaultPort)
	v.SetDefault("server.search_rate_limit", defaultSearchRateLimit)
	v.SetDefault("server.search_rate_burst", defaultSearchRateBurst)
	v.SetDefault("content.blog_path", defaultBlogPath)
	v.SetDefault("content.projects_path", defaultProjectsPath)
	v.SetDefault("cache.ttl", defaultCacheTTL)
	v.SetDefault("cache.retry_backoff", defaultCacheRetryBackoff)
	v.SetDefault("cache.watch", false)
	v.SetDefault("search.result_cache_size", defaultSearchCacheSize)
	v.SetDefault("log.level", defaultLogLevel)
}

func (c *Config) GetPort() string {
	port := c.config.GetString("PORT")
	if len(port) == 0 {
		port = c.config.GetString("server.port")
	}

	return port
}

func (c *Config) GetBlogPath() string {
	blogPath := c.config.GetString("BLOG_PATH")
	if len(blogPath) == 0 {
		blogPath = c.config.GetString("content.blog_path")
	}

	return blogPath
}

func (c *Config) GetProjectsPath() string {
	projectsPath := c.config.GetString("PROJECTS_PATH")
	if len(projectsPath) == 0 {
		projectsPath = c.config.GetString("content.projects_path")
	}

	return projectsPath
}

// GetCacheTTL is the lifetime of a loaded corpus snapshot.
func (c *Config) GetCacheTTL() time.Duration {
	if c.config.IsSet("CACHE_TTL") {
		if ttl := c.config.GetDuration("CACHE_TTL"); ttl > 0 {
			return ttl
		}
	}
	if ttl := c.config.GetDuration("cache.ttl"); ttl > 0 {
		return ttl
	}

	return defaultCacheTTL
}

func (c *Config) GetCacheRetryBackoff() time.Duration {
	if c.config.IsSet("CACHE_RETRY_BACKOFF") {
		return c.config.GetDuration("CACHE_RETRY_BACKOFF")
	}

	return c.config.GetDuration("cache.retry_backoff")
}

func (c *Config) GetWatchEnabled() bool {
	if c.config.IsSet("CACHE_WATCH") {
		return c.config.GetBool("CACHE_WATCH")
	}

	return c.config.GetBool("cache.watch")
}

func (c *Config) GetSearchCacheSize() int {
	size := c.config.GetInt("SEARCH_CACHE_SIZE")
	if size <= 0 {
		size = c.config.GetInt("search.result_cache_size")
	}
	if size <= 0 {
		size = defaultSearchCacheSize
	}

	return size
}

// GetSearchRateLimit returns the allowed search requests per second and the burst size.
func (c *Config) GetSearchRateLimit() (float64, int) {
	limit := c.config.GetFloat64("SEARCH_RATE_LIMIT")
	if limit <= 0 {
		limit = c.config.GetFloat64("server.search_rate_limit")
	}
	burst := c.config.GetInt("SEARCH_RATE_BURST")
	if burst <= 0 {
		burst = c.config.GetInt("server.search_rate_burst")
	}

	return limit, burst
}

func (c *Config) GetLogLevel() string {
	level := c.config.GetString("LOG_LEVEL")
	if len(level) == 0 {
		level = c.config.GetString("log.level")
	}

	return level
}

func getProjectRoot() (string, error) {
	currentDir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %w", err)
	}

	for {
		configDir := filepath.Join(currentDir, "config")
		if info, err := os.Stat(configDir); err == nil && info.IsDir() {
			return currentDir, nil
		}

		parent := filepath.Dir(currentDir)

		if parent == currentDir {
			break
		}

		currentDir = parent
	}

	return "", fmt.Errorf("could not find project root (directory containing 'config' folder)")
}

func getConfigPath(env string) (string, error) {
	configFile := fmt.Sprintf("config.%s.yaml", env)

	projectRoot, err := getProjectRoot()
	if err != nil {
		slog.Warn("failed to find project root with config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("failed to find project root: %w", err)
	}
	configPath := filepath.Join(projectRoot, "config", configFile)
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		slog.Warn("failed to find config file within config directory, will use environment variables instead", "err", err.Error())
		return "", fmt.Errorf("config file does not exist: %s", configPath)
	}

	return configPath, nil
}
