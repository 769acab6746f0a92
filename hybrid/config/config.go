package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/furiousofnight/hybrid-ide/hybrid"
)

// AppConfig is the loaded application configuration.
var AppConfig *Config

// Config is the root configuration for the assistant.
type Config struct {
	Log    LogConfig    `mapstructure:"log"`
	Models ModelsConfig `mapstructure:"models"`
	Engine EngineConfig `mapstructure:"engine"`
	Cache  CacheConfig  `mapstructure:"cache"`
	State  StateConfig  `mapstructure:"state"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// ModelsConfig describes the two local GGUF models the engine routes between.
type ModelsConfig struct {
	Chat ModelConfig `mapstructure:"chat"`
	Code ModelConfig `mapstructure:"code"`
}

type ModelConfig struct {
	Path             string `mapstructure:"path"`
	ContextSize      int    `mapstructure:"context_size"`
	MaxTokens        int    `mapstructure:"max_tokens"`
	MinTokens        int    `mapstructure:"min_tokens"`
	GPULayers        int    `mapstructure:"gpu_layers"`
	Threads          int    `mapstructure:"threads"`
	PoolSize         int    `mapstructure:"pool_size"`
	BorrowTimeoutMS  int    `mapstructure:"borrow_timeout_ms"`
	RequestTimeoutMS int    `mapstructure:"request_timeout_ms"`
	BreakerThreshold int    `mapstructure:"breaker_threshold"`
	BreakerCooldownS int    `mapstructure:"breaker_cooldown_s"`
}

type EngineConfig struct {
	MaxHistory int `mapstructure:"max_history"`
}

type CacheConfig struct {
	// Backend selects "memory" or "libsql".
	Backend    string `mapstructure:"backend"`
	Capacity   int    `mapstructure:"capacity"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	DSN        string `mapstructure:"dsn"`
}

type StateConfig struct {
	Dir        string `mapstructure:"dir"`
	File       string `mapstructure:"file"`
	HealthFile string `mapstructure:"health_file"`
	Watch      bool   `mapstructure:"watch"`
}

// LoadConfig reads configuration from the given directory (optional), the
// current directory, and the environment. Missing files are not an error;
// defaults cover every key.
func LoadConfig(configDir string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	}
	v.AddConfigPath(".")
	v.AddConfigPath(hybrid.DefaultConfigPath)

	v.SetEnvPrefix("HYBRID_IDE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	AppConfig = &cfg
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", true)

	v.SetDefault("models.chat.path", "models/chat.gguf")
	v.SetDefault("models.chat.context_size", 4096)
	v.SetDefault("models.chat.max_tokens", 3072)
	v.SetDefault("models.chat.min_tokens", 128)
	v.SetDefault("models.chat.gpu_layers", 0)
	v.SetDefault("models.chat.threads", 4)
	v.SetDefault("models.chat.pool_size", 1)
	v.SetDefault("models.chat.borrow_timeout_ms", 5000)
	v.SetDefault("models.chat.request_timeout_ms", 120000)
	v.SetDefault("models.chat.breaker_threshold", 3)
	v.SetDefault("models.chat.breaker_cooldown_s", 30)

	v.SetDefault("models.code.path", "models/code.gguf")
	v.SetDefault("models.code.context_size", 16384)
	v.SetDefault("models.code.max_tokens", 8192)
	v.SetDefault("models.code.min_tokens", 64)
	v.SetDefault("models.code.gpu_layers", 0)
	v.SetDefault("models.code.threads", 4)
	v.SetDefault("models.code.pool_size", 1)
	v.SetDefault("models.code.borrow_timeout_ms", 5000)
	v.SetDefault("models.code.request_timeout_ms", 300000)
	v.SetDefault("models.code.breaker_threshold", 3)
	v.SetDefault("models.code.breaker_cooldown_s", 30)

	v.SetDefault("engine.max_history", 10)

	v.SetDefault("cache.backend", "memory")
	v.SetDefault("cache.capacity", 50)
	v.SetDefault("cache.ttl_seconds", 86400)
	v.SetDefault("cache.dsn", hybrid.DefaultCacheDSN)

	v.SetDefault("state.dir", hybrid.DefaultStateDir)
	v.SetDefault("state.file", hybrid.DefaultStateFile)
	v.SetDefault("state.health_file", hybrid.DefaultHealthFile)
	v.SetDefault("state.watch", false)
}

// StatePath joins the state directory and file name.
func (c *Config) StatePath() string {
	return filepath.Join(c.State.Dir, c.State.File)
}

// HealthPath joins the state directory and the health snapshot file name.
func (c *Config) HealthPath() string {
	return filepath.Join(c.State.Dir, c.State.HealthFile)
}
