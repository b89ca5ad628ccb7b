package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/yaron8/dashboard-feed/generator/feed"
	"github.com/yaron8/dashboard-feed/logi"
)

// EnvPrefix prefixes every environment override, e.g. DASHFEED_FEED_PROFILE.
const EnvPrefix = "DASHFEED"

type Config struct {
	Port  int         `mapstructure:"port"` // 0 disables the ops listener
	Feed  FeedConfig  `mapstructure:"feed"`
	Log   LogConfig   `mapstructure:"log"`
	Redis RedisConfig `mapstructure:"redis"`
}

type FeedConfig struct {
	MetricsInterval      time.Duration `mapstructure:"metrics_interval"`
	ConnectivityInterval time.Duration `mapstructure:"connectivity_interval"`
	ConnectProbability   float64       `mapstructure:"connect_probability"`
	Profile              string        `mapstructure:"profile"`
	Seed                 uint64        `mapstructure:"seed"` // 0 picks a random seed
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Dir    string `mapstructure:"dir"`
	File   string `mapstructure:"file"`
	Stdout bool   `mapstructure:"stdout"`
}

type RedisConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Host    string        `mapstructure:"host"`
	Port    int           `mapstructure:"port"`
	Key     string        `mapstructure:"key"`
	Channel string        `mapstructure:"channel"`
	TTL     time.Duration `mapstructure:"ttl"`
}

func NewConfig() *Config {
	return &Config{
		Port: 9001,
		Feed: FeedConfig{
			MetricsInterval:      feed.DefaultMetricsInterval,
			ConnectivityInterval: feed.DefaultConnectivityInterval,
			ConnectProbability:   feed.DefaultConnectProbability,
			Profile:              feed.ProfileDashboard,
		},
		Log: LogConfig{
			Level: "info",
			File:  "app.log",
		},
		Redis: RedisConfig{
			Host:    "localhost",
			Port:    6379,
			Key:     "dashboard:snapshot",
			Channel: "dashboard:updates",
			TTL:     30 * time.Second,
		},
	}
}

// Load builds the config from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty configFile
// searches for config.yaml in the working directory and ./config; a missing
// file is not an error in that case.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v, NewConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("port", d.Port)

	v.SetDefault("feed.metrics_interval", d.Feed.MetricsInterval)
	v.SetDefault("feed.connectivity_interval", d.Feed.ConnectivityInterval)
	v.SetDefault("feed.connect_probability", d.Feed.ConnectProbability)
	v.SetDefault("feed.profile", d.Feed.Profile)
	v.SetDefault("feed.seed", d.Feed.Seed)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.dir", d.Log.Dir)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.stdout", d.Log.Stdout)

	v.SetDefault("redis.enabled", d.Redis.Enabled)
	v.SetDefault("redis.host", d.Redis.Host)
	v.SetDefault("redis.port", d.Redis.Port)
	v.SetDefault("redis.key", d.Redis.Key)
	v.SetDefault("redis.channel", d.Redis.Channel)
	v.SetDefault("redis.ttl", d.Redis.TTL)
}

func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config: port %d out of range", c.Port)
	}
	if c.Feed.MetricsInterval <= 0 {
		return errors.New("config: feed.metrics_interval must be positive")
	}
	if c.Feed.ConnectivityInterval <= 0 {
		return errors.New("config: feed.connectivity_interval must be positive")
	}
	if c.Feed.ConnectProbability < 0 || c.Feed.ConnectProbability > 1 {
		return errors.New("config: feed.connect_probability must be between 0 and 1")
	}
	if _, err := feed.ProfileByName(c.Feed.Profile); err != nil {
		return fmt.Errorf("config: feed.profile: %w", err)
	}
	if _, err := logi.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("config: log.level: %w", err)
	}

	if c.Redis.Enabled {
		if c.Redis.Host == "" {
			return errors.New("config: redis.host must be set when redis is enabled")
		}
		if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
			return fmt.Errorf("config: redis.port %d out of range", c.Redis.Port)
		}
		if c.Redis.Key == "" {
			return errors.New("config: redis.key must be set when redis is enabled")
		}
		if c.Redis.TTL < 0 {
			return errors.New("config: redis.ttl must not be negative")
		}
	}

	return nil
}

func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}
