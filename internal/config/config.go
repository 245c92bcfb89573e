package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config carries every policy knob. The lifetime constants are policy,
// not mechanism; the defaults below are the compatibility baseline.
type Config struct {
	Mode       string `mapstructure:"mode"`
	Port       int    `mapstructure:"port"`
	StaticPath string `mapstructure:"static_path"`

	Store     string `mapstructure:"store"`
	RedisAddr string `mapstructure:"redis_addr"`
	RedisDB   int    `mapstructure:"redis_db"`

	RoomTTL           time.Duration `mapstructure:"room_ttl"`
	MemberInactivity  time.Duration `mapstructure:"member_inactivity"`
	EmptyRoomGrace    time.Duration `mapstructure:"empty_room_grace"`
	ReapInterval      time.Duration `mapstructure:"reap_interval"`
	KeepaliveInterval time.Duration `mapstructure:"keepalive_interval"`

	RateLimit float64 `mapstructure:"rate_limit"`
	RateBurst int     `mapstructure:"rate_burst"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("store", "redis")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("room_ttl", "2h")
	v.SetDefault("member_inactivity", "5m")
	v.SetDefault("empty_room_grace", "5m")
	v.SetDefault("reap_interval", "60s")
	v.SetDefault("keepalive_interval", "30s")
	v.SetDefault("rate_limit", 20)
	v.SetDefault("rate_burst", 40)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
