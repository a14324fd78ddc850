package config

import (
	"fmt"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	LogLevel   string  `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	HTTPPort   string  `yaml:"http-port" env:"HTTP_PORT" env-default:"9090"`
	SocketPort string  `yaml:"socket-port" env:"SOCKET_PORT" env-default:"7777"`
	Redis      Redis   `yaml:"redis"`
	Session    Session `yaml:"session"`
	Layout     Layout  `yaml:"layout"`
}

type Redis struct {
	Host string `yaml:"host" env:"REDIS_HOST" env-default:"localhost"`
	Port string `yaml:"port" env:"REDIS_PORT" env-default:"6379"`
}

type Session struct {
	// ThinkDelay is how long the computer waits before its move lands.
	ThinkDelay     time.Duration `yaml:"think-delay" env:"SESSION_THINK_DELAY" env-default:"1s"`
	SnapshotTTL    time.Duration `yaml:"snapshot-ttl" env:"SESSION_SNAPSHOT_TTL" env-default:"1h"`
	RandomPlayOdds int           `yaml:"random-play-odds" env:"SESSION_RANDOM_PLAY_ODDS" env-default:"5"`
}

type Layout struct {
	CellSize float64 `yaml:"cell-size" env:"LAYOUT_CELL_SIZE" env-default:"1"`
}

// MustLoad - load all configurations in config.yml file.
func MustLoad(path string) *Config {
	config, err := Load(path)
	if err != nil {
		panic(err)
	}

	return config
}

func Load(path string) (*Config, error) {
	config := &Config{}

	if err := cleanenv.ReadConfig(path, config); err != nil {
		return nil, fmt.Errorf("unable to load config file: %w", err)
	}

	return config, nil
}

func (that *Redis) GetRedisAddr() string {
	if that.Host == "" || that.Port == "" {
		return ""
	}

	return fmt.Sprintf("%s:%s", that.Host, that.Port)
}
