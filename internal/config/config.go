package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/pion/webrtc/v3"
)

type Config struct {
	Env      string         `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig     `yaml:"http"`
	WS       WSConfig       `yaml:"ws"`
	Auth     AuthConfig     `yaml:"auth"`
	Database DatabaseConfig `yaml:"database"`
	Storage  StorageConfig  `yaml:"storage"`
	Chat     ChatConfig     `yaml:"chat"`
	WebRTC   WebRTCConfig   `yaml:"webrtc"`
}

type HTTPConfig struct {
	Address         string        `yaml:"address" env:"HTTP_ADDRESS"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:","`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env-default:"10s"`
}

type WSConfig struct {
	ReadLimit  int64         `yaml:"read_limit" env-default:"65536"`
	SendBuffer int           `yaml:"send_buffer" env-default:"64"`
	WriteWait  time.Duration `yaml:"write_wait" env-default:"10s"`
	PongWait   time.Duration `yaml:"pong_wait" env-default:"60s"`
	PingPeriod time.Duration `yaml:"ping_period" env-default:"54s"`
}

type AuthConfig struct {
	Secret     string `yaml:"secret" env:"ACCESS_TOKEN_SECRET"`
	CookieName string `yaml:"cookie_name" env-default:"accessToken"`
	Issuer     string `yaml:"issuer" env:"ACCESS_TOKEN_ISSUER"`
}

type DatabaseConfig struct {
	DSN             string        `yaml:"dsn" env:"DATABASE_DSN"`
	MaxIdleConns    int           `yaml:"max_idle_conns" env-default:"10"`
	MaxOpenConns    int           `yaml:"max_open_conns" env-default:"25"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" env-default:"30m"`
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
	DriverBadger   = "badger"
)

type StorageConfig struct {
	Driver      string        `yaml:"driver" env:"STORAGE_DRIVER" env-default:"memory"`
	Messages    string        `yaml:"messages" env:"STORAGE_MESSAGES"`
	BadgerPath  string        `yaml:"badger_path" env:"BADGER_PATH" env-default:"data/messages"`
	TaskTimeout time.Duration `yaml:"task_timeout" env-default:"0s"`
	Seed        []SeedMeeting `yaml:"seed"`
}

// SeedMeeting is created at startup by the memory driver. Meetings are otherwise
// managed by the meetings API.
type SeedMeeting struct {
	ID     string `yaml:"id"`
	HostID string `yaml:"host_id"`
	Title  string `yaml:"title"`
}

type ChatConfig struct {
	HistoryLimit     int `yaml:"history_limit" env-default:"50"`
	MaxMessageLength int `yaml:"max_message_length" env-default:"4000"`
}

type WebRTCConfig struct {
	STUNServers []string `yaml:"stun_servers"`
}

// ICEServers is the hint handed to clients on join.
func (c WebRTCConfig) ICEServers() []webrtc.ICEServer {
	if len(c.STUNServers) == 0 {
		return nil
	}
	return []webrtc.ICEServer{{URLs: c.STUNServers}}
}

func MustLoad() *Config {
	configPath := fetchConfigPath()
	if configPath == "" {
		panic("config path is empty")
	}

	return MustLoadPath(configPath)
}

func MustLoadPath(configPath string) *Config {
	cfg, err := LoadPath(configPath)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func LoadPath(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, &os.PathError{Op: "config file does not exist", Path: configPath, Err: err}
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	cfg.setDefaults()

	return &cfg, nil
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = "config/local.yaml"
	}

	return res
}

func (c *Config) setDefaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.Storage.Messages == "" {
		c.Storage.Messages = c.Storage.Driver
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = "accessToken"
	}
	if c.Chat.HistoryLimit <= 0 {
		c.Chat.HistoryLimit = 50
	}
	if c.Chat.MaxMessageLength <= 0 {
		c.Chat.MaxMessageLength = 4000
	}
	if len(c.WebRTC.STUNServers) == 0 {
		c.WebRTC.STUNServers = []string{"stun:stun.l.google.com:19302"}
	}
}
