package configuration

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"youtube-downloader/infrastructure/logger"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	RelayStream = "stream"
	RelayBuffer = "buffer"

	DefaultPort      = 5000
	DefaultHost      = "0.0.0.0"
	DefaultChunkSize = 32 << 10
)

type Config struct {
	App         App         `json:"app"`
	Extraction  Extraction  `json:"extraction"`
	Download    Download    `json:"download"`
	RedisClient RedisClient `json:"redisClient"`
	Logger      Logger      `json:"logger"`
}

type App struct {
	Host string `json:"host"`
	Port int    `json:"port"`
	// Mode is the gin mode: debug, release or test.
	Mode string `json:"mode"`
}

// Addr is the listen address, e.g. 0.0.0.0:5000
func (a App) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type Extraction struct {
	// Timeout bounds a metadata lookup; zero means no limit.
	Timeout time.Duration `json:"timeout"`
}

type Download struct {
	// Relay is "stream" (forward chunks as received) or "buffer" (read everything, then respond).
	Relay     string `json:"relay"`
	ChunkSize int    `json:"chunkSize"`
	// Timeout bounds a whole download including the relay; zero means no limit.
	Timeout            time.Duration `json:"timeout"`
	CancelOnDisconnect bool          `json:"cancelOnDisconnect"`
}

type RedisClient struct {
	Enabled  bool          `json:"enabled"`
	Host     string        `json:"host"`
	Port     string        `json:"port"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	DB       int           `json:"db"`
	TTL      time.Duration `json:"ttl"`
}

// Addr is the redis address in host:port form
func (r RedisClient) Addr() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

type Logger struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

// C is the process-wide configuration. main assigns it once at startup.
var C Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.host", DefaultHost)
	v.SetDefault("app.port", DefaultPort)
	v.SetDefault("app.mode", "release")
	v.SetDefault("extraction.timeout", time.Duration(0))
	v.SetDefault("download.relay", RelayStream)
	v.SetDefault("download.chunkSize", DefaultChunkSize)
	v.SetDefault("download.timeout", time.Duration(0))
	v.SetDefault("download.cancelOnDisconnect", true)
	v.SetDefault("redisClient.enabled", false)
	v.SetDefault("redisClient.host", "localhost")
	v.SetDefault("redisClient.port", "6379")
	v.SetDefault("redisClient.ttl", 10*time.Minute)
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
}

// LoadConfig reads config[-ENV].json, then applies environment and flag overrides.
// flags may be nil.
func LoadConfig(flags *pflag.FlagSet) Config {
	v := viper.New()
	setDefaults(v)

	name := getConfig()
	v.SetConfigName(name)
	v.SetConfigType("json")
	v.AddConfigPath(".")
	v.AddConfigPath("../")
	v.AddConfigPath("../../")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			logger.GetLogger().WithField("config", name).Info("Config file not found, using defaults")
		} else {
			logger.GetLogger().WithField("error", err).Error("Error reading config file")
		}
	} else {
		logger.GetLogger().WithField("config", v.ConfigFileUsed()).Info("Config set up successfully")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		logger.GetLogger().WithField("error", err).Error("Viper unable to decode into struct")
	}

	initApp(&c, flags)
	initDownload(&c)
	return c
}

func getConfig() string {
	name := "config"
	env := os.Getenv("ENV")
	if env != "" {
		name = fmt.Sprintf("%s-%s", name, env)
	}
	return name
}

func initApp(c *Config, flags *pflag.FlagSet) {
	// Port resolution order: --port flag -> APP_PORT -> PORT -> config -> default
	if v := os.Getenv("APP_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	} else if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.App.Port = p
		}
	}
	if flags != nil && flags.Changed("port") {
		if p, err := flags.GetInt("port"); err == nil {
			c.App.Port = p
		}
	}
	if c.App.Port <= 0 {
		c.App.Port = DefaultPort
	}
	if c.App.Host == "" {
		c.App.Host = DefaultHost
	}
	switch c.App.Mode {
	case "debug", "release", "test":
	default:
		logger.GetLogger().WithField("mode", c.App.Mode).Warn("Unknown app mode, using release")
		c.App.Mode = "release"
	}
}

func initDownload(c *Config) {
	switch c.Download.Relay {
	case RelayStream, RelayBuffer:
	default:
		logger.GetLogger().WithField("relay", c.Download.Relay).Warn("Unknown download relay, using stream")
		c.Download.Relay = RelayStream
	}
	if c.Download.ChunkSize <= 0 {
		c.Download.ChunkSize = DefaultChunkSize
	}
	if c.RedisClient.TTL <= 0 {
		c.RedisClient.TTL = 10 * time.Minute
	}
}

// Flags returns the command line flags understood by LoadConfig.
func Flags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("youtube-downloader", pflag.ContinueOnError)
	fs.IntP("port", "p", DefaultPort, "TCP port to listen to")
	return fs
}
