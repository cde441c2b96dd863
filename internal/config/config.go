package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/lox/tideline/internal/models"
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix is prepended to environment overrides, e.g. TIDELINE_STORMGLASS_API_KEY.
const EnvPrefix = "TIDELINE"

type Config struct {
	DataDir    string           `mapstructure:"data_dir"`
	Timezone   string           `mapstructure:"timezone"`
	Days       int              `mapstructure:"days"`
	Spot       SpotConfig       `mapstructure:"spot"`
	Stormglass StormglassConfig `mapstructure:"stormglass"`
	Render     RenderConfig     `mapstructure:"render"`
	Display    DisplayConfig    `mapstructure:"display"`
	Store      StoreConfig      `mapstructure:"store"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	Log        LogConfig        `mapstructure:"log"`
	Schedule   ScheduleConfig   `mapstructure:"schedule"`
	Server     ServerConfig     `mapstructure:"server"`
}

type SpotConfig struct {
	Name      string  `mapstructure:"name"`
	Latitude  float64 `mapstructure:"latitude"`
	Longitude float64 `mapstructure:"longitude"`
}

type StormglassConfig struct {
	APIKey        string   `mapstructure:"api_key"`
	BaseURL       string   `mapstructure:"base_url"`
	Retries       int      `mapstructure:"retries"`
	WeatherParams []string `mapstructure:"weather_params"`
}

type RenderConfig struct {
	Width        int     `mapstructure:"width"`
	Height       int     `mapstructure:"height"`
	MoonRotation float64 `mapstructure:"moon_rotation"`
	Title        string  `mapstructure:"title"`
	Style        string  `mapstructure:"style"`
}

type DisplayConfig struct {
	Sink        string `mapstructure:"sink"`
	Width       int    `mapstructure:"width"`
	Height      int    `mapstructure:"height"`
	Path        string `mapstructure:"path"`
	FTPAddr     string `mapstructure:"ftp_addr"`
	FTPUser     string `mapstructure:"ftp_user"`
	FTPPassword string `mapstructure:"ftp_password"`
	FTPPath     string `mapstructure:"ftp_path"`
}

type StoreConfig struct {
	Path string `mapstructure:"path"`
	// RetentionDays bounds the raw payload archive in daemon mode; 0 keeps everything.
	RetentionDays int `mapstructure:"retention_days"`
}

type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// ServerConfig enables the HTTP frame server in daemon mode when Listen is set.
type ServerConfig struct {
	Listen string `mapstructure:"listen"`
}

// Sinks lists the display sink names Validate accepts.
var Sinks = []string{"file", "ftp", "epaper"}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "data")
	v.SetDefault("timezone", "Local")
	v.SetDefault("days", 3)

	v.SetDefault("spot.name", "")
	v.SetDefault("spot.latitude", 0.0)
	v.SetDefault("spot.longitude", 0.0)

	v.SetDefault("stormglass.api_key", "")
	v.SetDefault("stormglass.base_url", "https://api.stormglass.io/v2/")
	v.SetDefault("stormglass.retries", 0)
	v.SetDefault("stormglass.weather_params", []string{"waveHeight"})

	v.SetDefault("render.width", 2560)
	v.SetDefault("render.height", 1536)
	v.SetDefault("render.moon_rotation", 0.0)
	v.SetDefault("render.title", "")
	v.SetDefault("render.style", "default")

	v.SetDefault("display.sink", "file")
	v.SetDefault("display.width", 250)
	v.SetDefault("display.height", 122)
	v.SetDefault("display.path", "data/timeline.png")
	v.SetDefault("display.ftp_addr", "")
	v.SetDefault("display.ftp_user", "anonymous")
	v.SetDefault("display.ftp_password", "anonymous")
	v.SetDefault("display.ftp_path", "/timeline.png")

	v.SetDefault("store.path", "")
	v.SetDefault("store.retention_days", 90)
	v.SetDefault("metrics.textfile", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("schedule.cron", "*/30 * * * *")
	v.SetDefault("server.listen", "")
}

// Load reads a TOML file at path and applies TIDELINE_* environment overrides.
// With an empty path, ./tideline.toml is used when present, defaults otherwise.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("tideline")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate reports every problem at once, wrapped in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Days < 1 {
		fail("days must be at least 1, got %d", c.Days)
	}
	if c.Spot.Latitude < -90 || c.Spot.Latitude > 90 {
		fail("spot.latitude %v outside [-90, 90]", c.Spot.Latitude)
	}
	if c.Spot.Longitude < -180 || c.Spot.Longitude > 180 {
		fail("spot.longitude %v outside [-180, 180]", c.Spot.Longitude)
	}
	if strings.TrimSpace(c.Stormglass.APIKey) == "" {
		fail("stormglass.api_key is required (or set %s_STORMGLASS_API_KEY)", EnvPrefix)
	}
	if c.Stormglass.Retries < 0 {
		fail("stormglass.retries must not be negative")
	}
	if c.Render.Width <= 0 || c.Render.Height <= 0 {
		fail("render size %dx%d must be positive", c.Render.Width, c.Render.Height)
	}
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		fail("display size %dx%d must be positive", c.Display.Width, c.Display.Height)
	}
	if !knownSink(c.Display.Sink) {
		fail("display.sink %q must be one of %s", c.Display.Sink, strings.Join(Sinks, ", "))
	}
	if c.Display.Sink == "ftp" && c.Display.FTPAddr == "" {
		fail("display.ftp_addr is required for the ftp sink")
	}
	if _, err := c.Location(); err != nil {
		fail("timezone: %v", err)
	}
	if _, err := cron.ParseStandard(c.Schedule.Cron); err != nil {
		fail("schedule.cron %q: %v", c.Schedule.Cron, err)
	}
	if c.Store.RetentionDays < 0 {
		fail("store.retention_days must not be negative")
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		fail("log.level: %v", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		fail("log.format %q must be text or json", c.Log.Format)
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func knownSink(name string) bool {
	for _, s := range Sinks {
		if s == name {
			return true
		}
	}
	return false
}

// Location resolves Timezone; empty and "Local" mean the host zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *Config) SpotModel() models.Spot {
	return models.Spot{Name: c.Spot.Name, Latitude: c.Spot.Latitude, Longitude: c.Spot.Longitude}
}

// SpotDir is where the spot's dataset caches live.
func (c *Config) SpotDir() string {
	return filepath.Join(c.DataDir, c.SpotModel().Slug())
}
