package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	API      APIConfig      `mapstructure:"api"`
	Feed     FeedConfig     `mapstructure:"feed"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	UI       UIConfig       `mapstructure:"ui"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type DatabaseConfig struct {
	Path    string        `mapstructure:"path"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// APIConfig describes the remote publishing API.
type APIConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	UserAgent   string        `mapstructure:"user_agent"`
	RateLimit   float64       `mapstructure:"rate_limit"`
	Burst       int           `mapstructure:"burst"`
}

type FeedConfig struct {
	DoctorCategory    string        `mapstructure:"doctor_category"`
	NonDoctorCategory string        `mapstructure:"non_doctor_category"`
	SummaryWords      int           `mapstructure:"summary_words"`
	Retries           int           `mapstructure:"retries"`
	RetryDelay        time.Duration `mapstructure:"retry_delay"`
}

type SessionConfig struct {
	SplashDelay time.Duration `mapstructure:"splash_delay"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type UIConfig struct {
	Colors UIColors `mapstructure:"colors"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary"`
	Secondary string `mapstructure:"secondary"`
	Accent    string `mapstructure:"accent"`
	Text      string `mapstructure:"text"`
	Muted     string `mapstructure:"muted"`
	Error     string `mapstructure:"error"`
	Success   string `mapstructure:"success"`
}

type KeyConfig struct {
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit       string `mapstructure:"quit"`
	Refresh    string `mapstructure:"refresh"`
	Retry      string `mapstructure:"retry"`
	Search     string `mapstructure:"search"`
	OpenSource string `mapstructure:"open_source"`
	Menu       string `mapstructure:"menu"`
	Poll       string `mapstructure:"poll"`
	Logout     string `mapstructure:"logout"`
	Back       string `mapstructure:"back"`
	Help       string `mapstructure:"help"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Database: DatabaseConfig{
			Path:    filepath.Join(homeDir, ".sankshep.db"),
			Timeout: 1 * time.Second,
		},
		API: APIConfig{
			BaseURL:     "https://sankshep.app/wp-json/wp/v2",
			HTTPTimeout: 30 * time.Second,
			UserAgent:   "sankshep/1.0 (https://sankshep.app)",
			RateLimit:   2,
			Burst:       4,
		},
		Feed: FeedConfig{
			DoctorCategory:    "doctor",
			NonDoctorCategory: "nondoctor",
			SummaryWords:      60,
			Retries:           1,
			RetryDelay:        500 * time.Millisecond,
		},
		Session: SessionConfig{
			SplashDelay: 1500 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".sankshep", "sankshep.log"),
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#0D6B65",
				Secondary: "#F2782C",
				Accent:    "#3366CC",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
				Success:   "#4ADE80",
			},
		},
		Keys: KeyConfig{
			Bindings: KeyBindings{
				Quit:       "ctrl+c",
				Refresh:    "r",
				Retry:      "R",
				Search:     "/",
				OpenSource: "o",
				Menu:       "m",
				Poll:       "p",
				Logout:     "L",
				Back:       "esc",
				Help:       "?",
			},
		},
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("database", cfg.Database)
	v.SetDefault("api", cfg.API)
	v.SetDefault("feed", cfg.Feed)
	v.SetDefault("session", cfg.Session)
	v.SetDefault("log", cfg.Log)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("keys", cfg.Keys)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "sankshep")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SANKSHEP")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)

	return &config, nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" || path == "-" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
}

// fileConfig is the on-disk TOML shape; durations are written as strings
// so the generated file stays readable and round-trips through viper.
type fileConfig struct {
	Database struct {
		Path    string `toml:"path"`
		Timeout string `toml:"timeout"`
	} `toml:"database"`
	API struct {
		BaseURL     string  `toml:"base_url"`
		HTTPTimeout string  `toml:"http_timeout"`
		UserAgent   string  `toml:"user_agent"`
		RateLimit   float64 `toml:"rate_limit"`
		Burst       int     `toml:"burst"`
	} `toml:"api"`
	Feed struct {
		DoctorCategory    string `toml:"doctor_category"`
		NonDoctorCategory string `toml:"non_doctor_category"`
		SummaryWords      int    `toml:"summary_words"`
		Retries           int    `toml:"retries"`
		RetryDelay        string `toml:"retry_delay"`
	} `toml:"feed"`
	Session struct {
		SplashDelay string `toml:"splash_delay"`
	} `toml:"session"`
	Log struct {
		Level string `toml:"level"`
		File  string `toml:"file"`
	} `toml:"log"`
	UI struct {
		Colors struct {
			Primary   string `toml:"primary"`
			Secondary string `toml:"secondary"`
			Accent    string `toml:"accent"`
			Text      string `toml:"text"`
			Muted     string `toml:"muted"`
			Error     string `toml:"error"`
			Success   string `toml:"success"`
		} `toml:"colors"`
	} `toml:"ui"`
	Keys struct {
		Bindings struct {
			Quit       string `toml:"quit"`
			Refresh    string `toml:"refresh"`
			Retry      string `toml:"retry"`
			Search     string `toml:"search"`
			OpenSource string `toml:"open_source"`
			Menu       string `toml:"menu"`
			Poll       string `toml:"poll"`
			Logout     string `toml:"logout"`
			Back       string `toml:"back"`
			Help       string `toml:"help"`
		} `toml:"bindings"`
	} `toml:"keys"`
}

func toFileConfig(c *Config) fileConfig {
	var f fileConfig

	f.Database.Path = c.Database.Path
	f.Database.Timeout = c.Database.Timeout.String()

	f.API.BaseURL = c.API.BaseURL
	f.API.HTTPTimeout = c.API.HTTPTimeout.String()
	f.API.UserAgent = c.API.UserAgent
	f.API.RateLimit = c.API.RateLimit
	f.API.Burst = c.API.Burst

	f.Feed.DoctorCategory = c.Feed.DoctorCategory
	f.Feed.NonDoctorCategory = c.Feed.NonDoctorCategory
	f.Feed.SummaryWords = c.Feed.SummaryWords
	f.Feed.Retries = c.Feed.Retries
	f.Feed.RetryDelay = c.Feed.RetryDelay.String()

	f.Session.SplashDelay = c.Session.SplashDelay.String()

	f.Log.Level = c.Log.Level
	f.Log.File = c.Log.File

	f.UI.Colors.Primary = c.UI.Colors.Primary
	f.UI.Colors.Secondary = c.UI.Colors.Secondary
	f.UI.Colors.Accent = c.UI.Colors.Accent
	f.UI.Colors.Text = c.UI.Colors.Text
	f.UI.Colors.Muted = c.UI.Colors.Muted
	f.UI.Colors.Error = c.UI.Colors.Error
	f.UI.Colors.Success = c.UI.Colors.Success

	b := c.Keys.Bindings
	f.Keys.Bindings.Quit = b.Quit
	f.Keys.Bindings.Refresh = b.Refresh
	f.Keys.Bindings.Retry = b.Retry
	f.Keys.Bindings.Search = b.Search
	f.Keys.Bindings.OpenSource = b.OpenSource
	f.Keys.Bindings.Menu = b.Menu
	f.Keys.Bindings.Poll = b.Poll
	f.Keys.Bindings.Logout = b.Logout
	f.Keys.Bindings.Back = b.Back
	f.Keys.Bindings.Help = b.Help

	return f
}

func Save(config *Config, path string) error {
	data, err := toml.Marshal(toFileConfig(config))
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
