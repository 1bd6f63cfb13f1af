// Package config loads runner settings from an optional YAML file, an
// optional .env file and the environment, in increasing precedence.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	EnginePlaywright = "playwright"
	EngineChromedp   = "chromedp"
	EngineSelenium   = "selenium"
)

// Config holds every runner setting
type Config struct {
	BaseURL       string        `yaml:"base_url"`
	Namespace     string        `yaml:"namespace"`
	Engine        string        `yaml:"engine"`
	BrowserType   string        `yaml:"browser_type"` // playwright only: chromium, firefox or webkit
	Headless      bool          `yaml:"headless"`
	ExpectTimeout time.Duration `yaml:"expect_timeout"`
	RenderTimeout time.Duration `yaml:"render_timeout"`
	NavTimeout    time.Duration `yaml:"nav_timeout"`
	Parallelism   int           `yaml:"parallelism"`
	Repeat        int           `yaml:"repeat"`
	ArtifactsDir  string        `yaml:"artifacts_dir"`
	AllowRemote   bool          `yaml:"allow_remote"`
	LogLevel      string        `yaml:"log_level"`
	DriverPath    string        `yaml:"driver_path"`   // selenium only
	ChromeBinary  string        `yaml:"chrome_binary"` // chromedp and selenium
}

// Default returns the settings used when nothing is configured
func Default() *Config {
	return &Config{
		BaseURL:       "http://localhost:9999",
		Namespace:     "http-core",
		Engine:        EnginePlaywright,
		BrowserType:   "chromium",
		Headless:      true,
		ExpectTimeout: 5 * time.Second,
		RenderTimeout: 10 * time.Second,
		NavTimeout:    30 * time.Second,
		Parallelism:   2,
		Repeat:        1,
		ArtifactsDir:  ".e2e_artifacts",
		LogLevel:      "info",
	}
}

// Load - loads .env, the YAML file named by E2E_CONFIG and environment overrides
func Load() (*Config, error) {
	// .env file is optional
	_ = godotenv.Load()

	cfg := Default()
	if path := os.Getenv("E2E_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnv - overrides fields from environment variables
func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("E2E_BASE_URL", &c.BaseURL)
	str("E2E_NAMESPACE", &c.Namespace)
	str("E2E_ENGINE", &c.Engine)
	str("E2E_BROWSER_TYPE", &c.BrowserType)
	str("E2E_ARTIFACTS_DIR", &c.ArtifactsDir)
	str("E2E_LOG_LEVEL", &c.LogLevel)
	str("BROWSER_DRIVER_PATH", &c.DriverPath)
	str("CHROME_BINARY_PATH", &c.ChromeBinary)

	bools := map[string]*bool{
		"E2E_HEADLESS":     &c.Headless,
		"E2E_ALLOW_REMOTE": &c.AllowRemote,
	}
	for key, dst := range bools {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}

	ints := map[string]*int{
		"E2E_PARALLELISM": &c.Parallelism,
		"E2E_REPEAT":      &c.Repeat,
	}
	for key, dst := range ints {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	durations := map[string]*time.Duration{
		"E2E_EXPECT_TIMEOUT": &c.ExpectTimeout,
		"E2E_RENDER_TIMEOUT": &c.RenderTimeout,
		"E2E_NAV_TIMEOUT":    &c.NavTimeout,
	}
	for key, dst := range durations {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate checks the configuration for values the runner cannot use
func (c *Config) Validate() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("base_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url must be an http or https URL, got %q", c.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("base_url must include a host, got %q", c.BaseURL)
	}
	if strings.TrimSpace(c.Namespace) == "" {
		return fmt.Errorf("namespace cannot be empty")
	}

	switch c.Engine {
	case EnginePlaywright, EngineChromedp, EngineSelenium:
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	switch c.BrowserType {
	case "chromium", "firefox", "webkit":
	default:
		return fmt.Errorf("unknown browser type %q", c.BrowserType)
	}

	if c.ExpectTimeout <= 0 || c.RenderTimeout <= 0 || c.NavTimeout <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.Parallelism < 1 {
		return fmt.Errorf("parallelism must be at least 1")
	}
	if c.Repeat < 1 {
		return fmt.Errorf("repeat must be at least 1")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}

// NewLogger - creates the logger configured for this run
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	return logger
}
