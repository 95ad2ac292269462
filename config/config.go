// Package config loads the mcap configuration.
//
// Values are layered: defaults, then the YAML file, then a .env file next to
// it, then the process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Portfolio PortfolioConfig `yaml:"portfolio"`
	Store     StoreConfig     `yaml:"store"`
	EODHD     EODHDConfig     `yaml:"eodhd"`
	AI        AIConfig        `yaml:"ai"`
	// ReportsDir receives the text generated by the analysis commands.
	ReportsDir string `yaml:"reports_dir" env:"MCAP_REPORTS_DIR"`
}

type PortfolioConfig struct {
	Currency    string   `yaml:"currency"`
	InitialCash float64  `yaml:"initial_cash" env:"MCAP_INITIAL_CASH"`
	RiskFree    float64  `yaml:"risk_free" env:"MCAP_RISK_FREE"` // annual rate, 0.045 is 4.5%
	Benchmark   string   `yaml:"benchmark" env:"MCAP_BENCHMARK"`
	Watch       []string `yaml:"watch" env:"MCAP_WATCH" envSeparator:","`
}

// StoreConfig selects where the history and the trade log are kept.
type StoreConfig struct {
	Type        string `yaml:"type" env:"MCAP_STORE"` // "csv" or "sqlite"
	HistoryFile string `yaml:"history_file,omitempty"`
	TradesFile  string `yaml:"trades_file,omitempty"`
	DBPath      string `yaml:"db_path,omitempty" env:"MCAP_DB"`
}

type EODHDConfig struct {
	APIKey   string        `yaml:"api_key,omitempty" env:"EODHD_API_KEY"`
	BaseURL  string        `yaml:"base_url,omitempty" env:"EODHD_BASE_URL"`
	CacheDir string        `yaml:"cache_dir,omitempty" env:"MCAP_CACHE_DIR"`
	Timeout  time.Duration `yaml:"timeout"`
}

type AIConfig struct {
	// Provider is "auto", "ollama" or "gemini".
	Provider string       `yaml:"provider" env:"AI_PROVIDER"`
	Ollama   OllamaConfig `yaml:"ollama"`
	Gemini   GeminiConfig `yaml:"gemini"`
}

type OllamaConfig struct {
	Host        string        `yaml:"host" env:"OLLAMA_HOST"`
	Model       string        `yaml:"model" env:"OLLAMA_MODEL"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

type GeminiConfig struct {
	APIKey      string  `yaml:"api_key,omitempty" env:"GOOGLE_API_KEY"`
	Model       string  `yaml:"model" env:"GEMINI_MODEL"`
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int32   `yaml:"max_tokens"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Portfolio: PortfolioConfig{
			Currency:    "USD",
			InitialCash: 100,
			RiskFree:    0.045,
			Benchmark:   "^SPX",
			Watch:       []string{"^RUT", "IWO", "XBI"},
		},
		Store: StoreConfig{
			Type:        "csv",
			HistoryFile: "portfolio_update.csv",
			TradesFile:  "trade_log.csv",
			DBPath:      "mcap.db",
		},
		EODHD: EODHDConfig{
			Timeout: 30 * time.Second,
		},
		AI: AIConfig{
			Provider: "auto",
			Ollama: OllamaConfig{
				Host:        "http://localhost:11434",
				Model:       "llama2",
				Temperature: 0.7,
				MaxTokens:   2000,
				Timeout:     60 * time.Second,
			},
			Gemini: GeminiConfig{
				Model:       "gemini-2.5-flash",
				Temperature: 0.7,
				MaxTokens:   2000,
			},
		},
		ReportsDir: ".",
	}
}

// Load returns the default configuration overridden by the YAML file at path
// (skipped if it does not exist), the .env file in the same directory and
// the environment. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	vars, err := environment(filepath.Join(filepath.Dir(path), ".env"))
	if err != nil {
		return nil, err
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// environment merges the variables of the dotenv file, if any, with the
// process environment. The environment wins.
func environment(dotenv string) (map[string]string, error) {
	vars, err := godotenv.Read(dotenv)
	if errors.Is(err, fs.ErrNotExist) {
		vars = make(map[string]string)
	} else if err != nil {
		return nil, fmt.Errorf("read %s: %w", dotenv, err)
	}
	for k, v := range env.ToMap(os.Environ()) {
		vars[k] = v
	}
	return vars, nil
}

// SaveToFile writes the configuration as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate reports every invalid field.
func (c *Config) Validate() error {
	var errs []error
	p := c.Portfolio
	if p.Currency == "" {
		errs = append(errs, errors.New("portfolio.currency is required"))
	}
	if p.InitialCash <= 0 {
		errs = append(errs, errors.New("portfolio.initial_cash must be positive"))
	}
	if p.RiskFree < 0 || p.RiskFree >= 1 {
		errs = append(errs, errors.New("portfolio.risk_free must be between 0 and 1"))
	}
	if p.Benchmark == "" {
		errs = append(errs, errors.New("portfolio.benchmark is required"))
	}

	switch s := c.Store; s.Type {
	case "csv":
		if s.HistoryFile == "" || s.TradesFile == "" {
			errs = append(errs, errors.New("store history_file and trades_file required for csv type"))
		}
	case "sqlite":
		if s.DBPath == "" {
			errs = append(errs, errors.New("store db_path required for sqlite type"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.type must be 'csv' or 'sqlite', got %q", s.Type))
	}

	switch c.AI.Provider {
	case "auto", "ollama", "gemini":
	default:
		errs = append(errs, fmt.Errorf("ai.provider must be 'auto', 'ollama' or 'gemini', got %q", c.AI.Provider))
	}
	if o := c.AI.Ollama; o.Temperature < 0 || o.Temperature > 2 {
		errs = append(errs, errors.New("ai.ollama.temperature must be between 0 and 2"))
	}
	if g := c.AI.Gemini; g.Temperature < 0 || g.Temperature > 2 {
		errs = append(errs, errors.New("ai.gemini.temperature must be between 0 and 2"))
	}
	if c.AI.Ollama.MaxTokens <= 0 || c.AI.Gemini.MaxTokens <= 0 {
		errs = append(errs, errors.New("ai max_tokens must be positive"))
	}
	return errors.Join(errs...)
}
