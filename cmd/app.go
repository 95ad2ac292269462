// Package cmd implements the mcap CLI application.
package cmd

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/microcap"
	"github.com/etnz/microcap/analyst"
	"github.com/etnz/microcap/config"
	"github.com/etnz/microcap/eodhd"
	"github.com/etnz/microcap/store"
	"github.com/google/subcommands"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&dailyCmd{}, "portfolio")
	c.Register(&buyCmd{}, "portfolio")
	c.Register(&sellCmd{}, "portfolio")
	c.Register(&historyCmd{}, "portfolio")
	c.Register(&tradesCmd{}, "portfolio")
	c.Register(&performanceCmd{}, "portfolio")
	c.Register(&exportCmd{}, "portfolio")

	c.Register(&analyzeCmd{}, "analysis")
	c.Register(&researchCmd{}, "analysis")
	c.Register(&strategyCmd{}, "analysis")
	c.Register(&statusCmd{}, "analysis")

	c.Register(&searchCmd{}, "market data")
	c.Register(&configCmd{}, "settings")
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configPath = flag.String("config", "mcap.yaml", "Path to the YAML configuration file")

// loadConfig loads the configuration selected by the -config flag.
func loadConfig() (*config.Config, error) { return config.Load(*configPath) }

// openStore opens the history and trade log store of the configuration.
func openStore(cfg *config.Config) (microcap.Store, error) {
	cur := cfg.Portfolio.Currency
	switch cfg.Store.Type {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DBPath, cur)
	case "csv":
		return store.NewCSV(cfg.Store.HistoryFile, cfg.Store.TradesFile, cur), nil
	default:
		return nil, fmt.Errorf("unknown store type %q", cfg.Store.Type)
	}
}

// newFeed returns the EODHD price feed of the configuration.
func newFeed(cfg *config.Config) *eodhd.Client {
	opts := []eodhd.Option{eodhd.WithCurrency(cfg.Portfolio.Currency)}
	if cfg.EODHD.Timeout > 0 {
		opts = append(opts, eodhd.WithTimeout(cfg.EODHD.Timeout))
	}
	if cfg.EODHD.BaseURL != "" {
		opts = append(opts, eodhd.WithBaseURL(cfg.EODHD.BaseURL))
	}
	if cfg.EODHD.CacheDir != "" {
		opts = append(opts, eodhd.WithCacheDir(cfg.EODHD.CacheDir))
	}
	return eodhd.New(cfg.EODHD.APIKey, opts...)
}

func initialCash(cfg *config.Config) microcap.Money {
	return microcap.M(cfg.Portfolio.InitialCash, cfg.Portfolio.Currency)
}

// generators returns the text generation providers in "auto" order.
func generators(cfg *config.Config) []analyst.Generator {
	o, g := cfg.AI.Ollama, cfg.AI.Gemini
	return []analyst.Generator{
		analyst.NewOllama(o.Host, o.Model, o.Temperature, o.MaxTokens, o.Timeout),
		analyst.NewGemini(g.APIKey, g.Model, g.Temperature, g.MaxTokens),
	}
}

// newAnalyst selects the configured provider.
func newAnalyst(ctx context.Context, cfg *config.Config) (*analyst.Analyst, error) {
	gen, err := analyst.Select(ctx, cfg.AI.Provider, generators(cfg)...)
	if err != nil {
		return nil, err
	}
	log.Printf("ai provider=%s", gen.Name())
	return analyst.New(gen, initialCash(cfg)), nil
}

// writeReport prints a generated text and saves it in the reports directory.
// A failure to save is only logged.
func writeReport(cfg *config.Config, name, text string) {
	printMarkdown(text)
	if err := os.MkdirAll(cfg.ReportsDir, 0o755); err != nil {
		log.Printf("warning: cannot save %s: %v", name, err)
		return
	}
	path := filepath.Join(cfg.ReportsDir, name)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		log.Printf("warning: cannot save %s: %v", name, err)
		return
	}
	log.Printf("saved report path=%q", path)
}

// printMarkdown renders md on the terminal, or prints it raw when it cannot be rendered.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Print(md)
		return
	}
	fmt.Print(out)
}

// fileName turns a ticker into a safe file name part.
func fileName(ticker string) string {
	return strings.NewReplacer("^", "", "/", "_", ".", "_").Replace(ticker)
}
