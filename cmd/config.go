package cmd

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/etnz/microcap/config"
	"github.com/google/subcommands"
)

type configCmd struct {
	force bool
}

func (*configCmd) Name() string     { return "config" }
func (*configCmd) Synopsis() string { return "create or validate the configuration file" }
func (*configCmd) Usage() string {
	return `mcap config init [-force] | validate

  init writes the default configuration to the -config file.
  validate loads the configuration with the environment and reports every
  invalid field.
`
}

func (c *configCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.force, "force", false, "Overwrite an existing file on init")
}

func (c *configCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	switch f.Arg(0) {
	case "init":
		if _, err := os.Stat(*configPath); !c.force && !errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(os.Stderr, "Error: %s already exists, use -force to overwrite it\n", *configPath)
			return subcommands.ExitFailure
		}
		if err := config.Default().SaveToFile(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Successfully created %s\n", *configPath)
	case "validate":
		cfg, err := loadConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%s is valid: %s store, benchmark %s, AI provider %s\n", *configPath, cfg.Store.Type, cfg.Portfolio.Benchmark, cfg.AI.Provider)
	default:
		f.Usage()
		return subcommands.ExitUsageError
	}
	return subcommands.ExitSuccess
}
