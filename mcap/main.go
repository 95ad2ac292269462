// Command mcap tracks a micro-cap portfolio: daily mark to market with stop
// losses, trade log, risk metrics against a benchmark and AI analysis.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/microcap/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// completion describes the command line for shell completion.
func completion() *complete.Command {
	date := predict.Something
	trade := map[string]complete.Predictor{
		"d": date, "t": predict.Something, "s": predict.Something, "p": predict.Something,
		"m": predict.Something, "confirm": predict.Nothing,
	}
	buy := map[string]complete.Predictor{"stop": predict.Something}
	for k, v := range trade {
		buy[k] = v
	}
	return &complete.Command{
		Flags: map[string]complete.Predictor{"config": predict.Files("*.yaml")},
		Sub: map[string]*complete.Command{
			"daily":       {Flags: map[string]complete.Predictor{"d": date, "ai": predict.Nothing, "research": predict.Nothing}},
			"buy":         {Flags: buy},
			"sell":        {Flags: trade},
			"history":     {Flags: map[string]complete.Predictor{"tail": predict.Something}},
			"trades":      {Flags: map[string]complete.Predictor{"tail": predict.Something}},
			"performance": {Flags: map[string]complete.Predictor{"ai": predict.Nothing}},
			"export":      {Flags: map[string]complete.Predictor{"o": predict.Files("*.xlsx")}},
			"analyze":     {},
			"research":    {Flags: map[string]complete.Predictor{"d": date}, Args: predict.Something},
			"strategy":    {Flags: map[string]complete.Predictor{"conditions": predict.Something}},
			"status":      {},
			"search":      {Args: predict.Something},
			"config":      {Flags: map[string]complete.Predictor{"force": predict.Nothing}, Args: predict.Set{"init", "validate"}},
			"help":        {},
			"commands":    {},
			"flags":       {},
		},
	}
}

func main() {
	completion().Complete("mcap")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
