// Command flightmap manages the offline tile cache of the flight planner.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	configPath := flag.String("config", "", "Configuration file (default: user config dir)")
	logLevel := flag.String("log", "", "Log level, overrides the configuration")

	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&downloadCmd{}, "cache")
	subcommands.Register(&clearCmd{}, "cache")
	subcommands.Register(&exportCmd{}, "packs")
	subcommands.Register(&importCmd{}, "packs")
	subcommands.Register(&locateCmd{}, "")

	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	opts := options{configPath: *configPath, logLevel: *logLevel}
	os.Exit(int(subcommands.Execute(ctx, opts)))
}
