package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/google/subcommands"
)

type clearCmd struct {
	zooms string
}

func (c *clearCmd) Name() string     { return "clear" }
func (c *clearCmd) Synopsis() string { return "delete cached tiles" }
func (c *clearCmd) Usage() string {
	return "flightmap clear [-zoom <z>[,<z>...]]\n"
}
func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.zooms, "zoom", "", "Zoom levels to delete (default: all)")
}

func (c *clearCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	zooms, err := parseZooms(c.zooms)
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}

	a, err := openApp(args)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	deleted, err := a.cache.Clear(zooms...)
	fmt.Printf("%d tiles deleted from %s\n", deleted, a.cache.Root())
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
