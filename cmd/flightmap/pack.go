package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/eak1mov/go-flightmap/mb"
	"github.com/eak1mov/go-flightmap/tile"
	"github.com/eak1mov/go-flightmap/xyz"
)

// deduceFormat picks the pack format from the flag or the path.
func deduceFormat(format, path string) string {
	switch {
	case format != "":
		return format
	case strings.HasSuffix(path, ".mbtiles"):
		return "mbtiles"
	case strings.Contains(path, "{z}"):
		return "xyz"
	}
	return ""
}

type exportCmd struct {
	format     string
	outputPath string
	name       string
}

func (c *exportCmd) Name() string     { return "export" }
func (c *exportCmd) Synopsis() string { return "export cached tiles to an offline pack" }
func (c *exportCmd) Usage() string {
	return "flightmap export -o <path> [-f <format>] [-name <name>]\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputPath, "o", "", "Output path: file.mbtiles or an xyz pattern like dir/{z}/{x}/{y}.jpeg")
	f.StringVar(&c.format, "f", "", "Output format (mbtiles, xyz)")
	f.StringVar(&c.name, "name", "flightmap", "Pack name stored in mbtiles metadata")
}

func (c *exportCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	format := deduceFormat(c.format, c.outputPath)
	if c.outputPath == "" || (format != "mbtiles" && format != "xyz") {
		log.Printf("invalid output %q (format %q)", c.outputPath, format)
		return subcommands.ExitUsageError
	}

	a, err := openApp(args)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	var w tile.Writer
	switch format {
	case "mbtiles":
		ids, err := a.cache.IDs()
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		ext := strings.TrimPrefix(filepath.Ext(a.cache.Path(tile.ID{})), ".")
		w, err = mb.NewWriter(c.outputPath,
			mb.WithMetadata(mb.Metadata(c.name, ext, ids)),
			mb.WithLogger(a.logger.Logger))
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	case "xyz":
		w, err = xyz.New(c.outputPath)
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}
	if closer, ok := w.(io.Closer); ok {
		defer closer.Close()
	}

	n, err := a.cache.Export(w)
	fmt.Printf("%d tiles exported to %s\n", n, c.outputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type importCmd struct {
	format    string
	inputPath string
}

func (c *importCmd) Name() string     { return "import" }
func (c *importCmd) Synopsis() string { return "import an offline pack into the cache" }
func (c *importCmd) Usage() string {
	return "flightmap import -i <path> [-f <format>]\n"
}
func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input path: file.mbtiles or an xyz pattern")
	f.StringVar(&c.format, "f", "", "Input format (mbtiles, xyz)")
}

func (c *importCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...any) subcommands.ExitStatus {
	var r tile.Visitor
	var err error
	switch deduceFormat(c.format, c.inputPath) {
	case "mbtiles":
		r, err = mb.NewReader(c.inputPath)
	case "xyz":
		r, err = xyz.New(c.inputPath)
	default:
		log.Printf("invalid input format: %q", c.format)
		return subcommands.ExitUsageError
	}
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := r.(io.Closer); ok {
		defer closer.Close()
	}

	a, err := openApp(args)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	n, err := a.cache.Import(r)
	fmt.Printf("%d tiles imported into %s\n", n, a.cache.Root())
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
