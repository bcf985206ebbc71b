package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/places"

	"github.com/jessevdk/go-flags"
	"gopkg.in/yaml.v3"
)

type Options struct {
	ConfigFile string `short:"c" long:"config" env:"CONFIG_FILE" description:"Configuration file with extra places"`
	Output     string `short:"o" long:"out" description:"Output file path. Writes to stdout if empty"`
	Format     string `short:"f" long:"format" description:"Output format" choice:"json" choice:"yaml" default:"json"`
	Match      string `short:"m" long:"match" description:"Print the catalog place found in this text instead of the catalog"`
}

func main() {
	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	catalog, err := places.New(cfg.Places)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building catalog: %v\n", err)
		os.Exit(1)
	}

	outputData, count, err := render(catalog, opts.Match, opts.Format)
	if errors.Is(err, errNoPlace) {
		fmt.Fprintln(os.Stderr, "No known place found")
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling data: %v\n", err)
		os.Exit(1)
	}

	if opts.Output != "" {
		err = os.WriteFile(opts.Output, outputData, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output file: %v\n", err)
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "Wrote %s to %s (format: %s)\n", plural(count, "place"), opts.Output, opts.Format)
	} else {
		fmt.Println(string(outputData))
	}
}

var errNoPlace = errors.New("no known place found")

// render marshals the whole catalog, or only the place matched in text, and
// reports how many places the output holds.
func render(catalog *places.Catalog, match, format string) ([]byte, int, error) {
	var (
		payload any = catalog.FeatureCollection()
		count       = catalog.Len()
	)
	if match != "" {
		p := catalog.Match(match)
		if !p.Found() {
			return nil, 0, errNoPlace
		}
		payload = map[string]any{
			"latitude":  p.Point.Lat,
			"longitude": p.Point.Lon,
			"city":      p.City,
			"country":   p.Country,
		}
		count = 1
	}

	var (
		data []byte
		err  error
	)
	if format == "yaml" {
		data, err = yaml.Marshal(payload)
	} else {
		data, err = json.MarshalIndent(payload, "", "  ")
	}

	return data, count, err
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
