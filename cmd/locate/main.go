package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/geocode"
	"github.com/woozymasta/geolocate/internal/logger"
	"github.com/woozymasta/geolocate/internal/places"
	"github.com/woozymasta/geolocate/internal/resolve"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string `short:"c" long:"config"      env:"CONFIG_FILE" description:"Path to configuration file (defaults are used if empty)"`
	Output     string `short:"o" long:"out"         description:"Output file path. Writes to stdout if empty"`
	Format     string `short:"f" long:"format"      description:"Output format" choice:"json" choice:"yaml" default:"json"`
	IPAddress  string `short:"i" long:"ip"          description:"Client IP address applied to every image"`
	Jobs       int    `short:"j" long:"jobs"        description:"Parallel workers (0 = number of CPUs)"`
	NoGeocode  bool   `short:"n" long:"no-geocode"  description:"Do not reverse geocode EXIF coordinates"`
	NoProgress bool   `long:"no-progress"           description:"Disable the progress bar"`

	Args struct {
		Paths []string `positional-arg-name:"PATH" description:"Image files or directories" required:"1"`
	} `positional-args:"yes"`
}

// Record is the outcome for one image.
type Record struct {
	File     string          `json:"file" yaml:"file"`
	Location *resolve.Result `json:"location,omitempty" yaml:"location,omitempty"`
	Error    string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Error loading .env: %v\n", err)
	}

	var opts Options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	opts.Logger.Setup()

	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if opts.NoGeocode {
		cfg.Geocoder.Provider = config.ProviderNone
	}

	catalog, err := places.New(cfg.Places)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build place catalog")
	}

	files, err := collect(opts.Args.Paths)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to collect images")
	}
	if len(files) == 0 {
		log.Fatal().Strs("paths", opts.Args.Paths).Msg("No images found")
	}

	resolver := resolve.New(
		resolve.WithTextMatcher(catalog),
		resolve.WithNamer(geocode.New(cfg.Geocoder)),
		resolve.WithNamerTimeout(cfg.Geocoder.Timeout),
	)

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}

	var bar *progressbar.ProgressBar
	if !opts.NoProgress && isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(len(files),
			progressbar.OptionSetDescription("Resolving"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	records := locateAll(context.Background(), resolver, files, opts.IPAddress, jobs, func() {
		if bar != nil {
			_ = bar.Add(1)
		}
	})

	failed := 0
	for _, rec := range records {
		if rec.Error != "" {
			failed++
		}
	}
	log.Info().Int("images", len(records)).Int("failed", failed).Msg("Resolution finished")

	if opts.Output == "" {
		if err := write(os.Stdout, opts.Format, records); err != nil {
			log.Fatal().Err(err).Msg("Failed to write output")
		}
		return
	}

	if err := writeOutput(opts.Output, opts.Format, records); err != nil {
		log.Fatal().Err(err).Str("path", opts.Output).Msg("Failed to write output file")
	}
	log.Info().Str("path", opts.Output).Int("records", len(records)).Msg("Output written")
}

// locateAll resolves every file with at most jobs in flight. Records keep the
// order of files; per-file failures are reported in the record.
func locateAll(ctx context.Context, r *resolve.Resolver, files []string, ip string, jobs int, done func()) []Record {
	records := make([]Record, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i, file := range files {
		g.Go(func() error {
			defer done()
			records[i] = locate(ctx, r, file, ip)
			return nil
		})
	}
	_ = g.Wait()

	return records
}

func locate(ctx context.Context, r *resolve.Resolver, file, ip string) Record {
	rec := Record{File: file}

	data, err := os.ReadFile(file)
	if err != nil {
		rec.Error = err.Error()
		return rec
	}

	text, err := sidecarText(file)
	if err != nil {
		log.Warn().Err(err).Str("file", file).Msg("Failed to read OCR sidecar")
	}

	res, err := r.Resolve(ctx, resolve.Input{Image: data, OCRText: text, IPAddress: ip})
	if err != nil {
		rec.Error = err.Error()
		return rec
	}

	rec.Location = &res
	return rec
}

// writeOutput writes records to path and reports a failed close.
func writeOutput(path, format string, records []Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return write(f, format, records)
}

func write(w io.Writer, format string, records []Record) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}
