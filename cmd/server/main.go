package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/woozymasta/geolocate/internal/config"
	"github.com/woozymasta/geolocate/internal/geocode"
	"github.com/woozymasta/geolocate/internal/logger"
	"github.com/woozymasta/geolocate/internal/places"
	"github.com/woozymasta/geolocate/internal/server"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	ConfigFile string        `short:"c" long:"config"           env:"CONFIG_FILE"      description:"Path to configuration file (defaults are used if empty)"`
	Addr       string        `short:"a" long:"addr"             env:"LISTEN_ADDRESS"   description:"Address to listen on"             default:"0.0.0.0"`
	Port       int           `short:"p" long:"port"             env:"LISTEN_PORT"      description:"Port to listen on"                default:"8000"`
	Geocoder   string        `short:"g" long:"geocoder"         env:"GEOCODER"         description:"Override geocoder provider"       choice:"nominatim" choice:"none"`
	Shutdown   time.Duration `long:"shutdown-timeout"           env:"SHUTDOWN_TIMEOUT" description:"Graceful shutdown timeout"        default:"10s"`
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

	// Setup Logging
	opts.Logger.Setup()

	// Load Config
	cfg, err := config.Load(opts.ConfigFile)
	if err != nil {
		log.Fatal().Err(err).Str("file", opts.ConfigFile).Msg("Failed to load configuration")
	}
	if opts.Geocoder != "" {
		cfg.Geocoder.Provider = opts.Geocoder
	}

	catalog, err := places.New(cfg.Places)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build place catalog")
	}

	srvCtx := server.NewServerContext(cfg, catalog, geocode.New(cfg.Geocoder), nil)

	listenAddr := fmt.Sprintf("%s:%d", opts.Addr, opts.Port)
	srv := &http.Server{
		Addr:              listenAddr,
		Handler:           srvCtx.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", listenAddr).
			Str("geocoder", cfg.Geocoder.Provider).
			Int("places", catalog.Len()).
			Msg("Web server started")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), opts.Shutdown)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatal().Err(err).Msg("Server failed")
	}
}
