package main

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/woozymasta/geolocate/internal/logger"

	"github.com/jessevdk/go-flags"
	"github.com/rs/zerolog/log"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"github.com/tdewolff/minify/v2/svg"
)

type Options struct {
	Logger logger.Logger `group:"Logger options"`

	Dir string `short:"d" long:"dir" description:"Assets directory" default:"assets"`
}

type PageData struct {
	CSS string
	JS  string
	SVG string
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

	opts.Logger.Setup()

	m := minify.New()
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/javascript", js.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)

	read := func(name, mediatype string) string {
		raw, err := os.ReadFile(filepath.Join(opts.Dir, name))
		if err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("Read asset failed")
		}
		out, err := m.String(mediatype, string(raw))
		if err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("Minify asset failed")
		}
		return out
	}

	data := PageData{
		CSS: read("style.css", "text/css"),
		JS:  read("script.js", "text/javascript"),
		SVG: read("favicon.svg", "image/svg+xml"),
	}

	htmlRaw, err := os.ReadFile(filepath.Join(opts.Dir, "index.html.tpl"))
	if err != nil {
		log.Fatal().Err(err).Msg("Read HTML template failed")
	}

	tmpl, err := template.New("index").Parse(string(htmlRaw))
	if err != nil {
		log.Fatal().Err(err).Msg("Parse HTML template failed")
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.Fatal().Err(err).Msg("Render HTML template failed")
	}

	finalHTML, err := m.String("text/html", buf.String())
	if err != nil {
		log.Fatal().Err(err).Msg("Minify HTML failed")
	}

	out := filepath.Join(opts.Dir, "index.html")
	if err := os.WriteFile(out, []byte(finalHTML), 0o644); err != nil {
		log.Fatal().Err(err).Msg("Write index failed")
	}

	log.Info().Str("file", out).Int("bytes", len(finalHTML)).Msg("Minify done")
}
