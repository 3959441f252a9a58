// Command trackc compiles a track outline into a track asset. With -watch
// it recompiles whenever the outline or its auxiliary file changes, and
// with -listen it serves collision queries for the current asset over a
// websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"honnef.co/go/racetrack"
	"honnef.co/go/racetrack/collision"
	"honnef.co/go/racetrack/internal/live"
	"honnef.co/go/racetrack/preview"
	"honnef.co/go/racetrack/spline"
)

const pollInterval = 250 * time.Millisecond

func main() {
	var (
		in          string
		aux         string
		out         string
		previewPath string
		scale       int
		width       float64
		verbose     bool
		profile     bool
		watch       bool
		listen      string
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [-v] [-watch] [-listen <addr>] -in <file.svg> -out <file.png>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.StringVar(&in, "in", "", "Path to the track outline `SVG`")
	flag.StringVar(&aux, "aux", "", "Path to the auxiliary `JSON` file (default: <in>.json)")
	flag.StringVar(&out, "out", "", "Path to the output `PNG`")
	flag.StringVar(&previewPath, "preview", "", "Write a preview image to `file`")
	flag.IntVar(&scale, "scale", preview.DefaultOptions().Scale, "Pixels per cell in the preview")
	flag.Float64Var(&width, "width", spline.DefaultOptions().DefaultWidth, "Track width of nodes without an override")
	flag.BoolVar(&verbose, "v", false, "Be verbose")
	flag.BoolVar(&profile, "profile", false, "Log the time spent in each compilation phase")
	flag.BoolVar(&watch, "watch", false, "Recompile when the inputs change")
	flag.StringVar(&listen, "listen", "", "Serve collision queries on `address` (implies -watch)")
	flag.Parse()

	if len(flag.Args()) != 0 || in == "" || out == "" {
		flag.Usage()
		os.Exit(2)
	}
	if aux == "" {
		aux = strings.TrimSuffix(in, ".svg") + ".json"
	}
	if listen != "" {
		watch = true
	}

	dief := func(f string, v ...any) {
		fmt.Fprintf(os.Stderr, f, v...)
		fmt.Fprintln(os.Stderr)
		os.Exit(1)
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	racetrack.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts := spline.DefaultOptions()
	opts.DefaultWidth = width
	cfg := racetrack.DefaultConfig()
	cfg.Profile = profile
	popts := preview.DefaultOptions()
	popts.Scale = scale

	b := &baker{
		svgPath:     in,
		auxPath:     aux,
		outPath:     out,
		previewPath: previewPath,
		opts:        opts,
		cfg:         cfg,
		preview:     popts,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, _, err := b.changed(); err != nil {
		dief("Couldn't read input: %s", err)
	}
	if err := b.load(); err != nil {
		dief("Couldn't load track: %s", err)
	}
	t, err := b.bake(ctx)
	if err != nil {
		dief("Couldn't compile track: %s", err)
	}
	if !watch {
		return
	}

	hub := live.NewHub(collision.NewEngine())
	hub.Swap(collision.NewTrack(t))
	if listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/ws", live.NewHandler(hub))
		srv := &http.Server{Addr: listen, Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				dief("Couldn't serve: %s", err)
			}
		}()
		defer srv.Close()
		racetrack.Logger().Info("serving collision queries", "addr", listen)
	}

	if err := run(ctx, b, hub); err != nil && !errors.Is(err, context.Canceled) {
		dief("%s", err)
	}
}

// run polls the inputs and rebuilds the track until ctx is done. Failed
// rebuilds are logged and leave the current track in place.
func run(ctx context.Context, b *baker, hub *live.Hub) error {
	log := racetrack.Logger()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		svg, aux, err := b.changed()
		if err != nil {
			log.Warn("couldn't check inputs", "err", err)
			continue
		}
		switch {
		case svg:
			err = b.load()
		case aux:
			err = b.reloadAux()
		default:
			continue
		}
		if err != nil {
			log.Warn("keeping previous track", "err", err)
			continue
		}
		t, err := b.bake(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Warn("keeping previous track", "err", err)
			continue
		}
		hub.Swap(collision.NewTrack(t))
	}
}
