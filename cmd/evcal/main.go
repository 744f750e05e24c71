package main

import (
	"context"
	"flag"
	"net/url"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"evcal/internal/calendar"
	"evcal/internal/capture"
	"evcal/internal/config"
	appLog "evcal/internal/log"
	"evcal/internal/model"
	"evcal/internal/nav"
	"evcal/internal/snapshot"
	"evcal/internal/store"
	"evcal/internal/web"
)

// flagConfig holds CLI flag values that override the config file.
type flagConfig struct {
	configPath string
	listen     string
	demo       bool
	capture    bool
	debug      bool
}

func main() {
	appLog.Info("evcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		if conf == nil {
			appLog.Error("failed to load config", err, "config_path", flags.configPath)
			os.Exit(1)
		}
		appLog.Warn("could not write default config, continuing with defaults", "config_path", flags.configPath, "err", err)
	}

	if flags.listen != "" {
		conf.Listen = flags.listen
	}
	appLog.SetLevel(appLog.ParseLevel(conf.LogLevel))
	if flags.debug {
		appLog.SetLevel(appLog.LevelDebug)
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"timezone", conf.Timezone,
		"default_view", conf.DefaultView,
		"seed_file", conf.SeedFile,
		"snapshot_file", conf.SnapshotFile,
		"snapshot_cron", conf.SnapshotCron,
		"ics_count", len(conf.ICS),
		"demo", flags.demo,
		"capture", flags.capture,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		appLog.Info("signal received, shutting down", "signal", sig.String())
		cancel()
	}()

	events, origin := loadEvents(ctx, conf, flags.demo)
	st := store.New()
	st.Initialize(events)
	appLog.Info("events loaded", "source", origin, "count", st.Len(), "dropped", len(events)-st.Len())

	cal := calendar.New(st, initialView(conf, flags.demo))
	srv := web.NewServer(conf, cal)

	if flags.capture {
		if err := runCapture(ctx, conf, srv); err != nil {
			appLog.Error("capture failed", err)
			os.Exit(1)
		}
		appLog.Info("evcal exiting")
		return
	}

	saver := newSnapshotSaver(conf.SnapshotFile, st)
	sched := cron.New()
	if saver != nil {
		if _, err := sched.AddFunc(conf.SnapshotCron, saver.saveIfChanged); err != nil {
			appLog.Error("invalid snapshot_cron; periodic snapshots disabled", err, "cron", conf.SnapshotCron)
		} else {
			sched.Start()
		}
	}

	if err := srv.Run(ctx); err != nil {
		appLog.Error("HTTP server failed", err)
		cancel()
	}

	<-sched.Stop().Done()
	if saver != nil {
		saver.saveIfChanged()
	}
	appLog.Info("evcal exiting")
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "/etc/evcal/config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.demo, "demo", false, "Start with the built-in November 2024 demo events when nothing else is configured")
	flag.BoolVar(&cfg.capture, "capture", false, "Serve once, write a PNG of /calendar to capture.output and exit")
	flag.BoolVar(&cfg.debug, "debug", false, "Enable debug logging")

	flag.Parse()

	return cfg
}

// initialView anchors the first view on today in the configured timezone,
// or on the demo month.
func initialView(conf *config.Config, demo bool) nav.View {
	if demo {
		return nav.View{Granularity: conf.Granularity(), Reference: demoReference}
	}
	loc, err := time.LoadLocation(conf.Timezone)
	if err != nil {
		appLog.Warn("unknown timezone, using UTC", "timezone", conf.Timezone)
		loc = time.UTC
	}
	return nav.View{Granularity: conf.Granularity(), Reference: model.Today(loc)}
}

// snapshotSaver writes the collection whenever the store version moved
// since the last successful save.
type snapshotSaver struct {
	path  string
	store *store.Store

	mu    sync.Mutex
	saved uint64
}

func newSnapshotSaver(path string, st *store.Store) *snapshotSaver {
	if path == "" {
		appLog.Info("snapshot_file empty; persistence disabled")
		return nil
	}
	return &snapshotSaver{path: path, store: st, saved: st.Version()}
}

func (s *snapshotSaver) saveIfChanged() {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.store.Version()
	if v == s.saved {
		return
	}
	events := s.store.Events()
	if err := snapshot.Save(s.path, events); err != nil {
		appLog.Error("snapshot save failed", err, "path", s.path)
		return
	}
	s.saved = v
	appLog.Info("snapshot saved", "path", s.path, "count", len(events), "version", v)
}

// runCapture serves the calendar just long enough for the headless browser
// to screenshot it.
func runCapture(ctx context.Context, conf *config.Config, srv *web.Server) error {
	serveCtx, stop := context.WithCancel(ctx)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(serveCtx) }()

	// Give the listener a moment before the browser dials it.
	select {
	case err := <-errCh:
		return err
	case <-time.After(200 * time.Millisecond):
	}

	target := url.URL{Scheme: "http", Host: conf.Listen, Path: "/calendar"}
	if conf.BasicAuth != nil && conf.BasicAuth.Username != "" {
		target.User = url.UserPassword(conf.BasicAuth.Username, conf.BasicAuth.Password)
	}

	err := capture.CalendarPNG(ctx, capture.Options{
		URL:        target.String(),
		OutputPath: conf.Capture.Output,
		Width:      conf.Capture.Width,
		Height:     conf.Capture.Height,
		Timeout:    time.Duration(conf.Capture.TimeoutSec) * time.Second,
	})
	if err == nil {
		appLog.Info("calendar captured", "output", conf.Capture.Output)
	}

	stop()
	if runErr := <-errCh; runErr != nil && err == nil {
		err = runErr
	}
	return err
}
