package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kouki023/situation-in-the-electoral-district/config"
	"github.com/kouki023/situation-in-the-electoral-district/fetch"
	"github.com/kouki023/situation-in-the-electoral-district/metrics"
	"github.com/kouki023/situation-in-the-electoral-district/slack"
	"github.com/kouki023/situation-in-the-electoral-district/snapshot"
	"github.com/kouki023/situation-in-the-electoral-district/synchronizer"
)

const configFileName = "config.yaml"

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	banner := strings.Repeat("=", 50)
	fmt.Println(banner)
	fmt.Println("Candidate data update")
	fmt.Println(banner)

	startTime := time.Now()
	baseDir := programDir()
	configFile := filepath.Join(baseDir, configFileName)

	cfg, found, err := config.LoadOptional(configFile)
	if err != nil {
		logger.Error("failed to load config", "path", configFile, "error", err)
		finish(false)
	}
	if found {
		logger.Info("config loaded", "path", configFile)
	}
	cfg = cfg.Resolve(baseDir)

	ok := run(context.Background(), cfg, logger)
	logger.Info("run finished", "duration", time.Since(startTime).Round(time.Millisecond))
	finish(ok)
}

func finish(ok bool) {
	if ok {
		fmt.Println("\n✅ Update complete")
		os.Exit(0)
	}
	fmt.Println("\n❌ Update failed")
	os.Exit(1)
}

// run wires the components from cfg and performs one update.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) bool {
	fetcher := fetch.New(fetch.Config{
		URL:          cfg.Endpoint,
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UserAgent:    cfg.UserAgent,
	}, fetch.WithLogger(logger))
	store := snapshot.NewStore(cfg.SnapshotFile)

	opts := []synchronizer.Option{synchronizer.WithLogger(logger)}

	var recorder *metrics.Recorder
	if cfg.MetricsFile != "" {
		recorder = metrics.NewRecorder()
		opts = append(opts, synchronizer.WithRecorder(recorder))
	}
	if cfg.Slack.Enabled() {
		logger.Info("slack notifications enabled", "channel", cfg.Slack.Channel)
		notifier := slack.NewNotifier(slack.NewClient(cfg.Slack.Token), cfg.Slack.Channel)
		opts = append(opts, synchronizer.WithNotifier(notifier))
	}

	ok := synchronizer.New(fetcher, store, opts...).Run(ctx)

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}
	return ok
}

// programDir returns the directory holding the running executable, which
// is where the snapshot and config files live by default.
func programDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}
