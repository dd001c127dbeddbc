package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/fsnotify/fsnotify"

	"solhelm/internal/app"
	"solhelm/internal/config"
	"solhelm/internal/logger"
)

func main() {
	cfgPath := os.Getenv("SOLHELM_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, warnings, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("loading config failed: %v", err)
	}
	logFile, err := setupLogOutput(cfg.App.LogPath)
	if err != nil {
		log.Fatalf("initializing log file failed: %v", err)
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger.SetLevel(cfg.App.LogLevel)
	for _, w := range warnings {
		logger.Warnf("config: %s", w)
	}
	logger.Infof("config loaded (env=%s, store=%s)", cfg.App.Env, cfg.Store.Path)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go watchLogLevel(ctx, cfgPath)

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("initializing app failed: %v", err)
	}
	if err := a.Run(ctx); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}

func setupLogOutput(path string) (*os.File, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, nil
	}
	dir := filepath.Dir(trimmed)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.OpenFile(trimmed, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	mw := io.MultiWriter(os.Stdout, file)
	log.SetOutput(mw)
	logger.SetOutput(mw)
	return file, nil
}

// watchLogLevel re-applies app.log_level when the config file is rewritten.
// Everything else in the config stays immutable for the process lifetime.
func watchLogLevel(ctx context.Context, cfgPath string) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("config watch unavailable: %v", err)
		return
	}
	defer watcher.Close()
	if err := watcher.Add(filepath.Dir(cfgPath)); err != nil {
		logger.Warnf("config watch unavailable: %v", err)
		return
	}
	abs, _ := filepath.Abs(cfgPath)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-watcher.Events:
			if !ok {
				return
			}
			evAbs, _ := filepath.Abs(ev.Name)
			if evAbs != abs || !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			fresh, _, err := config.Load(cfgPath)
			if err != nil {
				logger.Warnf("config reload skipped: %v", err)
				continue
			}
			logger.SetLevel(fresh.App.LogLevel)
			logger.Infof("log level set to %s", fresh.App.LogLevel)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Warnf("config watch: %v", err)
		}
	}
}
