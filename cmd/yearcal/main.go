package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"yearcal/internal/config"
	"yearcal/internal/ics"
	appLog "yearcal/internal/log"
	"yearcal/internal/storage"
	"yearcal/internal/store"
	"yearcal/internal/web"
)

type flagConfig struct {
	configPath string
	listen     string
	backupNow  bool
}

func main() {
	appLog.Info("yearcal starting", "version", "0.1.0")

	flags := parseFlags()

	conf, err := config.Load(flags.configPath)
	if err != nil {
		appLog.Error("failed to load config", err, "config_path", flags.configPath)
		os.Exit(1)
	}
	appLog.SetLevel(appLog.Level(conf.LogLevel))

	// CLI --listen overrides the config file listen address if provided.
	if flags.listen != "" {
		conf.Listen = flags.listen
	}

	appLog.Info("effective config",
		"listen", conf.Listen,
		"db_path", conf.DBPath,
		"log_level", conf.LogLevel,
		"backup_cron", conf.Backup.Cron,
	)

	db, err := storage.Open(conf.DBPath)
	if err != nil {
		appLog.Error("failed to open database", err, "db_path", conf.DBPath)
		os.Exit(1)
	}
	defer db.Close()

	st, err := store.Open(db)
	if err != nil {
		appLog.Error("failed to open store", err)
		os.Exit(1)
	}

	if flags.backupNow {
		if err := writeBackup(st, conf.Backup.Path); err != nil {
			appLog.Error("backup failed", err, "path", conf.Backup.Path)
			os.Exit(1)
		}
		appLog.Info("backup written", "path", conf.Backup.Path)
		return
	}

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

	// Scheduled ICS backups.
	var scheduler *cron.Cron
	if conf.Backup.Cron != "" {
		scheduler = cron.New()
		if _, err := scheduler.AddFunc(conf.Backup.Cron, func() {
			if err := writeBackup(st, conf.Backup.Path); err != nil {
				appLog.Error("scheduled backup failed", err, "path", conf.Backup.Path)
				return
			}
			appLog.Info("scheduled backup written", "path", conf.Backup.Path)
		}); err != nil {
			appLog.Error("invalid backup cron expression", err, "cron", conf.Backup.Cron)
			os.Exit(1)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	server := web.NewServer(conf, st, "http://"+conf.Listen)
	httpServer := &http.Server{
		Addr:    conf.Listen,
		Handler: server.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+conf.Listen)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			appLog.Error("HTTP server shutdown failed", err)
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}

	appLog.Info("yearcal exiting")
}

func writeBackup(st *store.Store, path string) error {
	if path == "" {
		return errors.New("backup path is empty")
	}
	body, err := ics.Export(st.Events(), st.Categories())
	if err != nil {
		return err
	}
	return os.WriteFile(path, body, 0o644)
}

func parseFlags() flagConfig {
	var cfg flagConfig

	flag.StringVar(&cfg.configPath, "config", "config.yaml", "Path to config file")
	flag.StringVar(&cfg.listen, "listen", "", "HTTP listen address (overrides config if set)")
	flag.BoolVar(&cfg.backupNow, "backup-now", false, "Write one ICS backup and exit")

	flag.Parse()

	return cfg
}
