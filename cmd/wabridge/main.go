package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagent/wabridge/internal/config"
	"github.com/gagent/wabridge/internal/media"
	"github.com/gagent/wabridge/internal/server"
	"github.com/gagent/wabridge/internal/transport"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("wabridge v%s\n", version)
	case "serve":
		if err := serve(); err != nil {
			slog.Error("fatal", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("wabridge - local chat-transport bridge")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  wabridge serve     Start the bridge")
	fmt.Println("  wabridge version   Show version info")
}

func serve() error {
	home := config.ResolveHome()

	for _, dir := range []string{
		config.CredentialDir(),
		config.MediaDir(),
		config.LogsDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Warn("could not create directory", "dir", dir, "error", err)
		}
	}

	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Warn("config not found, using defaults", "path", cfgPath, "error", err)
		cfg = config.DefaultConfig()
		if err := config.WriteExample(cfgPath); err != nil {
			slog.Warn("could not write example config", "path", cfgPath, "error", err)
		}
	}
	config.Set(cfg)
	cfg = config.Get() // everything below reads the shared live pointer

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	})))
	slog.Info("wabridge starting", "version", version, "home", home)

	tr, err := transport.NewDriver(cfg.Transport.Driver)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutdown signal received", "signal", sig)
		cancel()
	}()

	srv := server.New(cfg, tr)
	config.RegisterOnReload(func(c *config.Config) {
		srv.SetToken(c.Server.Auth.Token)
	})
	go config.Watch(ctx, cfgPath)

	cleaner := media.NewCleaner(cfg.Transport.MediaDir, cfg.Cache.Sweep, time.Duration(cfg.Cache.RetentionDays)*24*time.Hour)
	cleaner.Start()
	defer cleaner.Stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	srv.Stop()
	return nil
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
