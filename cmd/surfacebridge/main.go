package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/surfacebridge/internal/api"
	"github.com/dgnsrekt/surfacebridge/internal/browser"
	"github.com/dgnsrekt/surfacebridge/internal/config"
	"github.com/dgnsrekt/surfacebridge/internal/controller"
	"github.com/dgnsrekt/surfacebridge/internal/dispatch"
	"github.com/dgnsrekt/surfacebridge/internal/engine"
	"github.com/dgnsrekt/surfacebridge/internal/hostlink"
	"github.com/dgnsrekt/surfacebridge/internal/metrics"
	"github.com/dgnsrekt/surfacebridge/internal/netutil"
	"github.com/dgnsrekt/surfacebridge/internal/notify"
	"github.com/dgnsrekt/surfacebridge/internal/printjob"
	"github.com/dgnsrekt/surfacebridge/internal/router"
	"github.com/dgnsrekt/surfacebridge/internal/surface"
	"github.com/dgnsrekt/surfacebridge/internal/uiloop"
	"github.com/dgnsrekt/surfacebridge/internal/viewtree"
)

const startSurfaceTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("surfacebridge config loaded",
		"cdp_url", cfg.CDPURL(),
		"bind_addr", cfg.BindAddr,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"start_url", cfg.StartURL,
		"messaging_module", cfg.MessagingModule,
		"messaging_enabled", cfg.MessagingEnabled,
		"selection_timeout", cfg.SelectionTimeout,
		"print_dir", cfg.PrintDir,
		"journal_enabled", cfg.JournalEnabled,
		"journal_dir", cfg.JournalDir,
		"launch_browser", cfg.LaunchBrowser,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
	)

	menuItems, err := config.LoadMenuItems(cfg.MenuItemsFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Debug("menu items file not found, using engine menu", "path", cfg.MenuItemsFile)
	case err != nil:
		slog.Error("failed to load menu items", "path", cfg.MenuItemsFile, "error", err)
		os.Exit(1)
	default:
		slog.Info("menu items loaded", "path", cfg.MenuItemsFile, "count", len(menuItems))
	}

	m := metrics.New()

	var recorder dispatch.Recorder
	if cfg.JournalEnabled {
		journal := dispatch.NewJournal(cfg.JournalDir, cfg.JournalBuffer, cfg.JournalMaxMB)
		defer func() {
			if err := journal.Close(); err != nil {
				slog.Warn("journal close failed", "error", err)
			}
		}()
		recorder = journal
	}
	broker := dispatch.NewBroker(recorder)
	hub := hostlink.NewHub(m)

	spool, err := printjob.NewSpool(cfg.PrintDir)
	if err != nil {
		slog.Error("failed to open print spool", "dir", cfg.PrintDir, "error", err)
		os.Exit(1)
	}
	if cfg.NotifyURL != "" {
		spool.OnSaved(notify.New(cfg.NotifyURL, nil).PrintSavedAsync)
	}

	if cfg.LaunchBrowser {
		launcher := browser.NewLauncher(browser.Config{
			BinaryPath: cfg.BrowserPath,
			CDPAddress: cfg.CDPAddress,
			CDPPort:    cfg.CDPPort,
			ProfileDir: cfg.BrowserProfileDir,
			Headless:   cfg.BrowserHeadless,
		})
		if err := launcher.Launch(context.Background()); err != nil {
			slog.Error("failed to launch browser", "error", err)
			os.Exit(1)
		}
		defer launcher.Stop()
	}

	alloc := engine.NewRemoteAllocator(cfg.CDPURL())
	defer alloc.Close()

	loop, err := uiloop.New()
	if err != nil {
		slog.Error("failed to create ui loop", "error", err)
		os.Exit(1)
	}
	loop.Start()
	defer loop.Stop()

	svc := controller.NewService(controller.Options{
		Loop:     loop,
		Registry: viewtree.NewRegistry[*surface.Surface](),
		OpenEngine: func(ctx context.Context) (surface.Engine, error) {
			p, err := alloc.Open(ctx)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Dispatcher: broker,
		Sink:       hostSink(hub),
		Prints:     spool,
		Metrics:    m,
		Defaults: controller.SurfaceDefaults{
			ModuleName:       cfg.MessagingModule,
			PrintCommand:     cfg.PrintCommand,
			SelectionTimeout: cfg.SelectionTimeout,
			MessagingEnabled: cfg.MessagingEnabled,
			MenuItems:        menuItems,
		},
	})

	startCtx, startCancel := context.WithTimeout(context.Background(), startSurfaceTimeout)
	info, err := svc.CreateSurface(startCtx, controller.CreateSurfaceRequest{URL: cfg.StartURL})
	startCancel()
	if err != nil {
		slog.Error("failed to open start surface", "cdp_url", cfg.CDPURL(), "url", cfg.StartURL, "error", err)
		os.Exit(1)
	}
	slog.Info("start surface attached", "tag", info.Tag, "url", cfg.StartURL)

	ln, err := netutil.Listen(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}
	bindAddr := ln.Addr().String()

	// Cancelled on shutdown so long-lived event streams return.
	baseCtx, baseCancel := context.WithCancel(context.Background())
	defer baseCancel()

	h := api.NewServer(svc, api.Streams{
		Events:   dispatch.SSEHandler(broker),
		HostLink: hub.Handler(),
		Metrics:  m.Handler(),
	})
	srv := &http.Server{
		Handler:     h,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	go func() {
		slog.Info("surfacebridge listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("surfacebridge server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := svc.Shutdown(ctx); err != nil {
		slog.Error("surface shutdown failed", "error", err)
	}
	hub.Close()
	baseCancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("surfacebridge shutdown failed", "error", err)
	}
	slog.Info("surfacebridge stopped", "events_dispatched", broker.LastSeq(), "events_dropped", broker.Dropped())
}

// hostSink resolves the linked host module, if any, without handing the
// router a typed nil.
func hostSink(hub *hostlink.Hub) func(module string) router.MessageSink {
	return func(module string) router.MessageSink {
		if link := hub.Sink(module); link != nil {
			return link
		}
		return nil
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
