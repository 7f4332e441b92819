package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bz888/tsdr/internal/api"
	"github.com/bz888/tsdr/internal/api/server"
	"github.com/bz888/tsdr/internal/api/server/client"
	"github.com/bz888/tsdr/internal/config"
	"github.com/bz888/tsdr/internal/i18n"
	"github.com/bz888/tsdr/internal/logger"
	"github.com/bz888/tsdr/internal/preference"
	"github.com/bz888/tsdr/internal/ui"
	"github.com/rivo/tview"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const shutdownGrace = 5 * time.Second

func Execute() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Server.ServerOnly {
		err = runServer(ctx, cfg)
	} else {
		err = runUI(ctx, cfg)
	}
	logger.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	if err := logger.InitLogger(logger.Options{
		Level:   cfg.Logging.Level,
		LogPath: cfg.Logging.Path,
		Console: os.Stderr,
	}); err != nil {
		return err
	}

	srv, err := newServer(ctx, cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runUI(ctx context.Context, cfg *config.Config) error {
	app := tview.NewApplication()
	app.EnablePaste(true)

	opts := logger.Options{Level: cfg.Logging.Level, LogPath: cfg.Logging.Path}
	var console *tview.TextView
	if cfg.Logging.Dev {
		console = ui.NewDebugConsole(app)
		opts.Console = console
	}
	if err := logger.InitLogger(opts); err != nil {
		return err
	}
	log := logger.NewLogger("main")

	serverURL := cfg.Server.URL
	if serverURL == "" {
		srv, err := newServer(ctx, cfg)
		if err != nil {
			return err
		}
		ln, err := srv.Listen()
		if err != nil {
			return fmt.Errorf("start embedded server: %w", err)
		}
		go func() {
			if err := srv.Serve(ln); err != nil {
				log.Error("Embedded server stopped", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("Server shutdown failed", zap.Error(err))
			}
		}()
		serverURL = localURL(cfg.Server.Addr)
	}

	apiClient, err := api.NewClient(serverURL)
	if err != nil {
		return err
	}

	store, closeStore, err := newStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	lang, err := preference.LoadLanguage(ctx, store, i18n.SystemLocale())
	if err != nil {
		log.Warn("Failed to load language preference", zap.Error(err))
	}

	shell := ui.New(app, ui.Options{
		Generator: apiClient,
		Store:     store,
		Language:  lang,
		Console:   console,
	})
	return shell.Run(ctx)
}

func newServer(ctx context.Context, cfg *config.Config) (*server.Server, error) {
	log := logger.NewLogger("server")
	completer, err := client.NewCompleter(ctx, cfg.ClientConfig(), logger.NewLogger("completion"))
	if err != nil {
		return nil, fmt.Errorf("create completion client: %w", err)
	}
	return server.New(cfg.Server.Addr, completer, log), nil
}

func newStore(cfg *config.Config) (preference.Store, func(), error) {
	if cfg.Preference.RedisAddr != "" {
		store, err := preference.NewRedisStore(preference.RedisConfig{
			Addr:     cfg.Preference.RedisAddr,
			Password: cfg.Preference.RedisPassword,
			DB:       cfg.Preference.RedisDB,
		}, logger.NewLogger("preference"))
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	}

	path := cfg.Preference.File
	if path == "" {
		var err error
		if path, err = preference.DefaultFilePath(); err != nil {
			return nil, nil, err
		}
	}
	return preference.NewFileStore(path), func() {}, nil
}

// localURL turns a listen address such as ":8080" into a URL the UI can call.
func localURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		return "http://localhost" + addr
	}
	return "http://" + addr
}
