package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitdial/internal/config"
	httpapi "github.com/yungbote/traitdial/internal/http"
	"github.com/yungbote/traitdial/internal/observability"
	"github.com/yungbote/traitdial/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Router   *gin.Engine
	Services Services

	server       *http.Server
	otelShutdown func(context.Context) error
}

// New wires the process from cfg. A nil cfg is loaded from the environment.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	if cfg == nil {
		loaded, err := config.Load()
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	log, err := logger.New(cfg.Env,
		logger.WithRedaction(cfg.Observability.LogRedaction),
		logger.WithHashSalt(cfg.Observability.LogHashSalt),
	)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown := observability.InitOTel(ctx, log, cfg.Observability, cfg.Env)

	serviceset, err := wireServices(ctx, log, cfg)
	if err != nil {
		_ = otelShutdown(ctx)
		log.Sync()
		return nil, err
	}
	if !cfg.HasCredentials() {
		log.Warn("OPENAI_API_KEY is not set; recommend requests will fail until it is configured")
	}

	if strings.EqualFold(cfg.Env, "production") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := wireRouter(log, cfg, serviceset)

	return &App{
		Log:          log,
		Cfg:          cfg,
		Router:       router,
		Services:     serviceset,
		server:       httpapi.NewServer(cfg.HTTP, router),
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP until ctx is cancelled, then drains within the shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.server == nil {
		return errors.New("app not initialized")
	}
	errCh := make(chan error, 1)
	go func() {
		a.Log.Info("http server listening", "addr", a.server.Addr, "model", a.Services.Generator.Model())
		errCh <- a.server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
		defer cancel()
		a.Log.Info("shutting down http server")
		return a.server.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if err := a.Services.close(); err != nil && a.Log != nil {
		a.Log.Warn("close services", "error", err)
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.HTTP.ShutdownTimeout.Duration)
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
