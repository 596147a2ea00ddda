package app

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/traitdial/internal/config"
	"github.com/yungbote/traitdial/internal/docextract"
	httpapi "github.com/yungbote/traitdial/internal/http"
	httpH "github.com/yungbote/traitdial/internal/http/handlers"
	"github.com/yungbote/traitdial/internal/llm"
	"github.com/yungbote/traitdial/internal/observability"
	"github.com/yungbote/traitdial/internal/platform/logger"
	"github.com/yungbote/traitdial/internal/recommend"
)

type Services struct {
	Metrics   *observability.Metrics
	Extractor *docextract.Extractor
	Generator *llm.Client
	Recommend *recommend.Service

	objects *docextract.GCSOpener
}

func wireServices(ctx context.Context, log *logger.Logger, cfg *config.Config) (Services, error) {
	var out Services

	if cfg.Observability.MetricsEnabled {
		m, err := observability.NewMetrics()
		if err != nil {
			return Services{}, fmt.Errorf("init metrics: %w", err)
		}
		out.Metrics = m
	}

	opts := docextract.Options{
		FetchTimeout: cfg.Document.FetchTimeout.Duration,
		MaxBytes:     cfg.Document.MaxBytes,
		MaxPages:     cfg.Document.MaxPages,
		MaxChars:     cfg.Document.MaxChars,
	}
	if cfg.Document.GCSEnabled {
		objects, err := docextract.NewGCSOpener(ctx)
		if err != nil {
			// gs:// sources degrade to Unavailable like any other fetch failure.
			log.Warn("gcs disabled: client init failed", "error", err)
		} else {
			out.objects = objects
			opts.Objects = objects
		}
	}
	out.Extractor = docextract.New(opts)
	out.Generator = llm.New(cfg.OpenAI, log)
	out.Recommend = recommend.NewService(log, out.Extractor, out.Generator, out.Metrics)
	return out, nil
}

func wireRouter(log *logger.Logger, cfg *config.Config, s Services) *gin.Engine {
	return httpapi.NewRouter(httpapi.RouterConfig{
		Log:              log,
		Metrics:          s.Metrics,
		ServiceName:      cfg.Observability.ServiceName,
		AllowedOrigins:   cfg.HTTP.AllowedOrigins,
		RecommendHandler: httpH.NewRecommendHandler(log, s.Recommend, cfg.HTTP.MaxRequestBytes),
		HealthHandler:    httpH.NewHealthHandler(),
	})
}

func (s Services) close() error {
	if s.objects != nil {
		return s.objects.Close()
	}
	return nil
}
