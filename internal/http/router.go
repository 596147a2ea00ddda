package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/traitdial/internal/http/handlers"
	httpMW "github.com/yungbote/traitdial/internal/http/middleware"
	"github.com/yungbote/traitdial/internal/observability"
	"github.com/yungbote/traitdial/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	AllowedOrigins []string

	RecommendHandler *httpH.RecommendHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "traitdial"
	}
	r.Use(otelgin.Middleware(serviceName))
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Recover(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}

	// Metrics
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	// Recommend. Every method is routed so the handler can answer 405 itself.
	if cfg.RecommendHandler != nil {
		r.Any("/recommend", cfg.RecommendHandler.Recommend)
		api := r.Group("/api")
		api.Any("/recommend", cfg.RecommendHandler.Recommend)
	}

	return r
}
