package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	anomalydomain "github.com/smallbiznis/aquabill/internal/anomaly/domain"
	"github.com/smallbiznis/aquabill/internal/config"
	ingestdomain "github.com/smallbiznis/aquabill/internal/ingest/domain"
	"github.com/smallbiznis/aquabill/internal/observability"
	obsmiddleware "github.com/smallbiznis/aquabill/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/aquabill/internal/observability/metrics"
	obstracing "github.com/smallbiznis/aquabill/internal/observability/tracing"
	reportdomain "github.com/smallbiznis/aquabill/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			log.Info("http server listening", zap.String("addr", cfg.HTTPAddr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine     *gin.Engine
	cfg        config.Config
	ingestSvc  ingestdomain.Service
	anomalySvc anomalydomain.Service
	reportSvc  reportdomain.Service
}

type ServerParams struct {
	fx.In

	Gin        *gin.Engine
	Cfg        config.Config
	IngestSvc  ingestdomain.Service
	AnomalySvc anomalydomain.Service
	ReportSvc  reportdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:     p.Gin,
		cfg:        p.Cfg,
		ingestSvc:  p.IngestSvc,
		anomalySvc: p.AnomalySvc,
		reportSvc:  p.ReportSvc,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/uploads", s.UploadLimit(), s.UploadFile)
	api.GET("/uploads", s.ListUploads)
	api.GET("/uploads/:id", s.GetUpload)

	api.GET("/records/:entity", s.ListRecords)

	api.GET("/anomalies", s.ListAnomalies)
	api.GET("/anomalies/summary", s.GetAnomalySummary)
	api.GET("/anomalies/export", s.ExportAnomalies)
	api.GET("/customers/:id/history", s.GetCustomerHistory)

	api.GET("/kpi", s.GetKPI)
	api.GET("/kpi/trend", s.GetKPITrend)
	api.GET("/unpaid", s.ListUnpaid)
	api.GET("/unpaid/summary", s.GetUnpaidSummary)
	api.GET("/performance", s.GetPerformance)
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
