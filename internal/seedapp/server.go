// Package seedapp is the small HTTP service the evolution agents extend.
package seedapp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/aiseed/internal/config"
)

const (
	AppName        = "AI Seed Application"
	AppDescription = "A self-evolving application powered by AI agents"
	AppVersion     = "1.0.0"

	shutdownTimeout = 10 * time.Second
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Server is the echo application plus its dependencies.
type Server struct {
	echo    *echo.Echo
	store   Store
	metrics *Metrics
	logger  *zap.Logger
	addr    string
	now     func() time.Time
}

// NewServer builds the router. A nil store falls back to a fresh MemoryStore.
func NewServer(cfg config.ServerConfig, store Store, logger *zap.Logger) *Server {
	if store == nil {
		store = NewMemoryStore()
	}
	s := &Server{
		echo:    echo.New(),
		store:   store,
		metrics: NewMetrics(),
		logger:  logger.Named("seedapp"),
		addr:    cfg.Addr,
		now:     time.Now,
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = jsonSerializer{}
	e.HTTPErrorHandler = s.handleError

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(s.requestLogger())
	e.Use(s.metrics.Middleware())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: origins}))

	e.GET("/", s.handleRoot)
	e.GET("/health", s.handleHealth)
	e.GET("/info", s.handleInfo)
	e.GET("/evolution-log", s.handleGetEvolutionLog)
	e.POST("/evolution-log", s.handleAddEvolutionEntry)
	e.GET("/features", s.handleGetFeatures)
	e.POST("/features", s.handleAddFeature)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{})))

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.echo }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting AI Seed Application.", zap.String("addr", s.addr))
		if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down AI Seed Application.")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Debug("Request served.",
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			)
			return nil
		},
	})
}

// errorEnvelope is the body of every error response.
type errorEnvelope struct {
	Error      string `json:"error"`
	StatusCode int    `json:"status_code"`
	Timestamp  string `json:"timestamp"`
}

func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := "Internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	} else {
		s.logger.Error("Unhandled exception.", zap.Error(err), zap.String("path", c.Request().URL.Path))
	}

	body := errorEnvelope{Error: message, StatusCode: code, Timestamp: s.now().Format(time.RFC3339Nano)}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, body)
	}
	if err != nil {
		s.logger.Error("Could not write error response.", zap.Error(err))
	}
}

// jsonSerializer backs echo's JSON binding and rendering with jsoniter.
type jsonSerializer struct{}

func (jsonSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := json.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (jsonSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := json.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid JSON body").SetInternal(err)
	}
	return nil
}
