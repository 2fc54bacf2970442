package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/brain-trails/internal/infrastructure/logging"
	"go.uber.org/zap"
)

type LoggingConfig struct {
	// Skipper defines a function to skip middleware.
	Skipper middleware.Skipper
	// UserID resolves the authenticated learner once the handler chain has run, empty for anonymous calls
	UserID func(c echo.Context) string
}

// Logging access log of every request, server errors are logged at warn level
func Logging(base *zap.Logger, options ...*LoggingConfig) echo.MiddlewareFunc {
	cfg := &LoggingConfig{
		Skipper: middleware.DefaultSkipper,
		UserID:  func(echo.Context) string { return "" },
	}
	if len(options) > 0 {
		option := options[0]
		if option.Skipper != nil {
			cfg.Skipper = option.Skipper
		}
		if option.UserID != nil {
			cfg.UserID = option.UserID
		}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.Skipper(c) {
				return next(c)
			}
			start := time.Now()
			err := next(c)

			req := c.Request()
			fields := []zap.Field{
				zap.String("trace.id", c.Response().Header().Get(echo.HeaderXRequestID)),
				zap.String("http.request.method", req.Method),
				zap.String("url.path", req.URL.Path),
				zap.String("http.route", c.Path()),
				zap.String("client.address", c.RealIP()),
				zap.Int64("http.request.body.bytes", req.ContentLength),
				zap.Int64("http.response.body.bytes", c.Response().Size),
				zap.Duration("event.duration", time.Since(start)),
			}
			if uid := cfg.UserID(c); uid != "" {
				fields = append(fields, zap.String("user.id", uid))
			}
			if names := c.ParamNames(); len(names) > 0 {
				fields = append(fields,
					zap.Strings("route.params.name", names),
					zap.Strings("route.params.value", c.ParamValues()),
				)
			}
			code := c.Response().Status
			fields = append(fields, zap.Int("http.response.status_code", code))
			if code >= http.StatusInternalServerError {
				base.Warn(http.StatusText(code), fields...)
			} else {
				base.Debug(http.StatusText(code), fields...)
			}
			return err
		}
	}
}

// SetTraceLogger set logger binding with trace ID into context
func SetTraceLogger(base *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			logger := base.With(zap.String("trace.id", c.Response().Header().Get(echo.HeaderXRequestID)))
			c.SetRequest(r.WithContext(logging.SetLoggerInContext(r.Context(), logger)))
			return next(c)
		}
	}
}
