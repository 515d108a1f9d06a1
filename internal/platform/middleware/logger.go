package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Logger emits one structured line per request. Paths listed in quiet are
// logged at debug level so health probes and metric scrapes stay out of the
// info log.
func Logger(logger zerolog.Logger, quiet ...string) echo.MiddlewareFunc {
	quietPaths := make(map[string]struct{}, len(quiet))
	for _, p := range quiet {
		quietPaths[p] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid, _ := c.Get(RequestIDKey).(string)

			err := next(c)

			var evt *zerolog.Event
			_, isQuiet := quietPaths[req.URL.Path]
			switch {
			case err != nil:
				evt = logger.Error().Err(err)
			case isQuiet:
				evt = logger.Debug()
			default:
				evt = logger.Info()
			}

			evt.
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", c.Response().Status).
				Dur("latency", time.Since(start)).
				Str("remote_ip", c.RealIP()).
				Msg("ops request")

			return err
		}
	}
}
