package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func performRequest(t *testing.T, e *echo.Echo, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequestIDGeneratesID(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())

	var seen string
	e.GET("/test", func(c echo.Context) error {
		seen, _ = c.Get(RequestIDKey).(string)
		return c.NoContent(http.StatusOK)
	})

	rec := performRequest(t, e, nil)

	if seen == "" {
		t.Error("handler saw no request id on the context")
	}
	if got := rec.Header().Get(echo.HeaderXRequestID); got != seen {
		t.Errorf("response header id = %q, context id = %q", got, seen)
	}
}

func TestRequestIDHonoursInboundHeader(t *testing.T) {
	e := echo.New()
	e.Use(RequestID())
	e.GET("/test", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	rec := performRequest(t, e, map[string]string{echo.HeaderXRequestID: "caller-supplied-id"})

	if got := rec.Header().Get(echo.HeaderXRequestID); got != "caller-supplied-id" {
		t.Errorf("response id = %q, want caller-supplied-id", got)
	}
}

func TestLoggerEmitsRequestLine(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(RequestID())
	e.Use(Logger(logger))
	e.GET("/test", func(c echo.Context) error {
		return c.String(http.StatusTeapot, "short and stout")
	})

	performRequest(t, e, nil)

	line := buf.String()
	for _, want := range []string{`"method":"GET"`, `"path":"/test"`, `"status":418`, `"request_id"`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestLoggerQuietPathLogsAtDebug(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf).Level(zerolog.InfoLevel)

	e := echo.New()
	e.Use(Logger(logger, "/test"))
	e.GET("/test", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	performRequest(t, e, nil)

	if buf.Len() != 0 {
		t.Errorf("quiet path logged at info level: %s", buf.String())
	}
}

func TestRecoveryTurnsPanicInto500(t *testing.T) {
	var buf strings.Builder
	logger := zerolog.New(&buf)

	e := echo.New()
	e.Use(Recovery(logger))
	e.GET("/test", func(c echo.Context) error {
		panic("boom")
	})

	rec := performRequest(t, e, nil)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Errorf("missing panic log, got: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("panic value not logged: %s", buf.String())
	}
}
