package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"3nt3/datamakeover/intake"
)

//go:embed templates/*.html
var templateFS embed.FS

// AppContext carries the intake handler into request handlers.
type AppContext struct {
	echo.Context
	Intake *intake.Handler
}

// RouteRegistrar is implemented by components that serve their own routes,
// like the Drive storage backend's OAuth flow.
type RouteRegistrar interface {
	RegisterRoutes(e *echo.Echo)
}

type templateRenderer struct {
	tmpl *template.Template
}

func (t *templateRenderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	return t.tmpl.ExecuteTemplate(w, name, data)
}

type Server struct {
	e *echo.Echo
}

func NewServer(h *intake.Handler, log *slog.Logger, extra ...RouteRegistrar) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = &templateRenderer{
		tmpl: template.Must(template.ParseFS(templateFS, "templates/*.html")),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{"method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency}
			if v.Error != nil {
				log.Warn("Request failed", append(attrs, "error", v.Error)...)
				return nil
			}
			log.Debug("Request", attrs...)
			return nil
		},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			return next(&AppContext{c, h})
		}
	})

	e.GET("/", index)
	e.POST("/", submitForm)
	e.POST("/api/submissions", submitAPI)
	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	for _, r := range extra {
		r.RegisterRoutes(e)
	}

	return &Server{e: e}
}

func (s *Server) Handler() http.Handler {
	return s.e
}

// Start blocks until the server stops. It returns nil after Shutdown.
func (s *Server) Start(addr string) error {
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}
