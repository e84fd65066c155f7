package api

import (
	"context"
	"net/http"
	"pastelite/cfg"
	"pastelite/pkg/clock"
	"pastelite/svc/svc"
	"pastelite/svc/util"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/hlog"
)

type Server struct {
	router     *chi.Mux
	paste      *svc.Paste
	cfg        *cfg.Cfg
	httpServer *http.Server
}

func NewServer(c *cfg.Cfg, p *svc.Paste, clk clock.Clock) *Server {
	r := chi.NewRouter()
	mw := NewMw(c, clk)
	s := &Server{
		router: r,
		paste:  p,
		cfg:    c,
		httpServer: &http.Server{
			Addr:           ":" + c.Port,
			Handler:        r,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
			IdleTimeout:    60 * time.Second,
			MaxHeaderBytes: 64 * 1024,
		},
	}
	r.Use(mw.CORS)
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Get("/", s.Root)
		r.Get("/api/healthz", s.Health)
	})
	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Use(mw.BasicAuthMetrics)
		r.Handle("/metrics", promhttp.Handler())
		r.Mount("/debug", middleware.Profiler())
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.Recoverer)
		r.Use(mw.RequestID)
		r.Use(hlog.NewHandler(util.GetLogger()))
		r.Use(hlog.AccessHandler(func(req *http.Request, status, size int, dur time.Duration) {
			hlog.FromRequest(req).Info().
				Str("method", req.Method).
				Str("route", routePattern(req)).
				Int("status", status).
				Int("size", size).
				Dur("duration", dur).
				Str("client_ip", util.RedactIP(req.RemoteAddr)).
				Str("request_id", util.GetRequestID(req.Context())).
				Msg("http request")
		}))
		if c.TrustedProxies {
			r.Use(middleware.RealIP)
		}
		r.Use(mw.ContextTimeout)
		r.Use(mw.SecurityHeaders)
		r.Use(mw.Instrument)
		r.Use(mw.RequestClock)
		hdl := &Hdl{paste: p, cfg: c, clock: clk}
		r.Route("/api/pastes", func(r chi.Router) {
			r.Use(mw.JSONContentType)
			r.Post("/", hdl.CreatePaste)
			r.Get("/{id}", hdl.GetPaste)
		})
		r.Get("/p/{id}", hdl.ViewPaste)
	})
	return s
}
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
func (s *Server) Start() error {
	util.Info().Str("port", s.cfg.Port).Msg("starting server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		util.Error().Err(err).Str("port", s.cfg.Port).Msg("server failed to start")
		return err
	}
	return nil
}
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
