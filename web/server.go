// Package web serves the servo control page and its form endpoints.
package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"servoap/servo"
)

// MaxBodySize bounds the request body of the control forms.
const MaxBodySize = 512

// Actuator is the servo the handlers drive.
type Actuator interface {
	Rotate(dir servo.Direction, turns int)
	HoldDuty(duty servo.Duty)
	Duty() servo.Duty
	Busy() bool
}

// Config holds HTTP server settings.
type Config struct {
	Listen      string        `yaml:"listen"`
	ReadTimeout time.Duration `yaml:"read_timeout"`
	MaxConns    int           `yaml:"max_conns"`
}

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Listen == "" {
		c.Listen = ":80"
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.MaxConns == 0 {
		c.MaxConns = 7
	}
}

// Server is the HTTP front end of the servo.
type Server struct {
	cfg    Config
	servo  Actuator
	logger *zap.SugaredLogger
	srv    *http.Server
}

// New creates a Server. Call Defaults on cfg first.
func New(cfg Config, act Actuator, logger *zap.SugaredLogger) *Server {
	s := &Server{
		cfg:    cfg,
		servo:  act,
		logger: logger,
	}
	// No write timeout: a rotation keeps its handler busy for turns seconds.
	s.srv = &http.Server{
		Handler:     s.Routes(),
		ReadTimeout: cfg.ReadTimeout,
	}
	return s
}

// Routes returns the request router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/status", s.handleStatus)
	r.Post("/control", s.handleControl)
	r.Post("/control-duty", s.handleControlDuty)
	return r
}

// ListenAndServe accepts connections on cfg.Listen, at most cfg.MaxConns at
// a time, until Shutdown is called.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Listen, err)
	}
	s.logger.Infof("HTTP listening on %s", ln.Addr())

	err = s.srv.Serve(netutil.LimitListener(ln, s.cfg.MaxConns))
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting connections and waits for running handlers.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := pageData{Duty: uint32(s.servo.Duty()), Busy: s.servo.Busy()}
	if err := indexPage.Execute(w, data); err != nil {
		s.logger.Errorf("render index: %v", err)
	}
}

type statusResponse struct {
	Duty uint32 `json:"duty"`
	Busy bool   `json:"busy"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, statusResponse{Duty: uint32(s.servo.Duty()), Busy: s.servo.Busy()})
}

func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	defer redirectHome(w, r)

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	turns, direction, ok, err := parseControl(body)
	if !s.parsed(ok, err) {
		return
	}
	s.logger.Infof("Number of turns: %d", turns)
	s.logger.Infof("Direction: %s", direction)

	s.servo.Rotate(servo.ParseDirection(direction), turns)
}

func (s *Server) handleControlDuty(w http.ResponseWriter, r *http.Request) {
	defer redirectHome(w, r)

	body, ok := s.readBody(w, r)
	if !ok {
		return
	}

	duty, ok, err := parseDuty(body)
	if !s.parsed(ok, err) {
		return
	}
	s.logger.Infof("Duty: %d", duty)

	s.servo.HoldDuty(duty)
}

func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	s.logger.Infof("Received POST request with content length: %d", r.ContentLength)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodySize))
	if err != nil {
		s.logger.Errorf("Failed to receive POST data: %v", err)
		return nil, false
	}
	if len(body) == 0 {
		s.logger.Error("Failed to receive POST data: empty body")
		return nil, false
	}
	s.logger.Infof("Received data: %s", body)
	return body, true
}

// parsed logs why a form could not be used and reports whether it can.
func (s *Server) parsed(ok bool, err error) bool {
	switch {
	case err != nil:
		s.logger.Errorf("Failed to parse form data: %v", err)
		return false
	case !ok:
		s.logger.Error("Failed to parse form data: missing field")
		return false
	}
	return true
}

// redirectHome sends the client back to the control page whatever the
// outcome of the request.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusSeeOther)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debugw("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
