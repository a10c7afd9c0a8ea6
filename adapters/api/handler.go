// Package api exposes the rank sum test over HTTP.
package api

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"ranksum/adapters/stats/distributions"
	"ranksum/adapters/stats/wilcoxon"
	"ranksum/domain/core"
	"ranksum/domain/hypothesis"
	"ranksum/internal"
	"ranksum/internal/aok"
	"ranksum/internal/batch"
	"ranksum/internal/config"
	"ranksum/internal/errors"
	"ranksum/internal/jsonx"
)

const maxBodyBytes = 32 << 20

// Server serves the rank sum endpoints
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	runner *batch.Runner
	logger *internal.Logger
}

// NewServer creates a server. A nil logger disables logging.
func NewServer(cfg *config.Config, logger *internal.Logger) *Server {
	runner := batch.NewRunner(cfg.Batch.MaxConcurrency, logger)
	runner.Timeout = cfg.Batch.Timeout

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		runner: runner,
		logger: logger.WithComponent("API"),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// NewHandler returns the router of a new server
func NewHandler(cfg *config.Config, logger *internal.Logger) http.Handler {
	return NewServer(cfg, logger).router
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(s.logRequests)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Post("/v1/ranksum", s.handleTest)
	s.router.Post("/v1/ranksum/batch", s.handleBatch)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured port until ctx is cancelled, then
// shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         ":" + s.cfg.Server.Port,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("%s %s %d in %v", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

type testRequest struct {
	X      []float64 `json:"x"`
	Y      []float64 `json:"y"`
	AltHyp string    `json:"alt_hyp"`
	Alpha  *float64  `json:"alpha"`
	Sorted bool      `json:"sorted"`
}

type testResponse struct {
	ID       core.RequestID    `json:"id"`
	NX       uint64            `json:"n_x"`
	NY       uint64            `json:"n_y"`
	W        jsonx.Float       `json:"w"`
	RW       jsonx.Float       `json:"r_w"`
	UX       jsonx.Float       `json:"u_x"`
	UY       jsonx.Float       `json:"u_y"`
	U        jsonx.Float       `json:"u"`
	Z        jsonx.Float       `json:"z"`
	ZCrit    jsonx.Float       `json:"z_critical"`
	P        jsonx.Float       `json:"p"`
	Accepted hypothesis.Hyp    `json:"accepted"`
	AltHyp   hypothesis.AltHyp `json:"alt_hyp"`
	Alpha    float64           `json:"alpha"`
}

type batchRequest struct {
	Pairs  []batch.Pair `json:"pairs"`
	AltHyp string       `json:"alt_hyp"`
	Alpha  *float64     `json:"alpha"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	altHyp, alpha, err := s.resolve(req.AltHyp, req.Alpha)
	if err != nil {
		s.writeError(w, err)
		return
	}

	x, y := req.X, req.Y
	if !req.Sorted {
		x, y = slices.Clone(x), slices.Clone(y)
		slices.Sort(x)
		slices.Sort(y)
	}

	rs, err := wilcoxon.FromSlices(x, y)
	if err != nil {
		s.writeError(w, err)
		return
	}
	result, err := rs.Test(altHyp, alpha)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, testResponse{
		ID:       core.NewRequestID(),
		NX:       rs.NX(),
		NY:       rs.NY(),
		W:        jsonx.Float(rs.W()),
		RW:       jsonx.Float(rs.RW()),
		UX:       jsonx.Float(rs.MannWhitneyUX()),
		UY:       jsonx.Float(rs.MannWhitneyUY()),
		U:        jsonx.Float(rs.MannWhitneyU()),
		Z:        jsonx.Float(aok.Float(rs.Z())),
		ZCrit:    jsonx.Float(aok.Float(distributions.ZCritical(alpha, altHyp))),
		P:        jsonx.Float(result.P()),
		Accepted: result.Accepted(),
		AltHyp:   altHyp,
		Alpha:    alpha,
	})
}

func (s *Server) handleBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	altHyp, alpha, err := s.resolve(req.AltHyp, req.Alpha)
	if err != nil {
		s.writeError(w, err)
		return
	}

	report, err := s.runner.Run(r.Context(), req.Pairs, altHyp, alpha)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// resolve fills unset request fields from the configured defaults
func (s *Server) resolve(rawAltHyp string, rawAlpha *float64) (hypothesis.AltHyp, float64, error) {
	altHyp := s.cfg.Test.AltHyp
	if rawAltHyp != "" {
		parsed, err := hypothesis.ParseAltHyp(rawAltHyp)
		if err != nil {
			return altHyp, 0, err
		}
		altHyp = parsed
	}
	alpha := s.cfg.Test.Alpha
	if rawAlpha != nil {
		alpha = *rawAlpha
	}
	return altHyp, alpha, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.InvalidInput("malformed request body: " + err.Error())
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		s.logger.Warn("Request aborted: %v", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Code: errors.CodeInternalError, Message: err.Error()})
		return
	}

	appErr := errors.FromDomain(err)
	status := errors.HTTPStatus(appErr.Code)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed: %v", err)
	}
	writeJSON(w, status, errorResponse{Code: appErr.Code, Message: appErr.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
