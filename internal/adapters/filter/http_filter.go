package filter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/mikey/form-spam-filter/internal/config"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// HTTPFilter serves the public submission endpoint and the form management API
type HTTPFilter struct {
	service      *core.SubmissionService
	logger       *zap.Logger
	cfg          config.ServerConfig
	router       chi.Router
	server       *http.Server
	addr         string
	maxBodyBytes int64
}

// NewHTTPFilter creates a new HTTP filter
func NewHTTPFilter(service *core.SubmissionService, logger *zap.Logger, cfg config.ServerConfig) *HTTPFilter {
	f := &HTTPFilter{
		service:      service,
		logger:       logger,
		cfg:          cfg,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
	f.router = f.routes()
	return f
}

func (f *HTTPFilter) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(f.requestLogger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: f.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", f.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/f/{formID}", f.handleSubmit)

	r.Route("/api/forms", func(r chi.Router) {
		r.Post("/", f.handleCreateForm)
		r.Get("/", f.handleListForms)
		r.Get("/{formID}", f.handleGetForm)
		r.Delete("/{formID}", f.handleDeleteForm)
		r.Get("/{formID}/submissions", f.handleListSubmissions)
	})

	return r
}

// Handler returns the filter's HTTP handler
func (f *HTTPFilter) Handler() http.Handler {
	return f.router
}

// Start binds the listen address and serves in the background. A bind
// failure is returned to the caller.
func (f *HTTPFilter) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	f.server = &http.Server{
		Handler:      f.router,
		ReadTimeout:  f.cfg.ReadTimeout,
		WriteTimeout: f.cfg.WriteTimeout,
	}
	f.addr = ln.Addr().String()

	f.logger.Info("HTTP filter started", zap.String("address", f.addr))

	go func() {
		if err := f.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once Start has succeeded
func (f *HTTPFilter) Addr() string {
	return f.addr
}

// Stop gracefully shuts the HTTP server down
func (f *HTTPFilter) Stop() error {
	if f.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return f.server.Shutdown(ctx)
}

// ProcessSubmission hands a decoded submission to the service
func (f *HTTPFilter) ProcessSubmission(ctx context.Context, req *core.SubmissionRequest) (*core.SubmissionResult, error) {
	return f.service.Submit(ctx, req)
}

func (f *HTTPFilter) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (f *HTTPFilter) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, f.maxBodyBytes)

	payload, isJSON, err := decodePayload(r, f.maxBodyBytes)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := f.ProcessSubmission(r.Context(), &core.SubmissionRequest{
		FormID:     chi.URLParam(r, "formID"),
		Payload:    payload,
		RemoteAddr: clientIP(r.RemoteAddr),
		UserAgent:  r.UserAgent(),
	})
	if err != nil {
		f.respondServiceError(w, r, err)
		return
	}

	// Spam gets the same answer as an accepted submission
	if result.Form != nil && result.Form.RedirectURL != "" && !isJSON {
		http.Redirect(w, r, result.Form.RedirectURL, http.StatusSeeOther)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

type createFormRequest struct {
	OwnerID       string         `json:"ownerId"`
	Name          string         `json:"name"`
	HoneypotField string         `json:"honeypotField"`
	NotifyEmail   string         `json:"notifyEmail"`
	RedirectURL   string         `json:"redirectUrl"`
	Schema        map[string]any `json:"schema"`
}

func (f *HTTPFilter) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, f.maxBodyBytes)

	var req createFormRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	form, err := f.service.CreateForm(r.Context(), &core.Form{
		OwnerID:       req.OwnerID,
		Name:          req.Name,
		HoneypotField: req.HoneypotField,
		NotifyEmail:   req.NotifyEmail,
		RedirectURL:   req.RedirectURL,
		Schema:        req.Schema,
	})
	if err != nil {
		f.respondServiceError(w, r, err)
		return
	}

	f.logger.Info("Created form",
		zap.String("form_id", form.ID),
		zap.String("owner_id", form.OwnerID))
	respondJSON(w, http.StatusCreated, form)
}

func (f *HTTPFilter) handleListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := f.service.ListForms(r.Context(), r.URL.Query().Get("owner"))
	if err != nil {
		f.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"forms": forms})
}

func (f *HTTPFilter) handleGetForm(w http.ResponseWriter, r *http.Request) {
	form, err := f.service.GetForm(r.Context(), chi.URLParam(r, "formID"))
	if err != nil {
		f.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, form)
}

func (f *HTTPFilter) handleDeleteForm(w http.ResponseWriter, r *http.Request) {
	if err := f.service.DeleteForm(r.Context(), chi.URLParam(r, "formID")); err != nil {
		f.respondServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (f *HTTPFilter) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	subs, err := f.service.ListSubmissions(r.Context(), chi.URLParam(r, "formID"), limit, offset)
	if err != nil {
		f.respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"submissions": subs})
}

func (f *HTTPFilter) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *core.ValidationError
	switch {
	case errors.Is(err, core.ErrFormNotFound):
		respondError(w, http.StatusNotFound, "form not found")
	case errors.Is(err, core.ErrInvalidForm):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &validationErr):
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"errors": validationErr.Errors,
		})
	default:
		f.logger.Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func (f *HTTPFilter) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		f.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return n, nil
}

func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
