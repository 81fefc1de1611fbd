package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/ulule/limiter/v3"
	"go.uber.org/zap"

	"organigrama/internal/apperror"
	"organigrama/internal/auth"
	"organigrama/internal/service"
)

type TokenParser interface {
	Parse(raw string) (auth.Claims, error)
}

type Options struct {
	// OrgChartVista is the vista a token must carry to read the chart.
	OrgChartVista string
	// Health is probed by /healthcheck when set.
	Health func(ctx context.Context) error
	// LoginLimiter throttles /auth/login per client IP when set.
	LoginLimiter *limiter.Limiter
}

type Handler struct {
	orgChart service.OrgChart
	auth     service.Authenticator
	tokens   TokenParser
	logger   *zap.Logger
	options  Options
	validate *validator.Validate
	router   *mux.Router
}

func NewHandler(orgChart service.OrgChart, authenticator service.Authenticator, tokens TokenParser, logger *zap.Logger, options Options) *Handler {
	if options.OrgChartVista == "" {
		options.OrgChartVista = "Organigrama"
	}

	h := &Handler{
		orgChart: orgChart,
		auth:     authenticator,
		tokens:   tokens,
		logger:   logger,
		options:  options,
		validate: newValidator(),
	}
	h.router = h.routes()
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(h.instrument)

	r.HandleFunc("/healthcheck", h.handleHealthcheck).Methods(http.MethodGet)

	var login http.Handler = http.HandlerFunc(h.handleLogin)
	if h.options.LoginLimiter != nil {
		login = h.rateLimit(h.options.LoginLimiter, login)
	}
	r.Handle("/auth/login", login).Methods(http.MethodPost)
	r.Handle("/auth/me", h.requireAuth(http.HandlerFunc(h.handleMe))).Methods(http.MethodGet)

	r.Handle("/organigrama", h.guardOrgChart(h.handleGetRoot)).Methods(http.MethodGet)
	r.Handle("/organigrama/expandir", h.guardOrgChart(h.handleExpand)).Methods(http.MethodGet)

	// mux middleware only wraps matched routes
	r.NotFoundHandler = h.instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	}))
	r.MethodNotAllowedHandler = h.instrument(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}))

	return r
}

func (h *Handler) guardOrgChart(next http.HandlerFunc) http.Handler {
	return h.requireAuth(h.requireVista(h.options.OrgChartVista, next))
}

type loginRequest struct {
	DNI      string `json:"dni" validate:"required,max=20"`
	Password string `json:"password" validate:"required,max=128"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		DNI:      req.DNI,
		Password: req.Password,
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	writeData(w, http.StatusOK, result)
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())
	writeData(w, http.StatusOK, map[string]interface{}{
		"usuario": identity,
	})
}

func (h *Handler) handleGetRoot(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	root, err := h.orgChart.BuildRoot(r.Context(), service.RootQuery{
		Area:   query.Get("area"),
		Status: query.Get("estado"),
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]interface{}{
		"organigrama": root,
	})
}

func (h *Handler) handleExpand(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	dni := strings.TrimSpace(query.Get("dni"))
	if dni == "" {
		h.respondWithError(w, apperror.MissingParameter("dni"))
		return
	}

	expansion, err := h.orgChart.Expand(r.Context(), service.ExpandQuery{
		ID:     dni,
		Area:   query.Get("area"),
		Status: query.Get("estado"),
	})
	if err != nil {
		h.respondWithError(w, err)
		return
	}

	writeData(w, http.StatusOK, expansion)
}

func (h *Handler) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	if h.options.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.options.Health(ctx); err != nil {
			h.logger.Warn("healthcheck failed", zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) respondWithError(w http.ResponseWriter, err error) {
	switch apperror.GetCode(err) {
	case apperror.CodeMissingParameter, apperror.CodeValidation:
		writeError(w, http.StatusBadRequest, err.Error())
	case apperror.CodeUnauthorized:
		writeError(w, http.StatusUnauthorized, err.Error())
	case apperror.CodeForbidden:
		writeError(w, http.StatusForbidden, err.Error())
	case apperror.CodeNotFound:
		writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error("unexpected error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func validationMessage(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "invalid request body"
	}

	first := validationErrors[0]
	if first.Tag() == "required" {
		return first.Field() + " is required"
	}
	return first.Field() + " is invalid"
}

func decodeJSON(r *http.Request, target interface{}) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		return errors.New("invalid JSON body")
	}

	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != io.EOF {
		return errors.New("invalid JSON body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, map[string]interface{}{
		"success": true,
		"data":    data,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"success": false,
		"message": message,
	})
}
