package proxy

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/gido-dev/gido/internal/errors"
)

// maxRequestBody bounds the size of an incoming chat request.
const maxRequestBody = 1 << 20

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error   string  `json:"error"`
	Details *string `json:"details,omitempty"`
}

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the request ID assigned to the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Handler returns the HTTP surface of the proxy.
func (p *Proxy) Handler() http.Handler {
	return p.handler
}

func (p *Proxy) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(p.requestLogger)
	r.Use(p.recoverer)
	r.Use(cors)
	r.Use(chimiddleware.RequestSize(maxRequestBody))

	r.Get("/health", handleHealth)
	r.Options("/api/chat", handlePreflight("POST, OPTIONS"))
	r.Post("/api/chat", p.handleChat)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, ErrorResponse{Error: "Method not allowed"})
	})

	return r
}

// ServeHTTP implements http.Handler
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.handler.ServeHTTP(w, r)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handlePreflight(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (p *Proxy) handleChat(w http.ResponseWriter, r *http.Request) {
	startTime := time.Now()

	var (
		result *Result
		err    error
	)
	body, readErr := io.ReadAll(r.Body)
	var tooLarge *http.MaxBytesError
	if errors.As(readErr, &tooLarge) {
		err = errors.RequestTooLarge(tooLarge.Limit)
	} else if readErr != nil {
		err = errors.InvalidRequest("Invalid request")
	} else {
		result, err = p.SubmitChat(r.Context(), body, r.Header.Get("Referer"))
	}

	status := http.StatusOK
	if err != nil {
		status = writeError(w, err)
		p.config.Logger.Debug("chat request failed", "request_id", RequestID(r.Context()), "status", status, "error", err)
	} else {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write(result.Body)
	}

	if p.auditLog != nil {
		entry := auditEntry{
			Timestamp:   startTime,
			Duration:    time.Since(startTime),
			RequestID:   RequestID(r.Context()),
			Method:      r.Method,
			Path:        r.URL.Path,
			StatusCode:  status,
			RequestSize: int64(len(body)),
			RemoteAddr:  r.RemoteAddr,
		}
		if result != nil {
			entry.Model = result.Model
			entry.ResponseSize = int64(len(result.Body))
		}
		if err != nil {
			entry.ErrorKind = errorKind(err)
		}
		p.auditLog.log(entry)
	}
}

// writeError writes err as an ErrorResponse and returns the status used.
func writeError(w http.ResponseWriter, err error) int {
	var gidoErr *errors.Error
	if !errors.As(err, &gidoErr) {
		gidoErr = errors.InternalError(err)
	}

	resp := ErrorResponse{Error: gidoErr.Message}
	if gidoErr.Kind == errors.KindUpstream {
		details := gidoErr.Details
		resp.Details = &details
	}

	status := errors.HTTPStatus(gidoErr)
	writeJSON(w, status, resp)
	return status
}

func errorKind(err error) string {
	var gidoErr *errors.Error
	if errors.As(err, &gidoErr) {
		return string(gidoErr.Kind)
	}
	return string(errors.KindInternal)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// cors allows browser clients from any origin.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Expose-Headers", "X-Request-Id")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-Id", id)
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (p *Proxy) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		p.config.Logger.Info("request",
			"request_id", RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"remote", r.RemoteAddr)
	})
}

// recoverer turns a handler panic into a 500 InternalError response.
func (p *Proxy) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			p.config.Logger.Error("handler panic",
				"request_id", RequestID(r.Context()),
				"panic", rec,
				"stack", string(debug.Stack()))
			writeError(w, errors.InternalError(nil))
		}()

		next.ServeHTTP(w, r)
	})
}
