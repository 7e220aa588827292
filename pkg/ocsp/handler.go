package ocsp

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// maxRequestSize bounds the request body read by the HTTP handler.
const maxRequestSize = 1 << 16

// Handler returns an HTTP handler serving RFC 6960 GET and POST
// requests from the responder. GET carries the base64-encoded request
// in the path; POST carries the binary request in the body.
func (r *Responder) Handler(logger zerolog.Logger) http.Handler {
	mux := chi.NewRouter()
	mux.Use(middleware.RequestID)
	mux.Use(middleware.Recoverer)
	mux.Use(requestLogger(logger))

	mux.Get("/*", r.handleGet)
	mux.Post("/", r.handlePost)
	return mux
}

// requestLogger logs one line per request, dyocsp-style.
func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, req)
			logger.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote", req.RemoteAddr).
				Dur("elapsed", time.Since(start)).
				Msg("handled OCSP request")
		})
	}
}

func (r *Responder) handleGet(w http.ResponseWriter, req *http.Request) {
	encoded := strings.TrimPrefix(req.URL.Path, "/")
	if encoded == "" {
		http.Error(w, "empty OCSP request", http.StatusBadRequest)
		return
	}
	unescaped, err := url.PathUnescape(encoded)
	if err != nil {
		http.Error(w, "bad OCSP request encoding", http.StatusBadRequest)
		return
	}
	data, err := base64.StdEncoding.DecodeString(unescaped)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(unescaped)
		if err != nil {
			http.Error(w, "bad OCSP request encoding", http.StatusBadRequest)
			return
		}
	}
	r.serve(w, data)
}

func (r *Responder) handlePost(w http.ResponseWriter, req *http.Request) {
	if ct := req.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, ContentTypeRequest) {
		http.Error(w, "unsupported content type", http.StatusUnsupportedMediaType)
		return
	}
	data, err := io.ReadAll(io.LimitReader(req.Body, maxRequestSize))
	if err != nil || len(data) == 0 {
		http.Error(w, "empty OCSP request body", http.StatusBadRequest)
		return
	}
	r.serve(w, data)
}

func (r *Responder) serve(w http.ResponseWriter, reqData []byte) {
	respDER, err := r.ServeRequest(reqData)
	if err != nil {
		http.Error(w, "responder failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", ContentTypeResponse)
	w.Write(respDER)
}
