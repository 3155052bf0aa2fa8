// Package routes exposes the encode/decode API and its admin endpoints.
package routes

import (
	"net/http"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vidstego/auth"
	"vidstego/job"
	"vidstego/logger"
	"vidstego/storage"
	"vidstego/taskqueue"
)

// API carries the dependencies shared by the handlers.
type API struct {
	Storage        *storage.Manager
	Processor      *job.Processor
	Dispatcher     *taskqueue.Dispatcher
	MaxUploadBytes int64
	QueueTimeout   time.Duration     // how long a request may wait for a worker
	Auth           *auth.VerifyConfig // nil disables authentication

	inflight sync.WaitGroup
}

// NewRouter wires every endpoint onto a chi router.
func NewRouter(api *API) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(api.track)
	r.Use(middleware.Recoverer)
	r.Use(cors)
	if api.Auth != nil {
		r.Use(auth.Middleware(*api.Auth, "/", "/health", "/version"))
	}

	r.Get("/", api.RootHandler)
	r.Post("/encode/", api.EncodeHandler)
	r.Post("/decode/", api.DecodeHandler)

	r.Get("/processed/{name}", api.DownloadHandler)
	r.Delete("/processed/{name}", api.DeleteHandler)

	r.Get("/health", api.HealthHandler)
	r.Get("/version", VersionHandler)
	r.Get("/status", api.JobStatusHandler)
	r.Get("/failures", FailureQueryHandler)
	r.Get("/failures/list", FailureListHandler)
	r.Get("/success", SuccessQueryHandler)
	r.Get("/success/list", SuccessListHandler)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		logger.Warnf("Invalid method %s for %s", r.Method, r.URL.Path)
		writeDetail(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not found")
	})
	return r
}

// Wait blocks until every request that entered the router has returned.
// Call it after http.Server.Shutdown so stores outlive their handlers.
func (api *API) Wait() {
	api.inflight.Wait()
}

func (api *API) track(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		api.inflight.Add(1)
		defer api.inflight.Done()
		next.ServeHTTP(w, r)
	})
}

// requester names the caller for logs: the token subject when auth is on.
func requester(r *http.Request) string {
	if claims, ok := auth.FromContext(r.Context()); ok && claims.Subject != "" {
		return claims.Subject
	}
	return "anonymous"
}

// RootHandler reports that the service is up.
func (api *API) RootHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "Video Steganography API is running. Use /encode/ and /decode/.",
	})
}

// cors allows every origin, method and header.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		h.Set("Access-Control-Expose-Headers", "Content-Disposition")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := sonic.Marshal(v)
	if err != nil {
		logger.Errorf("Failed to encode response: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(data)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
