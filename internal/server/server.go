package server

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/castock/listsync/internal/shared"
	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"
)

// Server is the development backend over a SQLite database.
type Server struct {
	db     *sql.DB
	secret string
	addr   string
	logger *log.Logger
}

// NewServer wires a Server over an open database. The secret signs and
// verifies the HS256 bearer tokens.
func NewServer(db *sql.DB, cfg shared.ServerConfig, secret string, logger *log.Logger) *Server {
	return &Server{
		db:     db,
		secret: secret,
		addr:   cfg.Addr(),
		logger: shared.WithLogger(logger, "component", "server"),
	}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.logRequests)

	r.HandleFunc("/v1/health", s.handleHealth).Methods(http.MethodGet)

	protected := r.PathPrefix("/v1").Subrouter()
	protected.Use(mux.MiddlewareFunc(authMiddleware(s.secret)))

	protected.HandleFunc("/lists", s.handleGetLists).Methods(http.MethodGet)
	protected.HandleFunc("/lists", s.handleCreateList).Methods(http.MethodPost)
	protected.HandleFunc("/lists/{id}", s.handleGetList).Methods(http.MethodGet)
	protected.HandleFunc("/lists/{id}", s.handlePutList).Methods(http.MethodPut)
	protected.HandleFunc("/lists/{id}", s.handleDeleteList).Methods(http.MethodDelete)
	protected.HandleFunc("/lists/{id}/items", s.handleGetItems).Methods(http.MethodGet)

	protected.HandleFunc("/items", s.handleCreateItem).Methods(http.MethodPost)
	protected.HandleFunc("/items/{id}", s.handlePutItem).Methods(http.MethodPut)
	protected.HandleFunc("/items/{id}", s.handleDeleteItem).Methods(http.MethodDelete)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("serving", "addr", s.addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// statusRecorder captures the response code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(started))
	})
}
