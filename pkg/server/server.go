// Package server exposes evaluated runs over HTTP and triggers new ones, on
// demand via an authenticated endpoint or on a cron schedule.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/chargecost/chargecost/pkg/log"
	"github.com/chargecost/chargecost/pkg/storage"
	"github.com/chargecost/chargecost/pkg/types"
	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/levenlabs/go-lflag"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
)

// refreshFunc runs the evaluation pipeline and persists the run it returns.
// The binary wires this up; the server only decides when to call it.
type refreshFunc func(ctx context.Context) (types.Run, error)

// tokenVerifier validates a raw ID token and returns the email it asserts.
type tokenVerifier func(ctx context.Context, rawIDToken string) (string, error)

var errRefreshInProgress = errors.New("refresh already in progress")

// Server handles the HTTP API for serving run results and refreshing them.
type Server struct {
	storage storage.Database
	refresh refreshFunc

	listenAddr      string
	refreshEmail    string
	refreshSchedule cron.Schedule
	verifier        tokenVerifier
	bypassAuth      bool
	serverName      string

	// refreshMu serializes pipeline runs; a second refresh while one is in
	// flight is rejected rather than queued.
	refreshMu  sync.Mutex
	httpServer *http.Server
}

// Configured initializes the Server with dependencies.
// It uses lflag to register command-line flags for configuration.
func Configured(db storage.Database, refresh refreshFunc) *Server {
	srv := &Server{
		storage:    db,
		refresh:    refresh,
		serverName: "chargecost",
	}
	revision := os.Getenv("K_REVISION")
	if revision != "" {
		srv.serverName = revision
	}

	// get the port from PORT when running in cloud run
	port := os.Getenv("PORT")
	if port == "" {
		// otherwise default to 8080
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	oidcAudience := lflag.String("oidc-audience", "", "Audience/client ID to validate refresh id tokens against")
	refreshEmail := lflag.String("refresh-email", "", "Email address allowed to trigger /api/refresh")
	bypassAuth := lflag.Bool("bypass-auth", false, "Allow unauthenticated refresh requests (development only)")
	refreshSchedule := lflag.String("refresh-schedule", "", "Cron expression for automatic refreshes (empty disables)")

	lflag.Do(func() {
		srv.listenAddr = *listenAddr
		srv.refreshEmail = *refreshEmail
		srv.bypassAuth = *bypassAuth

		if *oidcAudience != "" {
			provider, err := oidc.NewProvider(context.Background(), "https://accounts.google.com")
			if err != nil {
				log.Ctx(context.Background()).Error("failed to initialize Google OIDC provider", slog.Any("error", err))
				os.Exit(1)
			}
			verifier := provider.Verifier(&oidc.Config{ClientID: *oidcAudience})
			srv.verifier = func(ctx context.Context, rawIDToken string) (string, error) {
				token, err := verifier.Verify(ctx, rawIDToken)
				if err != nil {
					return "", err
				}
				var claims struct {
					Email string `json:"email"`
				}
				if err := token.Claims(&claims); err != nil {
					return "", fmt.Errorf("failed to parse token claims: %w", err)
				}
				return claims.Email, nil
			}
		}

		if *refreshSchedule != "" {
			sched, err := cron.ParseStandard(*refreshSchedule)
			if err != nil {
				log.Ctx(context.Background()).Error("invalid refresh-schedule", slog.String("schedule", *refreshSchedule), slog.Any("error", err))
				os.Exit(1)
			}
			srv.refreshSchedule = sched
		}
	})

	return srv
}

func (s *Server) setupHandler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/run", s.handleGetRun)
	mux.HandleFunc("GET /api/runs", s.handleListRuns)
	mux.HandleFunc("GET /api/results", s.handleGetResults)
	mux.HandleFunc("GET /api/filtered", s.handleGetFiltered)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", s.handleHealthz)
	return s.revisionMiddleware(gziphandler.GzipHandler(s.securityHeadersMiddleware(mux)))
}

func (s *Server) securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Strict-Transport-Security: max-age=2 years
		w.Header().Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")

		// Prevent MIME-sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// Run starts the HTTP server and blocks until the context is canceled or an
// error occurs. It also handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:        s.listenAddr,
		Handler:     s.setupHandler(),
		ReadTimeout: 15 * time.Second,
		// a refresh evaluates the whole catalog inside the request
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  15 * time.Second,
	}

	if s.refreshSchedule != nil {
		go s.runScheduled(ctx)
	}

	// use a channel to capturing server errors
	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).InfoContext(ctx, "starting server", slog.String("addr", s.listenAddr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		// Context canceled, shut down gracefully
		log.Ctx(ctx).InfoContext(ctx, "shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}

// runScheduled fires the refresh callback on the configured cron schedule
// until the context is canceled.
func (s *Server) runScheduled(ctx context.Context) {
	for {
		next := s.refreshSchedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		log.Ctx(ctx).InfoContext(ctx, "scheduled refresh starting", slog.Time("scheduled", next))
		run, err := s.doRefresh(ctx)
		if err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "scheduled refresh failed", slog.Any("error", err))
			continue
		}
		log.Ctx(ctx).InfoContext(ctx, "scheduled refresh finished", slog.String("runID", run.ID))
	}
}

func (s *Server) doRefresh(ctx context.Context) (types.Run, error) {
	if !s.refreshMu.TryLock() {
		return types.Run{}, errRefreshInProgress
	}
	defer s.refreshMu.Unlock()
	return s.refresh(ctx)
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{Error: msg}); err != nil {
		slog.Warn("failed to write error response", slog.Any("error", err))
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		panic(http.ErrAbortHandler)
	}
}

func (s *Server) revisionMiddleware(next http.Handler) http.Handler {
	if s.serverName == "" {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Server", s.serverName)
		next.ServeHTTP(w, r)
	})
}
