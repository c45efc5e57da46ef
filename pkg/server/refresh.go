package server

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/chargecost/chargecost/pkg/log"
)

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if !s.bypassAuth {
		if s.verifier == nil || s.refreshEmail == "" {
			log.Ctx(ctx).WarnContext(ctx, "refresh requested but auth is not configured")
			writeJSONError(w, "missing authentication", http.StatusUnauthorized)
			return
		}

		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, "missing authorization header", http.StatusUnauthorized)
			return
		}
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			writeJSONError(w, "invalid authorization header", http.StatusUnauthorized)
			return
		}

		email, err := s.verifier(ctx, parts[1])
		if err != nil {
			log.Ctx(ctx).WarnContext(ctx, "failed to validate id token", slog.Any("error", err))
			writeJSONError(w, "invalid id token", http.StatusUnauthorized)
			return
		}
		if subtle.ConstantTimeCompare([]byte(email), []byte(s.refreshEmail)) != 1 {
			log.Ctx(ctx).WarnContext(ctx, "unauthorized email for refresh", slog.String("email", email))
			writeJSONError(w, "unauthorized email", http.StatusForbidden)
			return
		}
		log.Ctx(ctx).DebugContext(ctx, "refresh authorized", slog.String("email", email))
	}

	run, err := s.doRefresh(ctx)
	if errors.Is(err, errRefreshInProgress) {
		writeJSONError(w, "refresh already in progress", http.StatusConflict)
		return
	}
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "refresh failed", slog.Any("error", err))
		writeJSONError(w, "refresh failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(metaOf(run)); err != nil {
		panic(http.ErrAbortHandler)
	}
}
