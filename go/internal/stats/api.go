package stats

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// API serves the stats and leaderboard HTTP endpoints. Callers identify
// themselves with an opaque user_id; authentication is handled upstream.
type API struct {
	service *Service
}

// NewAPI creates the stats HTTP layer.
func NewAPI(service *Service) *API {
	return &API{service: service}
}

// RegisterRoutes registers the stats routes on the mux.
func (a *API) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/stats", a.handleGetStats)
	mux.HandleFunc("/api/stats/save", a.handleSaveResult)
	mux.HandleFunc("/api/leaderboard", a.handleLeaderboard)
}

func (a *API) handleGetStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	stats, err := a.service.GetStats(r.Context(), userID)
	if err != nil {
		log.Error().Err(err).Str("user", userID.String()).Msg("failed to load stats")
		writeError(w, http.StatusInternalServerError, "failed to load stats")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

type saveResultRequest struct {
	Username string `json:"username"`
	TestResult
}

func (a *API) handleSaveResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, ok := requestUserID(w, r)
	if !ok {
		return
	}

	var req saveResultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	stats, err := a.service.SaveResult(r.Context(), userID, req.Username, req.TestResult)
	if err != nil {
		log.Error().Err(err).Str("user", userID.String()).Msg("failed to save result")
		writeError(w, http.StatusInternalServerError, "failed to save result")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "stats": stats})
}

func (a *API) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	timeMode := 60
	if raw := r.URL.Query().Get("timeMode"); raw != "" {
		mode, err := strconv.Atoi(raw)
		if err != nil || !validTimeMode(mode) {
			writeError(w, http.StatusBadRequest, "Invalid time mode")
			return
		}
		timeMode = mode
	}
	limit := 100
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := a.service.Leaderboard(r.Context(), timeMode, limit)
	if err != nil {
		log.Error().Err(err).Int("time_mode", timeMode).Msg("failed to load leaderboard")
		writeError(w, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	if entries == nil {
		entries = []LeaderboardEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "leaderboard": entries})
}

func requestUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := r.URL.Query().Get("user_id")
	if raw == "" {
		raw = r.Header.Get("X-User-ID")
	}
	if raw == "" {
		writeError(w, http.StatusBadRequest, "user_id is required")
		return uuid.UUID{}, false
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return uuid.UUID{}, false
	}
	return userID, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}
