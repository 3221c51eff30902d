package maintenance

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"accounts-service/internal/observability"
)

// TokenJanitor clears expired single-use token pairs and reports how many of
// each kind were removed.
type TokenJanitor interface {
	ClearExpiredTokens(ctx context.Context, now time.Time) (int64, int64, error)
}

type CleanupHandler struct {
	repo       TokenJanitor
	logger     *observability.Logger
	cronSecret string
}

func NewCleanupHandler(repo TokenJanitor, logger *observability.Logger, cronSecret string) *CleanupHandler {
	return &CleanupHandler{
		repo:       repo,
		logger:     logger,
		cronSecret: strings.TrimSpace(cronSecret),
	}
}

func (h *CleanupHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if h.cronSecret == "" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) != h.cronSecret {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	clearedVerification, clearedReset, err := h.repo.ClearExpiredTokens(r.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("token_cleanup_failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cleanup failed"})
		return
	}

	h.logger.Info("token_cleanup_completed", map[string]any{
		"cleared_verification_tokens": clearedVerification,
		"cleared_reset_tokens":        clearedReset,
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"status":                      "ok",
		"cleared_verification_tokens": clearedVerification,
		"cleared_reset_tokens":        clearedReset,
	})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
