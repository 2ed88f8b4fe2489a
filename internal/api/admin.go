package api

import (
	"encoding/json"
	"net/http"

	"github.com/dialdirect/backend/internal/auth"
	"github.com/dialdirect/backend/internal/prober"
	"github.com/dialdirect/backend/internal/storage"
	"github.com/rs/zerolog"
)

// AdminHandler handles operational resets and cache control
type AdminHandler struct {
	store  storage.Store
	prober *prober.Prober
	logger zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(store storage.Store, p *prober.Prober, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		store:  store,
		prober: p,
		logger: logger.With().Str("component", "admin_handler").Logger(),
	}
}

// RequireAdmin middleware — only admin role allowed
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := auth.GetUserFromContext(r.Context())
		if !ok || !auth.HasRole(claims, "admin") {
			w.Header().Set("Content-Type", "application/json")
			http.Error(w, `{"error":"admin role required"}`, http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WipeData clears all persisted dispatch data
// POST /api/admin/wipe
func (h *AdminHandler) WipeData(w http.ResponseWriter, r *http.Request) {
	if err := h.store.TruncateAll(); err != nil {
		h.logger.Error().Err(err).Msg("failed to wipe storage")
		http.Error(w, `{"error":"failed to wipe storage"}`, http.StatusInternalServerError)
		return
	}
	h.prober.Invalidate()

	h.logger.Warn().Msg("all dispatch data wiped via admin")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "all dispatch data wiped"})
}

// InvalidateProbeCache drops the cached availability snapshot
// POST /api/admin/probe/invalidate
func (h *AdminHandler) InvalidateProbeCache(w http.ResponseWriter, r *http.Request) {
	h.prober.Invalidate()

	h.logger.Info().Msg("probe cache invalidated via admin")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "probe cache invalidated"})
}
