package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/duoplay/internal/api/middleware"
	"github.com/mcoot/duoplay/internal/api/apierr"
	"github.com/mcoot/duoplay/internal/api/response"
	"github.com/mcoot/duoplay/internal/model"
	"github.com/mcoot/duoplay/internal/storage"
)

// PlayerHandler handles player-related endpoints
type PlayerHandler struct {
	store storage.Storage
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(store storage.Storage) *PlayerHandler {
	return &PlayerHandler{
		store: store,
	}
}

// GetMe handles GET /api/v1/players/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	identity := middleware.MustGetIdentity(r.Context())
	response.JSON(w, http.StatusOK, response.IdentityFromModel(identity))
}

// GetPresence handles GET /api/v1/players/{id}/presence
func (h *PlayerHandler) GetPresence(w http.ResponseWriter, r *http.Request) {
	userID := model.UserID(mux.Vars(r)["id"])
	if userID == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("player id is required"))
		return
	}

	rec, err := h.store.GetPresence(r.Context(), userID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.PresenceFromModel(*rec))
}
