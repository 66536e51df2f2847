package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/duoplay/internal/api/apierr"
	"github.com/mcoot/duoplay/internal/api/response"
	"github.com/mcoot/duoplay/internal/services/dispatch"
	"github.com/mcoot/duoplay/internal/services/game"
	"github.com/mcoot/duoplay/internal/storage"
)

// RoomHandler serves rooms from the read model
type RoomHandler struct {
	store storage.Storage
	games *game.Registry
}

// NewRoomHandler creates a new room handler
func NewRoomHandler(store storage.Storage, games *game.Registry) *RoomHandler {
	return &RoomHandler{
		store: store,
		games: games,
	}
}

// List handles GET /api/v1/rooms
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	codes, err := h.store.ListRoomCodes(r.Context())
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	rooms := make([]string, len(codes))
	for i, c := range codes {
		rooms[i] = string(c)
	}
	response.JSON(w, http.StatusOK, response.RoomList{Rooms: rooms})
}

// Get handles GET /api/v1/rooms/{code}
func (h *RoomHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := dispatch.NormalizeCode(mux.Vars(r)["code"])
	if code == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("room code is required"))
		return
	}

	summary, err := h.store.GetRoomSummary(r.Context(), code)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.RoomFromModel(*summary))
}

// Games handles GET /api/v1/games
func (h *RoomHandler) Games(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.GameList{Games: h.games.Names()})
}

