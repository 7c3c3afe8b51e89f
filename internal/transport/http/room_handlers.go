package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/watchparty-server/internal/party"
	"github.com/vovakirdan/watchparty-server/internal/proto"
	"github.com/vovakirdan/watchparty-server/internal/utils"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RoomHandlers serves read-only views of the live watch parties.
type RoomHandlers struct {
	registry *party.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(registry *party.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry: registry,
		log:      logger,
	}
}

// ListRooms returns every live room, oldest first.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	infos := h.registry.List()
	resp := make([]proto.RoomInfo, 0, len(infos))
	for _, info := range infos {
		resp = append(resp, roomInfoFrom(info))
	}
	c.JSON(http.StatusOK, resp)
}

// GetRoom returns one room.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	roomID := c.Param("id")
	var (
		info party.RoomInfo
		ok   bool
	)
	if utils.IsBase62(roomID) {
		info, ok = h.registry.Info(roomID)
	}
	if !ok {
		h.log.Debug().Str("room_id", roomID).Msg("room not found")
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, roomInfoFrom(info))
}
