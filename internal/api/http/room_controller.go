package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/immxrtalbeast/axenix_meet/internal/api/http/converter"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
)

// RoomController exposes read-only live presence.
type RoomController struct {
	rooms service.PresenceReader
}

func NewRoomController(rooms service.PresenceReader) *RoomController {
	return &RoomController{rooms: rooms}
}

func (c *RoomController) ListRooms(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"rooms": converter.RoomsToApi(c.rooms.ActiveRooms())})
}

func (c *RoomController) ListParticipants(ctx *gin.Context) {
	meetingID := strings.TrimSpace(ctx.Param("meetingID"))
	if meetingID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid meeting id"})
		return
	}

	ctx.JSON(http.StatusOK, converter.ParticipantsToApi(meetingID, c.rooms.Participants(meetingID)))
}
