package http

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func SetupRouter(
	allowedOrigins []string,
	authMiddleware gin.HandlerFunc,
	roomController *RoomController,
	socketController *SocketController,
) *gin.Engine {
	router := gin.Default()
	config := cors.DefaultConfig()
	config.AllowOrigins = allowedOrigins
	if len(allowedOrigins) == 0 {
		config.AllowOrigins = nil
		config.AllowOriginFunc = func(string) bool { return true }
	}
	config.AllowCredentials = true
	config.AllowHeaders = []string{
		"Authorization",
		"Content-Type",
		"Origin",
		"Accept",
	}
	config.AllowMethods = []string{"GET", "HEAD", "OPTIONS"}
	router.Use(cors.New(config))
	router.GET("/healthz", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	if socketController != nil {
		router.GET("/ws", authMiddleware, socketController.Connect)
	}

	if roomController != nil {
		rooms := router.Group("/api/rooms", authMiddleware)
		rooms.GET("", roomController.ListRooms)
		rooms.GET("/:meetingID/participants", roomController.ListParticipants)
	}

	return router
}
