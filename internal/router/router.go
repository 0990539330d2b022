package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pomodisc/backend/internal/handler"
	"pomodisc/backend/internal/middleware"
	"pomodisc/backend/internal/service"
)

// Streams are the audio transports of the library mix. A nil handler
// disables its route.
type Streams struct {
	Audio http.Handler
	Offer http.Handler
}

func New(
	authService *service.AuthService,
	authHandler *handler.AuthHandler,
	pomodoroHandler *handler.PomodoroHandler,
	playerHandler *handler.PlayerHandler,
	streams Streams,
	corsOrigins []string,
) *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Logger(), gin.Recovery(), middleware.CORS(corsOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "auth": authService.Enabled()})
	})

	api := engine.Group("/api")
	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.Auth(authService))

	timer := protected.Group("/timer")
	timer.GET("/state", pomodoroHandler.GetState)
	timer.GET("/events", pomodoroHandler.Events)
	timer.POST("/start", pomodoroHandler.Start)
	timer.POST("/pause", pomodoroHandler.Pause)
	timer.POST("/resume", pomodoroHandler.Resume)
	timer.POST("/reset", pomodoroHandler.Reset)
	timer.PUT("/settings", pomodoroHandler.UpdateSettings)

	protected.PUT("/decks/:type", pomodoroHandler.UpdateDeck)
	protected.GET("/library/tracks", pomodoroHandler.Tracks)
	protected.DELETE("/player/error", pomodoroHandler.ClearPlayerError)
	protected.PUT("/alarm", pomodoroHandler.SetAlarm)
	protected.GET("/history", pomodoroHandler.GetHistory)

	players := protected.Group("/players")
	players.GET("/stream", playerHandler.Stream)
	players.POST("/:type/events", playerHandler.Event)

	mountStream(engine, http.MethodGet, "/stream", streams.Audio)
	mountStream(engine, http.MethodPost, "/offer", streams.Offer)

	return engine
}

func mountStream(engine *gin.Engine, method, path string, h http.Handler) {
	if h == nil {
		engine.Handle(method, path, handler.Unavailable("stream_disabled", "library audio streaming is disabled"))
		return
	}
	engine.Handle(method, path, gin.WrapH(h))
}
