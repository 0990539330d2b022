package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pomodisc/backend/internal/media/remote"
	"pomodisc/backend/internal/service"
)

// PlayerHandler is the browser shell side of remote playback: shells receive
// commands over server-sent events and post player events back.
type PlayerHandler struct {
	hub             *remote.Hub
	pomodoroService *service.PomodoroService
}

type playerEventRequest struct {
	Event string `json:"event"`
	Code  int    `json:"code"`
}

func NewPlayerHandler(hub *remote.Hub, pomodoroService *service.PomodoroService) *PlayerHandler {
	return &PlayerHandler{hub: hub, pomodoroService: pomodoroService}
}

func (h *PlayerHandler) Stream(c *gin.Context) {
	listener := h.hub.Subscribe()
	defer h.hub.Unsubscribe(listener)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-listener.Done():
			return false
		case <-keepAlive.C:
			c.SSEvent("ping", "")
			return true
		case cmd := <-listener.C:
			c.SSEvent("command", cmd)
			return true
		}
	})
}

func (h *PlayerHandler) Event(c *gin.Context) {
	var req playerEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	if apiErr := h.pomodoroService.PlayerEvent(c.Request.Context(), c.Param("type"), req.Event, req.Code); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
