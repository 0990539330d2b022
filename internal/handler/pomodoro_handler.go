package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pomodisc/backend/internal/service"
)

// keepAliveInterval keeps idle event streams open through proxies.
const keepAliveInterval = 15 * time.Second

type PomodoroHandler struct {
	pomodoroService *service.PomodoroService
}

type updateSettingsRequest struct {
	WorkMinutes       *float64 `json:"workMinutes"`
	ShortBreakMinutes *float64 `json:"shortBreakMinutes"`
	LongBreakMinutes  *float64 `json:"longBreakMinutes"`
	TotalCycles       *float64 `json:"totalCycles"`
	LongBreakInterval *float64 `json:"longBreakInterval"`
}

type updateDeckRequest struct {
	URL            *string `json:"url"`
	Source         *string `json:"source"`
	LibraryTrackID *string `json:"libraryTrackId"`
}

type alarmRequest struct {
	Enabled *bool `json:"enabled"`
}

func NewPomodoroHandler(pomodoroService *service.PomodoroService) *PomodoroHandler {
	return &PomodoroHandler{pomodoroService: pomodoroService}
}

func (h *PomodoroHandler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.pomodoroService.GetState(c.Request.Context()))
}

func (h *PomodoroHandler) Start(c *gin.Context) {
	c.JSON(http.StatusOK, h.pomodoroService.Start(c.Request.Context()))
}

func (h *PomodoroHandler) Pause(c *gin.Context) {
	c.JSON(http.StatusOK, h.pomodoroService.Pause(c.Request.Context()))
}

func (h *PomodoroHandler) Resume(c *gin.Context) {
	c.JSON(http.StatusOK, h.pomodoroService.Resume(c.Request.Context()))
}

func (h *PomodoroHandler) Reset(c *gin.Context) {
	c.JSON(http.StatusOK, h.pomodoroService.Reset(c.Request.Context()))
}

func (h *PomodoroHandler) UpdateSettings(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	state := h.pomodoroService.UpdateSettings(c.Request.Context(), service.UpdateSettingsInput{
		WorkMinutes:       req.WorkMinutes,
		ShortBreakMinutes: req.ShortBreakMinutes,
		LongBreakMinutes:  req.LongBreakMinutes,
		TotalCycles:       req.TotalCycles,
		LongBreakInterval: req.LongBreakInterval,
	})
	c.JSON(http.StatusOK, state)
}

func (h *PomodoroHandler) UpdateDeck(c *gin.Context) {
	var req updateDeckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}

	deck, apiErr := h.pomodoroService.UpdateDeck(c.Request.Context(), c.Param("type"), service.UpdateDeckInput{
		URL:            req.URL,
		Source:         req.Source,
		LibraryTrackID: req.LibraryTrackID,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deck": deck})
}

func (h *PomodoroHandler) Tracks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tracks": h.pomodoroService.Tracks()})
}

func (h *PomodoroHandler) ClearPlayerError(c *gin.Context) {
	c.JSON(http.StatusOK, h.pomodoroService.ClearPlayerError(c.Request.Context()))
}

func (h *PomodoroHandler) SetAlarm(c *gin.Context) {
	var req alarmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeInvalidJSON(c)
		return
	}
	if req.Enabled == nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": gin.H{"code": "invalid_alarm", "message": "enabled is required"},
		})
		return
	}
	c.JSON(http.StatusOK, h.pomodoroService.SetAlarm(c.Request.Context(), *req.Enabled))
}

func (h *PomodoroHandler) GetHistory(c *gin.Context) {
	limit := 50
	rawLimit := c.Query("limit")
	if rawLimit != "" {
		if parsed, err := strconv.Atoi(rawLimit); err == nil {
			limit = parsed
		}
	}

	phases, apiErr := h.pomodoroService.GetHistory(c.Request.Context(), limit)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"phases": phases})
}

// Events streams a state view whenever the timer, a deck or the alarm
// changes.
func (h *PomodoroHandler) Events(c *gin.Context) {
	listener := h.pomodoroService.Subscribe()
	defer h.pomodoroService.Unsubscribe(listener)

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
		case view := <-listener.C:
			c.SSEvent("state", view)
			return true
		}
	})
}
