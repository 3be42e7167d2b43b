package handlers

import (
	"errors"
	"net/http"

	"garage_door/internal/models"
	"garage_door/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK      = "ok"
	statusHealthy = "healthy"

	respTimeout        = "timeout"
	respMonitorStopped = "monitor stopped"
	respUnavailable    = "unavailable"
)

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	st := h.services.Status()
	c.JSON(http.StatusOK, gin.H{
		"status":     statusOK,
		"door":       st.Snapshot.State,
		"updated_at": st.UpdatedAt,
	})
}

// @Summary      Garage health probe
// @Tags         system
// @Produce      plain
// @Success      200  {string}  string  "healthy"
// @Router       /garage/health [get]
func (h *Handler) garageHealth(c *gin.Context) {
	c.String(http.StatusOK, statusHealthy)
}

// @Summary      Door status
// @Description  Last snapshot and settings published by the monitor loop
// @Tags         garage
// @Produce      json
// @Success      200  {object}  models.Status
// @Failure      401  {object}  map[string]string
// @Router       /status [get]
// @Security     BasicKey
func (h *Handler) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Status())
}

// @Summary      Door command
// @Description  trigger | open (up) | close (down, clothes) | get_state (get_status, get_settings) |
// @Description  set_settings<home_away,alert_open_notify,alert_open_minutes,alert_open_start,alert_open_end,forgot_open_notify,forgot_open_minutes> |
// @Description  firebase:<id> (target:<id>). Answers in plain text once the monitor loop has executed the command.
// @Tags         garage
// @Produce      plain
// @Param        action  path  string  true  "Command token"
// @Success      200  {string}  string  "opening"
// @Failure      401  {object}  map[string]string
// @Failure      503  {string}  string  "monitor stopped"
// @Failure      504  {string}  string  "timeout"
// @Router       /garage/{action} [get]
// @Security     BasicKey
func (h *Handler) command(c *gin.Context) {
	cmd := models.ParseCommand(c.Param("action"))

	resp, err := h.services.Submit(c.Request.Context(), cmd)
	if err != nil {
		code, text := commandErrorResponse(err)
		h.log.Errorw("command_failed", "err", err, "received", cmd.Raw, "code", code)
		c.String(code, text)
		return
	}
	c.String(http.StatusOK, resp.Text)
}

func commandErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrCommandTimeout):
		return http.StatusGatewayTimeout, respTimeout
	case errors.Is(err, service.ErrMonitorStopped):
		return http.StatusServiceUnavailable, respMonitorStopped
	default:
		return http.StatusServiceUnavailable, respUnavailable
	}
}
