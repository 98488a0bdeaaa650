package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"redenvelope/internal/models"
	"redenvelope/internal/services"
	"redenvelope/internal/storage"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
)

// HTTPHandler holds the dependencies for the HTTP handlers, like the game service.
type HTTPHandler struct {
	service *services.GameService
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.GameService) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// settingsRequest is the settings form as sent by the client. Numbers arrive
// as json.Number so that fractional or oversized values reach the validator
// as invalid instead of failing to decode.
type settingsRequest struct {
	EnvelopeCount json.Number `json:"envelopeCount"`
	MinPrize      json.Number `json:"minPrize"`
	MaxPrize      json.Number `json:"maxPrize"`
	SoundEnabled  *bool       `json:"soundEnabled"`
	PlayerName    *string     `json:"playerName"`
}

func (r settingsRequest) toSettings(defaults models.Settings) models.Settings {
	s := models.Settings{
		EnvelopeCount: toInt(r.EnvelopeCount),
		MinPrize:      toInt(r.MinPrize),
		MaxPrize:      toInt(r.MaxPrize),
		SoundEnabled:  defaults.SoundEnabled,
	}
	if r.SoundEnabled != nil {
		s.SoundEnabled = *r.SoundEnabled
	}
	if r.PlayerName != nil {
		s.PlayerName = *r.PlayerName
	}
	return s
}

// toInt converts n to an int, mapping anything that is not a whole number
// that fits into 0 so the validator rejects it.
func toInt(n json.Number) int {
	v, err := strconv.ParseInt(n.String(), 10, 0)
	if err != nil {
		return 0
	}
	return int(v)
}

type openRequest struct {
	OpenerName string `json:"openerName"`
	Cancelled  bool   `json:"cancelled"`
}

type soundRequest struct {
	Enabled bool `json:"enabled"`
}

// RegisterPublicRoutes registers routes that don't need a tenant.
func (h *HTTPHandler) RegisterPublicRoutes(router gin.IRoutes) {
	router.GET("/healthz", h.HealthCheck)
}

// RegisterTenantRoutes registers the game routes. The group must use TenantMiddleware.
func (h *HTTPHandler) RegisterTenantRoutes(router gin.IRoutes) {
	router.GET("/api/settings/defaults", h.GetDefaultSettings)
	router.POST("/api/settings/validate", h.ValidateSettings)
	router.GET("/api/game", h.GetGame)
	router.POST("/api/game", h.StartGame)
	router.DELETE("/api/game", h.ResetGame)
	router.POST("/api/game/restart", h.RestartGame)
	router.GET("/api/game/statistics", h.GetStatistics)
	router.GET("/api/game/completion", h.GetCompletionStatus)
	router.POST("/api/game/recompute", h.RecomputeTotal)
	router.PUT("/api/game/sound", h.SetSound)
	router.POST("/api/envelopes/:id/open", h.OpenEnvelope)
	router.GET("/api/results", h.ExportResultsCSV)
	router.GET("/api/results/count", h.GetResultCount)
	router.GET("/api/report", h.DownloadReport)
}

// HealthCheck reports the state of live sessions and the result log.
func (h *HTTPHandler) HealthCheck(c *gin.Context) {
	report := h.service.HealthCheck(c.Request.Context())
	status := http.StatusOK
	if report.Overall == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}

// GetDefaultSettings returns the settings offered on the settings screen.
func (h *HTTPHandler) GetDefaultSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.DefaultSettings())
}

// ValidateSettings checks a settings form without starting a game.
func (h *HTTPHandler) ValidateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	s := req.toSettings(h.service.DefaultSettings())
	c.JSON(http.StatusOK, h.service.ValidateSettings(s.EnvelopeCount, s.MinPrize, s.MaxPrize, req.PlayerName))
}

// GetGame returns the full game state.
func (h *HTTPHandler) GetGame(c *gin.Context) {
	tenantID := c.GetString(tenantKey)
	c.JSON(http.StatusOK, gin.H{
		"game":         h.service.Snapshot(tenantID),
		"soundEnabled": h.service.SoundEnabled(tenantID),
	})
}

// StartGame validates the settings form and starts a new game.
func (h *HTTPHandler) StartGame(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	tenantID := c.GetString(tenantKey)
	if err := h.service.StartGame(tenantID, req.toSettings(h.service.DefaultSettings())); err != nil {
		h.writeGameError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"game": h.service.Snapshot(tenantID)})
}

// RestartGame starts over with the same settings.
func (h *HTTPHandler) RestartGame(c *gin.Context) {
	tenantID := c.GetString(tenantKey)
	if err := h.service.RestartGame(tenantID); err != nil {
		h.writeGameError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"game": h.service.Snapshot(tenantID)})
}

// ResetGame returns to the settings screen.
func (h *HTTPHandler) ResetGame(c *gin.Context) {
	tenantID := c.GetString(tenantKey)
	h.service.ResetGame(tenantID)
	c.JSON(http.StatusOK, gin.H{"game": h.service.Snapshot(tenantID)})
}

// GetStatistics returns the running statistics.
func (h *HTTPHandler) GetStatistics(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Statistics(c.GetString(tenantKey)))
}

// GetCompletionStatus returns progress information.
func (h *HTTPHandler) GetCompletionStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.CompletionStatus(c.GetString(tenantKey)))
}

// RecomputeTotal re-aggregates the total prize.
func (h *HTTPHandler) RecomputeTotal(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"totalPrize": h.service.RecomputeTotal(c.GetString(tenantKey))})
}

// SetSound toggles audio for the tenant's client.
func (h *HTTPHandler) SetSound(c *gin.Context) {
	var req soundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	tenantID := c.GetString(tenantKey)
	h.service.SetSound(tenantID, req.Enabled)
	c.JSON(http.StatusOK, gin.H{"soundEnabled": req.Enabled})
}

// OpenEnvelope opens one envelope in the name the client supplies.
// A cancelled request leaves the game untouched.
func (h *HTTPHandler) OpenEnvelope(c *gin.Context) {
	var req openRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if !req.Cancelled {
		if v := services.ValidatePlayerName(req.OpenerName); !v.IsValid {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": []string{v.Error}})
			return
		}
	}

	prompt := services.NewNamePrompt()
	if req.Cancelled {
		prompt.Cancel()
	} else {
		prompt.Submit(req.OpenerName)
	}

	tenantID := c.GetString(tenantKey)
	result, effects, err := h.service.OpenEnvelope(c.Request.Context(), tenantID, c.Param("id"), prompt)
	if err != nil {
		logger.Errorf("Error opening envelope %s: %v", c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open envelope"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":       result,
		"effects":      effects,
		"soundEnabled": h.service.SoundEnabled(tenantID),
		"statistics":   h.service.Statistics(tenantID),
	})
}

// ExportResultsCSV handles the request to download the result log.
func (h *HTTPHandler) ExportResultsCSV(c *gin.Context) {
	text, err := h.service.Results(c.Request.Context())
	if err != nil {
		logger.Errorf("Error reading result log: %v", err)
		c.String(http.StatusInternalServerError, "Error reading results")
		return
	}
	if text == "" {
		c.String(http.StatusNotFound, "No results recorded yet")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment;filename="+storage.FileName(time.Now()))

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))
	c.Writer.WriteString(text)
}

// GetResultCount returns how many games have been recorded.
func (h *HTTPHandler) GetResultCount(c *gin.Context) {
	n, err := h.service.ResultCount(c.Request.Context())
	if err != nil {
		logger.Errorf("Error counting results: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error reading results"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": n})
}

// DownloadReport sends the detailed report of the current game.
func (h *HTTPHandler) DownloadReport(c *gin.Context) {
	report := h.service.Report(c.GetString(tenantKey))
	c.Header("Content-Disposition", "attachment;filename="+services.ReportFileName(time.Now()))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(report))
}

func (h *HTTPHandler) writeGameError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"errors": verr.Reasons})
		return
	}
	logger.Errorf("Game error: %v", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
}
