package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/models"
	"backend/internal/repository"
)

type PreferenceHandler interface {
	GetPreferences(c *gin.Context)
	UpdatePreferences(c *gin.Context)
	GetNotifications(c *gin.Context)
}

type preferenceHandler struct {
	prefs         repository.PreferenceRepository
	notifications repository.NotificationRepository
	logger        *zap.Logger
}

func NewPreferenceHandler(prefs repository.PreferenceRepository, notifications repository.NotificationRepository, logger *zap.Logger) PreferenceHandler {
	return &preferenceHandler{prefs: prefs, notifications: notifications, logger: logger}
}

// GetPreferences handles GET /api/users/:user_id/preferences
func (h *preferenceHandler) GetPreferences(c *gin.Context) {
	userID := c.Param("user_id")

	pref, err := h.prefs.GetByUserID(userID)
	if err != nil {
		h.logger.Error("Failed to get preferences", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preferences"})
		return
	}
	if pref == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not registered"})
		return
	}

	c.JSON(http.StatusOK, pref)
}

// GetNotifications handles GET /api/users/:user_id/notifications?limit=N,
// newest first.
func (h *preferenceHandler) GetNotifications(c *gin.Context) {
	userID := c.Param("user_id")

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
		return
	}

	records, err := h.notifications.ListByUser(userID, limit)
	if err != nil {
		h.logger.Error("Failed to list notifications", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id":       userID,
		"notifications": records,
	})
}

// UpdatePreferencesInput carries the user-editable schedule settings.
type UpdatePreferencesInput struct {
	MorningTime   string   `json:"morning_time" binding:"required"`
	AfternoonTime string   `json:"afternoon_time" binding:"required"`
	EveningTime   string   `json:"evening_time" binding:"required"`
	Timezone      string   `json:"timezone" binding:"required"`
	Enabled       bool     `json:"enabled"`
	AllowedTypes  []string `json:"allowed_types"`
}

// UpdatePreferences handles PUT /api/users/:user_id/preferences
func (h *preferenceHandler) UpdatePreferences(c *gin.Context) {
	userID := c.Param("user_id")

	var input UpdatePreferencesInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	for _, hhmm := range []string{input.MorningTime, input.AfternoonTime, input.EveningTime} {
		if _, err := time.Parse("15:04", hhmm); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "slot times must be HH:MM"})
			return
		}
	}
	if _, err := time.LoadLocation(input.Timezone); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown timezone"})
		return
	}

	existing, err := h.prefs.GetByUserID(userID)
	if err != nil {
		h.logger.Error("Failed to get preferences", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve preferences"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not registered"})
		return
	}

	pref := &models.NotificationPreference{
		UserID:          userID,
		ChatID:          existing.ChatID,
		MorningTime:     input.MorningTime,
		AfternoonTime:   input.AfternoonTime,
		EveningTime:     input.EveningTime,
		Timezone:        input.Timezone,
		Enabled:         input.Enabled,
		AllowedTypes:    input.AllowedTypes,
		LastInteraction: time.Now(),
	}

	if err := h.prefs.Upsert(pref); err != nil {
		h.logger.Error("Failed to update preferences", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}

	c.JSON(http.StatusOK, pref)
}
