package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"backend/internal/classifier"
	"backend/internal/compose"
	"backend/internal/dispatch"
	"backend/internal/escalation"
	"backend/internal/models"
	"backend/internal/profile"
	"backend/internal/repository"
	"backend/internal/workflow"
)

type AnalyzeHandler interface {
	AnalyzeEvent(c *gin.Context)
	GetProfile(c *gin.Context)
	GetHistory(c *gin.Context)
}

type analyzeHandler struct {
	store       profile.Store
	coordinator *escalation.Coordinator
	dispatcher  *dispatch.Dispatcher
	pool        *dispatch.Pool
	workflow    *workflow.Client
	prefs       repository.PreferenceRepository
	logger      *zap.Logger
}

func NewAnalyzeHandler(
	store profile.Store,
	coordinator *escalation.Coordinator,
	dispatcher *dispatch.Dispatcher,
	pool *dispatch.Pool,
	workflowClient *workflow.Client,
	prefs repository.PreferenceRepository,
	logger *zap.Logger,
) AnalyzeHandler {
	return &analyzeHandler{
		store:       store,
		coordinator: coordinator,
		dispatcher:  dispatcher,
		pool:        pool,
		workflow:    workflowClient,
		prefs:       prefs,
		logger:      logger,
	}
}

// AnalyzeEventInput is the ingestion payload.
type AnalyzeEventInput struct {
	UserID    string `json:"user_id" binding:"required"`
	Text      string `json:"text"`
	Context   string `json:"context"`
	MoodScore *int   `json:"mood_score,omitempty"` // 1-10; derived from text when absent
}

// AnalyzeEvent handles POST /api/analyze-event: classify, record, evaluate,
// and, on escalation, hand delivery and the workflow trigger off the hot
// path.
func (h *analyzeHandler) AnalyzeEvent(c *gin.Context) {
	var input AnalyzeEventInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	risk, evidence := classifier.Classify(input.Text)

	mood := classifier.DeriveMoodScore(risk, input.Text)
	if input.MoodScore != nil {
		mood = *input.MoodScore
		if mood < 1 || mood > 10 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mood_score must be between 1 and 10"})
			return
		}
	}

	event := models.EmotionalEvent{
		UserID:        input.UserID,
		Timestamp:     time.Now(),
		MoodScore:     mood,
		Context:       eventContext(input.Context),
		RiskLevel:     risk,
		EvidenceTerms: evidence,
	}

	prof, err := h.store.Record(c.Request.Context(), event)
	if err != nil {
		h.logger.Error("Failed to record emotional event",
			zap.String("user_id", input.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record event"})
		return
	}

	decision := h.coordinator.Evaluate(event, prof)
	if decision.Action == escalation.ActionAlert {
		h.escalate(decision)
	}

	response := gin.H{
		"profile": prof,
		"decision": gin.H{
			"action": decision.Action,
		},
	}
	if decision.Alert != nil {
		response["decision"] = gin.H{
			"action":     decision.Action,
			"alert_id":   decision.Alert.ID,
			"risk_level": decision.Alert.RiskLevel,
		}
	}
	c.JSON(http.StatusOK, response)
}

// escalate schedules alert delivery on the worker pool and fires the
// workflow trigger. Neither blocks the ingestion path.
func (h *analyzeHandler) escalate(decision escalation.Decision) {
	alert := decision.Alert

	pref, err := h.prefs.GetByUserID(alert.UserID)
	if err != nil {
		h.logger.Error("Failed to resolve channel address for alert",
			zap.String("alert_id", alert.ID), zap.Error(err))
	}

	var chatID int64
	if pref != nil {
		chatID = pref.ChatID
	}

	msg := dispatch.Message{
		UserID:     alert.UserID,
		ChatID:     chatID,
		Type:       models.NotificationCrisis,
		Text:       compose.Crisis(alert, decision.ImmediateAction, decision.Resources),
		AckAlertID: alert.ID,
	}

	h.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		result := h.dispatcher.Send(ctx, alert, msg)
		h.logger.Info("Crisis alert dispatched",
			zap.String("alert_id", alert.ID),
			zap.Bool("delivered", result.Delivered()))
	})

	if h.workflow != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
			defer cancel()
			if err := h.workflow.Trigger(ctx, workflow.NewCrisisEvent(alert)); err != nil {
				// Log only. Workflow failures never feed back into the
				// crisis pipeline.
				h.logger.Error("Workflow trigger failed",
					zap.String("alert_id", alert.ID), zap.Error(err))
			}
		}()
	}
}

// GetProfile handles GET /api/users/:user_id/profile
func (h *analyzeHandler) GetProfile(c *gin.Context) {
	userID := c.Param("user_id")

	prof, err := h.store.Get(userID)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
			return
		}
		h.logger.Error("Failed to get profile", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve profile"})
		return
	}

	c.JSON(http.StatusOK, prof)
}

// GetHistory handles GET /api/users/:user_id/history?window_days=N.
// window_days=0 (the default) returns the entire retained history.
func (h *analyzeHandler) GetHistory(c *gin.Context) {
	userID := c.Param("user_id")

	windowDays, err := strconv.Atoi(c.DefaultQuery("window_days", "0"))
	if err != nil || windowDays < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "window_days must be a non-negative integer"})
		return
	}

	events := h.store.History(userID, windowDays)
	c.JSON(http.StatusOK, gin.H{
		"user_id": userID,
		"events":  events,
	})
}

func eventContext(s string) models.EventContext {
	switch models.EventContext(s) {
	case models.ContextMoodLog, models.ContextContentSearch, models.ContextExternalAlert:
		return models.EventContext(s)
	default:
		return models.ContextConversational
	}
}
