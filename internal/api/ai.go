package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/ai"
)

// StudyAssistant is the part of ai.Assistant the handlers use. Its methods
// never fail: degraded answers come back as fallback text.
type StudyAssistant interface {
	Recommendations(ctx context.Context, subject, topic, userLevel string) []ai.Recommendation
	AnswerQuestion(ctx context.Context, question, questionContext string) string
	StudyPlan(ctx context.Context, subjects []string, timeAvailable, goals string) string
}

type AIHandler struct {
	assistant StudyAssistant
	logger    *zap.Logger
}

func NewAIHandler(assistant StudyAssistant, logger *zap.Logger) *AIHandler {
	return &AIHandler{assistant: assistant, logger: logger}
}

type recommendationsRequest struct {
	Subject   string `json:"subject" binding:"required,max=100"`
	Topic     string `json:"topic" binding:"required,max=200"`
	UserLevel string `json:"userLevel" binding:"max=50"`
}

type questionRequest struct {
	Question string `json:"question" binding:"required,max=2000"`
	Context  string `json:"context" binding:"max=4000"`
}

type studyPlanRequest struct {
	Subjects      []string `json:"subjects" binding:"required,min=1,max=20"`
	TimeAvailable string   `json:"timeAvailable" binding:"required,max=200"`
	Goals         string   `json:"goals" binding:"required,max=1000"`
}

// Recommendations handles POST /api/ai/recommendations
func (h *AIHandler) Recommendations(c *gin.Context) {
	var req recommendationsRequest
	if !bindJSON(c, &req) {
		return
	}
	level := req.UserLevel
	if level == "" {
		level = "intermediate"
	}
	recs := h.assistant.Recommendations(c.Request.Context(), req.Subject, req.Topic, level)
	c.JSON(http.StatusOK, gin.H{"recommendations": recs})
}

// Question handles POST /api/ai/question
func (h *AIHandler) Question(c *gin.Context) {
	var req questionRequest
	if !bindJSON(c, &req) {
		return
	}
	answer := h.assistant.AnswerQuestion(c.Request.Context(), req.Question, req.Context)
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

// StudyPlan handles POST /api/ai/study-plan
func (h *AIHandler) StudyPlan(c *gin.Context) {
	var req studyPlanRequest
	if !bindJSON(c, &req) {
		return
	}
	plan := h.assistant.StudyPlan(c.Request.Context(), req.Subjects, req.TimeAvailable, req.Goals)
	c.JSON(http.StatusOK, gin.H{"plan": plan})
}
