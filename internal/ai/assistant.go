package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/cache"
)

// Replies used when the completion API fails or returns nothing. Callers
// always get a usable answer.
const (
	QuestionUnavailable  = "I'm experiencing technical difficulties. Please try again later."
	QuestionEmpty        = "I'm sorry, I couldn't generate a response right now."
	StudyPlanUnavailable = "Unable to generate study plan. Please try again later."
	StudyPlanEmpty       = "Unable to generate study plan at this time."
)

const (
	minRelevance = 1
	maxRelevance = 10
)

type Recommendation struct {
	ResourceType   string  `json:"resourceType"`
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	URL            string  `json:"url,omitempty"`
	RelevanceScore float64 `json:"relevanceScore"`
}

// Completer is the part of Client the assistant needs.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (string, error)
}

// Cache stores successful answers. Plain text answers go through Get/Set,
// recommendation lists through the JSON pair. cache.RedisCache satisfies it;
// a miss is cache.ErrNotFound.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	GetJSON(ctx context.Context, key string, dest interface{}) error
	SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error
}

// Assistant wraps the completion API with study prompts. None of its
// methods return an error: failures are logged and replaced by a fallback.
type Assistant struct {
	completer Completer
	cache     Cache
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewAssistant accepts a nil completer (no API key configured) and a nil
// cache; both are treated as "unavailable".
func NewAssistant(completer Completer, c Cache, cacheTTL time.Duration, logger *zap.Logger) *Assistant {
	return &Assistant{
		completer: completer,
		cache:     c,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

func (a *Assistant) Recommendations(ctx context.Context, subject, topic, userLevel string) []Recommendation {
	key := cacheKey("recommendations", subject, topic, userLevel)
	var cached []Recommendation
	if a.cachedJSON(ctx, key, &cached) {
		return cached
	}

	prompt := fmt.Sprintf(`Provide study resource recommendations for:
- Subject: %s
- Topic: %s
- Student level: %s

Recommend 5 different types of study resources, preferring ones that are freely available and suitable for engineering students.

Respond with a JSON object {"recommendations": [...]} where each item has:
- resourceType (e.g. "Video Tutorial", "Documentation", "Practice Problems", "Research Paper", "Online Course")
- title (specific resource name)
- description (why it helps)
- url (actual URL if available, or "Search for: <search terms>")
- relevanceScore (1-10)`, subject, topic, userLevel)

	content, err := a.complete(ctx, "recommendations",
		"You are a helpful study assistant for engineering students. Always respond with valid JSON.",
		prompt, WithJSONObject())
	if err != nil {
		return []Recommendation{}
	}

	recs, err := parseRecommendations(content)
	if err != nil {
		a.logger.Warn("unparseable recommendations", zap.Error(err))
		return []Recommendation{}
	}
	if len(recs) > 0 {
		a.storeJSON(ctx, key, recs)
	}
	return recs
}

func (a *Assistant) AnswerQuestion(ctx context.Context, question, questionContext string) string {
	key := cacheKey("question", question, questionContext)
	if answer, ok := a.cached(ctx, key); ok {
		return answer
	}

	var prompt string
	if questionContext != "" {
		prompt = fmt.Sprintf("Context: %s\n\nQuestion: %s\n\nPlease provide a helpful answer for this student.", questionContext, question)
	} else {
		prompt = fmt.Sprintf("Question: %s\n\nPlease provide a helpful answer for this engineering student.", question)
	}

	answer, err := a.complete(ctx, "question",
		"You are a helpful AI study assistant for engineering students. Provide clear, accurate, and educational responses.",
		prompt)
	if err != nil {
		return QuestionUnavailable
	}
	if strings.TrimSpace(answer) == "" {
		return QuestionEmpty
	}
	a.store(ctx, key, answer)
	return answer
}

func (a *Assistant) StudyPlan(ctx context.Context, subjects []string, timeAvailable, goals string) string {
	key := cacheKey("study-plan", strings.Join(subjects, "\x1f"), timeAvailable, goals)
	if plan, ok := a.cached(ctx, key); ok {
		return plan
	}

	prompt := fmt.Sprintf(`Create a personalized study plan for a student with:
- Subjects: %s
- Time available: %s
- Goals: %s

Provide a structured weekly study plan with specific time allocations, study techniques, and milestones.`,
		strings.Join(subjects, ", "), timeAvailable, goals)

	plan, err := a.complete(ctx, "study-plan",
		"You are an expert study planner for engineering students. Create detailed, actionable study plans.",
		prompt)
	if err != nil {
		return StudyPlanUnavailable
	}
	if strings.TrimSpace(plan) == "" {
		return StudyPlanEmpty
	}
	a.store(ctx, key, plan)
	return plan
}

func (a *Assistant) complete(ctx context.Context, op, system, user string, opts ...Option) (string, error) {
	if a.completer == nil {
		a.logger.Debug("ai completion skipped: no API key configured", zap.String("op", op))
		return "", errors.New("ai client not configured")
	}
	content, err := a.completer.Complete(ctx, system, user, opts...)
	if err != nil {
		a.logger.Error("ai completion failed", zap.String("op", op), zap.Error(err))
		return "", err
	}
	return content, nil
}

// parseRecommendations accepts {"recommendations": [...]} and, for models
// that ignore the wrapper, a bare array. Scores are clamped to 1-10.
func parseRecommendations(content string) ([]Recommendation, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return []Recommendation{}, nil
	}

	var recs []Recommendation
	if strings.HasPrefix(content, "[") {
		if err := json.Unmarshal([]byte(content), &recs); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}
	} else {
		var wrapped struct {
			Recommendations []Recommendation `json:"recommendations"`
		}
		if err := json.Unmarshal([]byte(content), &wrapped); err != nil {
			return nil, fmt.Errorf("decode recommendations: %w", err)
		}
		recs = wrapped.Recommendations
	}

	if recs == nil {
		recs = []Recommendation{}
	}
	for i := range recs {
		recs[i].RelevanceScore = clampScore(recs[i].RelevanceScore)
	}
	return recs, nil
}

func clampScore(score float64) float64 {
	switch {
	case score < minRelevance:
		return minRelevance
	case score > maxRelevance:
		return maxRelevance
	}
	return score
}

func cacheKey(op string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{0})
	}
	return "ai:" + op + ":" + hex.EncodeToString(h.Sum(nil))
}

func (a *Assistant) cached(ctx context.Context, key string) (string, bool) {
	if a.cache == nil {
		return "", false
	}
	val, err := a.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			a.logger.Warn("ai cache read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (a *Assistant) cachedJSON(ctx context.Context, key string, dest any) bool {
	if a.cache == nil {
		return false
	}
	if err := a.cache.GetJSON(ctx, key, dest); err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			a.logger.Warn("ai cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	return true
}

func (a *Assistant) store(ctx context.Context, key, value string) {
	if a.cache == nil {
		return
	}
	if err := a.cache.Set(ctx, key, value, a.cacheTTL); err != nil {
		a.logger.Warn("ai cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (a *Assistant) storeJSON(ctx context.Context, key string, value any) {
	if a.cache == nil {
		return
	}
	if err := a.cache.SetJSON(ctx, key, value, a.cacheTTL); err != nil {
		a.logger.Warn("ai cache write failed", zap.String("key", key), zap.Error(err))
	}
}
