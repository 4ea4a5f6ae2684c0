package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/openai/openai-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/studymate/internal/cache"
)

// chatRequest is the subset of the wire request the tests inspect.
type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	MaxTokens      int `json:"max_tokens"`
	ResponseFormat *struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func chatResponse(choices ...string) map[string]any {
	out := make([]map[string]any, 0, len(choices))
	for i, content := range choices {
		out = append(out, map[string]any{
			"index":         i,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		})
	}
	return map[string]any{
		"id":      "cmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": out,
	}
}

// completionServer answers every request with content, or with status if
// non-200. It records the last decoded request and the number of calls.
func completionServer(t *testing.T, status int, content string) (*httptest.Server, *chatRequest, *atomic.Int32) {
	t.Helper()
	var (
		last  chatRequest
		calls atomic.Int32
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.Header().Set("Retry-After-Ms", "1")
			w.WriteHeader(status)
			w.Write([]byte(`{"error":{"message":"boom","type":"rate_limit_error"}}`))
			return
		}
		json.NewEncoder(w).Encode(chatResponse(content))
	}))
	t.Cleanup(srv.Close)
	return srv, &last, &calls
}

func TestClient_Complete(t *testing.T) {
	srv, last, _ := completionServer(t, http.StatusOK, "Recursion is a function calling itself.")
	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1/", Model: "test-model"})

	got, err := client.Complete(context.Background(), "system", "what is recursion?", WithJSONObject(), WithMaxTokens(100))
	require.NoError(t, err)
	assert.Equal(t, "Recursion is a function calling itself.", got)

	assert.Equal(t, "test-model", last.Model)
	require.Len(t, last.Messages, 2)
	assert.Equal(t, "system", last.Messages[0].Role)
	assert.Equal(t, "user", last.Messages[1].Role)
	assert.Equal(t, "what is recursion?", last.Messages[1].Content)
	require.NotNil(t, last.ResponseFormat)
	assert.Equal(t, "json_object", last.ResponseFormat.Type)
	assert.Equal(t, 100, last.MaxTokens)
}

func TestClient_Errors(t *testing.T) {
	srv, _, calls := completionServer(t, http.StatusTooManyRequests, "")
	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1"})
	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	var apiErr *openai.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	assert.EqualValues(t, 1, calls.Load(), "retries are off unless configured")

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(chatResponse())
	}))
	t.Cleanup(empty.Close)
	client = NewClient(ClientConfig{APIKey: "test-key", BaseURL: empty.URL + "/v1"})
	_, err = client.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrNoChoices)
}

func TestClient_Retries(t *testing.T) {
	srv, _, calls := completionServer(t, http.StatusServiceUnavailable, "")
	client := NewClient(ClientConfig{APIKey: "test-key", BaseURL: srv.URL + "/v1", MaxRetries: 2})
	_, err := client.Complete(context.Background(), "s", "u")
	require.Error(t, err)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_Timeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(slow.Close)

	client := NewClient(ClientConfig{APIKey: "k", BaseURL: slow.URL, Timeout: 50 * time.Millisecond})
	start := time.Now()
	_, err := client.Complete(context.Background(), "s", "u")
	assert.Error(t, err)
	assert.Less(t, time.Since(start), time.Second)
}

type fakeCompleter struct {
	mu      sync.Mutex
	content string
	err     error
	calls   int
}

func (f *fakeCompleter) Complete(ctx context.Context, systemPrompt, userPrompt string, opts ...Option) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.content, f.err
}

type memCache struct {
	mu      sync.Mutex
	data    map[string]string
	failGet bool
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string]string)}
}

func (m *memCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := m.data[key]
	if !ok {
		return "", cache.ErrNotFound
	}
	return v, nil
}

func (m *memCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value.(string)
	return nil
}

func (m *memCache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	raw, err := m.Get(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(raw), dest)
}

func (m *memCache) SetJSON(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return m.Set(ctx, key, string(data), expiration)
}

func TestAssistant_DegradesOnFailure(t *testing.T) {
	ctx := context.Background()
	failing := &fakeCompleter{err: errors.New("upstream down")}
	a := NewAssistant(failing, nil, time.Minute, zap.NewNop())

	recs := a.Recommendations(ctx, "DSA", "Trees", "beginner")
	assert.NotNil(t, recs)
	assert.Empty(t, recs)
	assert.Equal(t, QuestionUnavailable, a.AnswerQuestion(ctx, "what is a heap?", ""))
	assert.Equal(t, StudyPlanUnavailable, a.StudyPlan(ctx, []string{"DSA"}, "2h/day", "pass"))

	unconfigured := NewAssistant(nil, nil, time.Minute, zap.NewNop())
	assert.Equal(t, QuestionUnavailable, unconfigured.AnswerQuestion(ctx, "q", ""))
	assert.Empty(t, unconfigured.Recommendations(ctx, "a", "b", "c"))
}

func TestAssistant_EmptyCompletion(t *testing.T) {
	ctx := context.Background()
	a := NewAssistant(&fakeCompleter{content: "  "}, nil, time.Minute, zap.NewNop())

	assert.Equal(t, QuestionEmpty, a.AnswerQuestion(ctx, "q", ""))
	assert.Equal(t, StudyPlanEmpty, a.StudyPlan(ctx, []string{"DSA"}, "1h", "learn"))
	assert.Empty(t, a.Recommendations(ctx, "a", "b", "c"))
}

func TestAssistant_Recommendations(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name    string
		content string
		want    []float64
	}{
		{"wrapped object", `{"recommendations":[{"resourceType":"Video Tutorial","title":"Trees","relevanceScore":8}]}`, []float64{8}},
		{"bare array", `[{"title":"A","relevanceScore":3},{"title":"B","relevanceScore":4}]`, []float64{3, 4}},
		{"scores clamped", `{"recommendations":[{"title":"A","relevanceScore":42},{"title":"B","relevanceScore":-1}]}`, []float64{10, 1}},
		{"missing key", `{"items":[]}`, []float64{}},
		{"not json", `here are some resources`, []float64{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAssistant(&fakeCompleter{content: tc.content}, nil, time.Minute, zap.NewNop())
			recs := a.Recommendations(ctx, "DSA", "Trees", "beginner")
			require.NotNil(t, recs)

			scores := make([]float64, 0, len(recs))
			for _, r := range recs {
				scores = append(scores, r.RelevanceScore)
			}
			assert.Equal(t, tc.want, scores)
		})
	}
}

func TestAssistant_CachesSuccessfulAnswers(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{content: "Use a min-heap."}
	c := newMemCache()
	a := NewAssistant(completer, c, time.Minute, zap.NewNop())

	assert.Equal(t, "Use a min-heap.", a.AnswerQuestion(ctx, "how do I find k smallest?", ""))
	assert.Equal(t, "Use a min-heap.", a.AnswerQuestion(ctx, "how do I find k smallest?", ""))
	assert.Equal(t, 1, completer.calls, "second call served from cache")

	a.AnswerQuestion(ctx, "how do I find k smallest?", "arrays unit")
	assert.Equal(t, 2, completer.calls, "context is part of the key")

	completer.content = `{"recommendations":[{"title":"A","relevanceScore":5}]}`
	first := a.Recommendations(ctx, "DSA", "Heaps", "beginner")
	second := a.Recommendations(ctx, "DSA", "Heaps", "beginner")
	assert.Equal(t, first, second)
	assert.Equal(t, 3, completer.calls)
}

func TestAssistant_FallbacksAreNotCached(t *testing.T) {
	ctx := context.Background()
	completer := &fakeCompleter{err: errors.New("down")}
	c := newMemCache()
	a := NewAssistant(completer, c, time.Minute, zap.NewNop())

	assert.Equal(t, StudyPlanUnavailable, a.StudyPlan(ctx, []string{"OS"}, "1h", "pass"))
	assert.Empty(t, c.data)

	completer.err = nil
	completer.content = "Week 1: processes."
	assert.Equal(t, "Week 1: processes.", a.StudyPlan(ctx, []string{"OS"}, "1h", "pass"))
}

func TestAssistant_CacheErrorsAreIgnored(t *testing.T) {
	ctx := context.Background()
	c := newMemCache()
	c.failGet = true
	a := NewAssistant(&fakeCompleter{content: "answer"}, c, time.Minute, zap.NewNop())

	assert.Equal(t, "answer", a.AnswerQuestion(ctx, "q", ""))
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("question", "a", "b"), cacheKey("question", "a", "b"))
	assert.NotEqual(t, cacheKey("question", "ab", ""), cacheKey("question", "a", "b"))
	assert.NotEqual(t, cacheKey("question", "a"), cacheKey("study-plan", "a"))
}
