package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/internal/assistant"
	"research-assistant/internal/domain"
	"research-assistant/internal/profile"
	"research-assistant/internal/sources"
	"research-assistant/internal/store"
)

type stubSource struct {
	name   string
	papers []domain.Paper
}

func (s *stubSource) Name() string { return s.name }

func (s *stubSource) Search(_ context.Context, _ sources.Query) ([]domain.Paper, error) {
	return s.papers, nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestServer(t *testing.T, llm assistant.LLMClient) (*Server, *gin.Engine) {
	t.Helper()

	logger := testLogger()

	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	agg := sources.NewAggregator([]sources.Source{
		&stubSource{name: "arXiv", papers: []domain.Paper{
			{ID: "2101.00001", Title: "Attention Is All You Need", Authors: []string{"Vaswani"}, Year: 2017, Source: "arXiv"},
			{ID: "2101.00002", Title: "Dynamic Routing Between Capsules", Authors: []string{"Sabour"}, Year: 2017, Source: "arXiv"},
		}},
	}, nil, logger)

	analyzer, err := assistant.NewAnalyzer(llm, st, logger)
	require.NoError(t, err)

	profiles, err := profile.NewManager(st, logger)
	require.NoError(t, err)

	srv, err := New(Options{
		Aggregator: agg,
		Analyzer:   analyzer,
		ChatBot:    assistant.NewChatBot(llm, logger),
		Profiles:   profiles,
		Store:      st,
		Logger:     logger,
	})
	require.NoError(t, err)

	return srv, srv.Routes()
}

func doJSON(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func loginDemo(t *testing.T, router *gin.Engine) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "demo_user",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	token, ok := decode(t, w)["token"].(string)
	require.True(t, ok)
	return token
}

func TestHealthz(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})
	w := doJSON(t, router, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRegisterAndLogin(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada", "email": "ada@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	out := decode(t, w)
	assert.NotEmpty(t, out["token"])

	w = doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada", "email": "other@example.com", "password": "secret",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "ada", "password": "secret",
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/login", "", map[string]string{
		"username": "ada", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})
	token := loginDemo(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/profile", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSearch(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})

	t.Run("query param", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/papers/search?query=transformers", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 2, decode(t, w)["count"])
	})

	t.Run("q alias", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/papers/search?q=transformers", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 2, decode(t, w)["count"])
	})

	t.Run("limit caps results", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/papers/search?query=transformers&limit=1", "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.EqualValues(t, 1, decode(t, w)["count"])
	})

	t.Run("missing query", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/api/papers/search", "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSearchRecordsHistory(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})
	token := loginDemo(t, router)

	w := doJSON(t, router, http.MethodGet, "/api/papers/search?query=transformers", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	history, ok := out["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)
	entry := history[0].(map[string]any)
	assert.Equal(t, "search", entry["type"])
	assert.Equal(t, "Search: transformers", entry["title"])
}

func TestAnalyzeAndRenderHTML(t *testing.T) {
	llm := assistant.MockLLM{Response: `{
		"summary": "A landmark paper on attention mechanisms.",
		"key_findings": [{"title": "Attention", "description": "Self-attention replaces recurrence."}],
		"methodology": {"description": "Empirical evaluation.", "steps": []},
		"implications": {"description": "Changed the field.", "research_gaps": [], "future_directions": []}
	}`}
	_, router := newTestServer(t, llm)

	paper := domain.Paper{
		ID: "1706.03762", Title: "Attention Is All You Need",
		Authors: []string{"Vaswani"}, Year: 2017, Source: "arXiv",
	}
	w := doJSON(t, router, http.MethodPost, "/api/papers/analyze", "", paper)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	ref, ok := out["paper_ref"].(float64)
	require.True(t, ok)
	analysis := out["analysis"].(map[string]any)
	assert.Equal(t, "A landmark paper on attention mechanisms.", analysis["summary"])

	w = doJSON(t, router, http.MethodGet,
		fmt.Sprintf("/api/papers/analysis/%d/html", int64(ref)), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h1>Attention Is All You Need</h1>")
	assert.Contains(t, body, "A landmark paper on attention mechanisms.")

	w = doJSON(t, router, http.MethodGet, "/api/papers/analysis/999/html", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSavedPapersFlow(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})
	token := loginDemo(t, router)

	paper := domain.Paper{ID: "p1", Title: "Capsule Networks", Source: "arXiv"}

	w := doJSON(t, router, http.MethodPost, "/api/papers/save", token, paper)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/papers/saved", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = doJSON(t, router, http.MethodDelete, "/api/papers/saved/p1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/papers/saved", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, decode(t, w)["count"])

	w = doJSON(t, router, http.MethodDelete, "/api/papers/saved/p1", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSaveRequiresAuth(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})
	w := doJSON(t, router, http.MethodPost, "/api/papers/save", "", domain.Paper{Title: "X"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChat(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{Response: "Transformers use self-attention."})

	w := doJSON(t, router, http.MethodPost, "/api/chat", "", map[string]any{
		"message": "what are transformers?",
	})
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "Transformers use self-attention.", out["reply"])
	assert.Contains(t, out["html"], "<p>Transformers use self-attention.</p>")
}

func TestChatRecordsHistory(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{Response: "It groups neurons into capsules."})
	token := loginDemo(t, router)

	w := doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]any{
		"message": "how does capsule routing work?",
		"papers":  []domain.Paper{{ID: "p1", Title: "Dynamic Routing Between Capsules", Source: "arXiv"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/chat", token, map[string]any{
		"message": "what is attention?",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)["history"].([]any)
	require.Len(t, history, 2)

	descriptions := make([]string, 0, 2)
	for _, raw := range history {
		entry := raw.(map[string]any)
		assert.Equal(t, "chat", entry["type"])
		descriptions = append(descriptions, entry["description"].(string))
	}
	assert.Contains(t, descriptions, "Question about Dynamic Routing Between Capsules")
	assert.Contains(t, descriptions, "Question about research")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 50))

	long := strings.Repeat("héllo wörld ", 10)
	got := truncate(long, 50)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, 50, len([]rune(strings.TrimSuffix(got, "..."))))
	assert.True(t, utf8.ValidString(got))
}

func TestChatMissingMessage(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})
	w := doJSON(t, router, http.MethodPost, "/api/chat", "", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTrending(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})
	w := doJSON(t, router, http.MethodGet, "/api/trending", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	topics := decode(t, w)["topics"].([]any)
	assert.Len(t, topics, 6)
}

func TestProfileUpdate(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})
	token := loginDemo(t, router)

	w := doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]string{
		"email": "demo@new.example.com",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "demo@new.example.com", user["email"])

	w = doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileUpdateDuplicateEmail(t *testing.T) {
	_, router := newTestServer(t, assistant.MockLLM{})

	w := doJSON(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{
		"username": "ada", "email": "ada@example.com", "password": "secret",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	token := loginDemo(t, router)
	w = doJSON(t, router, http.MethodPut, "/api/profile", token, map[string]string{
		"email": "ada@example.com",
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}
