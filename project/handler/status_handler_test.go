package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	router := newTestRouter(t, &stubModel{ready: true}, Options{Version: "1.2.3", Model: "gemini-2.5-flash", WebhookSecret: testSecret})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)
	assert.Equal(t, "gemini-2.5-flash", resp.Model)
	assert.Equal(t, "ready", resp.Services.Gemini)
	assert.Equal(t, "ready", resp.Services.DingTalk)
	assert.NotEmpty(t, resp.Timestamp)
}

func TestHealth_Degraded(t *testing.T) {
	router := newTestRouter(t, &stubModel{ready: false}, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "not_ready", resp.Services.Gemini)
	assert.Equal(t, "unverified", resp.Services.DingTalk)
}

func TestInfo(t *testing.T) {
	router := newTestRouter(t, &stubModel{ready: true}, Options{
		Version: "1.0.0", ProjectID: "proj", Location: "us-central1", Model: "m", Debug: true,
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"project_id":"proj","location":"us-central1","model":"m","version":"1.0.0","debug":true}`, rec.Body.String())
}

func TestTestEndpoint_OnlyInDebug(t *testing.T) {
	router := newTestRouter(t, &stubModel{ready: true, answer: "hi"}, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"`+msgNotFound+`"}`, rec.Body.String())
}

func TestTestEndpoint(t *testing.T) {
	model := &stubModel{ready: true, answer: "你好！"}
	router := newTestRouter(t, model, Options{Debug: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "你好", resp.Question)
	assert.Equal(t, "你好！", resp.Response)
	assert.Equal(t, "ok", resp.Outcome)
	assert.Empty(t, resp.SendStatus)
	assert.Equal(t, []string{"你好"}, model.calls())
}

func TestTestEndpoint_SendToRobot(t *testing.T) {
	ds := newDingtalkServer(t)
	model := &stubModel{ready: true, answer: "pong"}
	router := newTestRouter(t, model, Options{Debug: true, RobotURL: ds.URL, TestPrefix: "🧪 测试消息: "})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test?q=ping&send=true", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp TestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.SendStatus)

	msgs := ds.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "🧪 测试消息: pong", msgs[0]["text"].(map[string]interface{})["content"])
}

func TestTestEndpoint_NotReady(t *testing.T) {
	router := newTestRouter(t, &stubModel{ready: false}, Options{Debug: true})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/test?q=hi", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, &stubModel{ready: true}, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhook", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error"`)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t, &stubModel{ready: true}, Options{})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dingbot_http_requests_total")
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"`+msgInternal+`"}`, rec.Body.String())
}
