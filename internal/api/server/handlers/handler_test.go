package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bz888/tsdr/internal/api/server/client"
	"github.com/bz888/tsdr/internal/prompt"
	"github.com/bz888/tsdr/pkg/errors"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type MockCompleter struct {
	mock.Mock
}

func (m *MockCompleter) Complete(ctx context.Context, messages []client.ChatMessage) (string, error) {
	args := m.Called(ctx, messages)
	return args.String(0), args.Error(1)
}

func (m *MockCompleter) Name() string {
	return "mock"
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(completer client.Completer) *gin.Engine {
	handler := NewHandler(completer, zap.NewNop())
	router := gin.New()
	router.POST("/api/generate", handler.Generate)
	router.GET("/health", handler.Health)
	router.GET("/api/languages", handler.Languages)
	return router
}

func postGenerate(t *testing.T, router http.Handler, body string) (int, client.GenerateResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var resp client.GenerateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return rec.Code, resp
}

func TestGenerateRoundTrip(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, prompt.Compose("vou dormir", "pt")).Return("Texto expandido.", nil).Once()

	status, resp := postGenerate(t, newRouter(completer), `{"text":"vou dormir","language":"pt"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, client.GenerateResponse{Result: "Texto expandido."}, resp)
	completer.AssertExpectations(t)
}

func TestGenerateDefaultsLanguageToPortuguese(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, mock.MatchedBy(func(msgs []client.ChatMessage) bool {
		return len(msgs) == 2 && msgs[0].Content == prompt.SystemPrompt(prompt.Portuguese) && msgs[1].Content == "going to sleep"
	})).Return("ok", nil).Once()

	status, _ := postGenerate(t, newRouter(completer), `{"text":"going to sleep"}`)

	assert.Equal(t, http.StatusOK, status)
	completer.AssertExpectations(t)
}

func TestGenerateUsesEnglishTemplate(t *testing.T) {
	completer := new(MockCompleter)
	completer.On("Complete", mock.Anything, prompt.Compose("going to sleep", "en")).Return("Verbose.", nil).Once()

	status, resp := postGenerate(t, newRouter(completer), `{"text":"going to sleep","language":"en"}`)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Verbose.", resp.Result)
	completer.AssertExpectations(t)
}

func TestGenerateFailureMapsTo500(t *testing.T) {
	failures := []error{
		errors.NewUpstreamError("mock", http.StatusServiceUnavailable, nil),
		errors.NewMalformedResponseError("mock", "no choices", nil),
	}
	for _, failure := range failures {
		completer := new(MockCompleter)
		completer.On("Complete", mock.Anything, mock.Anything).Return("", failure).Once()

		status, resp := postGenerate(t, newRouter(completer), `{"text":"anything","language":"en"}`)

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, FailedMessage, resp.Result)
		assert.Equal(t, errors.CodeOf(failure), resp.Code)
	}
}

func TestGenerateRejectsMissingText(t *testing.T) {
	for _, body := range []string{`{}`, `{"text":""}`, `{"text":"   ","language":"en"}`, `not json`} {
		completer := new(MockCompleter)

		status, resp := postGenerate(t, newRouter(completer), body)

		assert.Equal(t, http.StatusBadRequest, status, body)
		assert.Equal(t, TextRequiredMessage, resp.Result)
		assert.Equal(t, errors.CodeValidation, resp.Code)
		completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
	}
}

func TestHealthAndLanguages(t *testing.T) {
	router := newRouter(new(MockCompleter))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","provider":"mock"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/languages", nil))
	assert.JSONEq(t, `{"languages":["pt","en"],"default":"pt"}`, rec.Body.String())
}
