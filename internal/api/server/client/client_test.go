package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bz888/tsdr/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var testMessages = []ChatMessage{
	{Role: RoleSystem, Content: "be verbose"},
	{Role: RoleUser, Content: "vou dormir"},
}

func newTestChatClient(t *testing.T, handler http.HandlerFunc) *ChatClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewChatClient(ClientConfig{
		Provider: ProviderHackClub,
		BaseURL:  srv.URL,
		ChatPath: "/chat/completions",
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestChatClientReturnsFirstChoiceContent(t *testing.T) {
	var gotBody map[string]json.RawMessage
	c := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"X"}}]}`)
	})

	content, err := c.Complete(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "X", content)

	assert.Len(t, gotBody, 1, "only messages is sent when no model is configured")
	var sent []ChatMessage
	require.NoError(t, json.Unmarshal(gotBody["messages"], &sent))
	assert.Equal(t, testMessages, sent)
}

func TestChatClientNonSuccessIsUpstreamError(t *testing.T) {
	calls := 0
	c := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"choices":[{"message":{"content":"ignored"}}]}`)
	})

	content, err := c.Complete(context.Background(), testMessages)
	assert.Empty(t, content)

	var upstream *errors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.UpstreamStatus)
	assert.Equal(t, 1, calls, "no retry")
}

func TestChatClientMalformedResponses(t *testing.T) {
	bodies := map[string]string{
		"empty object":    `{}`,
		"empty choices":   `{"choices":[]}`,
		"missing message": `{"choices":[{"index":0}]}`,
		"empty content":   `{"choices":[{"message":{"role":"assistant","content":""}}]}`,
		"not json":        `<html>oops</html>`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c := newTestChatClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			})

			_, err := c.Complete(context.Background(), testMessages)
			assert.True(t, errors.IsMalformed(err), "got %v", err)
		})
	}
}

func TestChatClientSendsModelAndKeyWhenConfigured(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		var req ChatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "tiny", req.Model)
		io.WriteString(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	c, err := NewChatClient(ClientConfig{BaseURL: srv.URL + "/v1/", ChatPath: "/chat/completions", APIKey: "secret", Model: "tiny"}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/v1/chat/completions", c.GetChatURL())

	content, err := c.Complete(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
}

func TestChatClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewChatClient(ClientConfig{BaseURL: url, ChatPath: "/chat/completions"}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), testMessages)
	var upstream *errors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, 0, upstream.UpstreamStatus)
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "ai.hackclub.com"})
	assert.Error(t, err)
}

func TestOllamaClientComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		var req OllamaChatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Equal(t, "llama3:latest", req.Model)
		io.WriteString(w, `{"model":"llama3:latest","message":{"role":"assistant","content":"Texto expandido."},"done":true}`)
	}))
	defer srv.Close()

	c, err := NewOllamaClient(ClientConfig{Provider: ProviderOllama, BaseURL: srv.URL}.WithDefaults(), zap.NewNop())
	require.NoError(t, err)

	content, err := c.Complete(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "Texto expandido.", content)
}

func TestOpenAIClientCompleteAgainstCompatibleServer(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"c1","object":"chat.completion","created":0,"model":"gpt-4o-mini",
			"choices":[{"index":0,"message":{"role":"assistant","content":"X"},"finish_reason":"stop"}],
			"usage":{"prompt_tokens":1,"completion_tokens":1,"total_tokens":2}}`)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(ClientConfig{Provider: ProviderOpenAI, BaseURL: srv.URL, APIKey: "sk-test"}.WithDefaults(), zap.NewNop())
	require.NoError(t, err)

	content, err := c.Complete(context.Background(), testMessages)
	require.NoError(t, err)
	assert.Equal(t, "X", content)
	assert.Equal(t, 1, calls)
}

func TestOpenAIClientStatusMapsToUpstreamError(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		io.WriteString(w, `{"error":{"message":"overloaded"}}`)
	}))
	defer srv.Close()

	c, err := NewOpenAIClient(ClientConfig{Provider: ProviderOpenAI, BaseURL: srv.URL, APIKey: "sk-test"}.WithDefaults(), zap.NewNop())
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), testMessages)
	var upstream *errors.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.UpstreamStatus)
	assert.Equal(t, 1, calls, "retries are disabled")
}

func TestToGeminiContentsSplitsSystemInstruction(t *testing.T) {
	system, contents := toGeminiContents(testMessages)

	require.NotNil(t, system)
	require.Len(t, system.Parts, 1)
	assert.Equal(t, "be verbose", system.Parts[0].Text)

	require.Len(t, contents, 1)
	assert.Equal(t, "user", contents[0].Role)
	assert.Equal(t, "vou dormir", contents[0].Parts[0].Text)
}

func TestExtractTextFromGeminiResponseHandlesEmpty(t *testing.T) {
	assert.Equal(t, "", extractTextFromGeminiResponse(nil))
}

func TestNewCompleterSelectsProvider(t *testing.T) {
	c, err := NewCompleter(context.Background(), ClientConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ProviderHackClub, c.Name())
	assert.Equal(t, "https://ai.hackclub.com/chat/completions", c.(*ChatClient).GetChatURL())

	_, err = NewCompleter(context.Background(), ClientConfig{Provider: "claude"}, zap.NewNop())
	assert.Error(t, err)

	_, err = NewCompleter(context.Background(), ClientConfig{Provider: ProviderOpenAI}, zap.NewNop())
	assert.Equal(t, errors.CodeValidation, errors.CodeOf(err))
}
