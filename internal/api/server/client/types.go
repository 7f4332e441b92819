package client

// ChatMessage is one role-tagged entry of a chat-completion request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// GenerateResponse is returned by POST /api/generate on success and failure.
// Code is only set on failure.
type GenerateResponse struct {
	Result string `json:"result"`
	Code   string `json:"code,omitempty"`
}

type ChatCompletionRequest struct {
	Model    string        `json:"model,omitempty"`
	Messages []ChatMessage `json:"messages"`
}

type ChatCompletionResponse struct {
	ID      string       `json:"id,omitempty"`
	Model   string       `json:"model,omitempty"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage,omitempty"`
}

type ChatChoice struct {
	Index        int          `json:"index"`
	Message      *ChatMessage `json:"message"`
	FinishReason *string      `json:"finish_reason,omitempty"`
}

type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
