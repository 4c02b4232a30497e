package model

// Message is a single turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body accepted by POST /api/chat. Messages is left nil
// when the field is absent so that a missing list can be told apart from
// an empty one.
type ChatRequest struct {
	APIKey   string    `json:"api_key,omitempty"`
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ChatCompletion is the OpenAI-style envelope returned for every successful
// completion, whichever provider produced the text.
type ChatCompletion struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   Usage    `json:"usage"`
}

// Choice is one generated alternative. The gateway always returns exactly one.
type Choice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage is the token accounting block. The gateway does not count tokens,
// so every field is zero.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelList is the body returned by GET /api/models.
type ModelList struct {
	Models []string `json:"models"`
}
