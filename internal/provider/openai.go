package provider

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/leonardcser/clockverse/internal/content"
)

const (
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultOpenAIModel   = "gpt-3.5-turbo"

	maxResponseSize = 1 << 20
)

const systemPrompt = "You are a poet that makes a beautiful and short poem, no more than 4 verses long " +
	"in the style of %s with the current time by using the time in the first line of the poem, " +
	"write the time in words in full and not as numerals. Note: use \\n to separate the verses."

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// OpenAIText asks a chat-completions endpoint for the poem.
type OpenAIText struct {
	http    *HTTPClient
	baseURL string
	apiKey  string
	model   string
}

func NewOpenAIText(hc *HTTPClient, baseURL, apiKey, model string) *OpenAIText {
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAIText{http: hc, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, model: model}
}

func (o *OpenAIText) GenerateText(ctx context.Context, req content.Request) (content.Poem, error) {
	poet := req.Poet
	if poet == "" {
		poet = "Sylvia Plath"
	}
	body, err := sjson.SetBytes([]byte(`{}`), "model", o.model)
	if err != nil {
		return content.Poem{}, err
	}
	body, err = sjson.SetBytes(body, "messages", []chatMessage{
		{Role: "system", Content: fmt.Sprintf(systemPrompt, poet)},
		{Role: "user", Content: "The time is " + req.Clock()},
	})
	if err != nil {
		return content.Poem{}, err
	}

	resp, err := o.http.Do(ctx, http.MethodPost, o.baseURL+"/chat/completions", body, map[string]string{
		"Authorization": "Bearer " + o.apiKey,
		"Content-Type":  "application/json",
	})
	if err != nil {
		return content.Poem{}, fmt.Errorf("openai: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return content.Poem{}, fmt.Errorf("openai: read body: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests {
		return content.Poem{}, fmt.Errorf("openai: %s: %w", gjson.GetBytes(raw, "error.code").String(), content.ErrRateLimited)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return content.Poem{}, fmt.Errorf("openai: status %d: %s", resp.StatusCode, gjson.GetBytes(raw, "error.message").String())
	}

	text := strings.TrimSpace(gjson.GetBytes(raw, "choices.0.message.content").String())
	if text == "" {
		return content.Poem{}, fmt.Errorf("openai: empty completion")
	}
	return content.Poem{Text: text, Poet: poet}, nil
}
