package summarizer

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/audiary/audiary/internal/pkg/provider"
	"github.com/audiary/audiary/internal/pkg/provider/api"
	"github.com/cenkalti/backoff/v4"
)

const openAISystemPrompt = `あなたは日本語の音声日記を要約する専門AIです。以下の指示に従って要約を作成してください：

1. 簡潔で読みやすい日本語で要約する
2. 感情や体験の本質を捉える
3. 3-5文程度でまとめる
4. 敬語は使わず、親しみやすい文体で
5. 重要な出来事や気づきを重視する`

// OpenAI summarizes with the chat completions REST API
type OpenAI struct {
	httpclient *http.Client
	url        string
	key        string
	model      string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewOpenAI creates chat completions client
func NewOpenAI(key, model string) (*OpenAI, error) {
	if key == "" {
		return nil, fmt.Errorf("no key")
	}
	if model == "" {
		return nil, fmt.Errorf("no model")
	}
	res := &OpenAI{key: key, model: model}
	res.url = "https://api.openai.com/v1/chat/completions"
	res.httpclient = provider.NewHTTPClient()
	res.timeout = time.Second * 50
	res.backoff = provider.NewSimpleBackoff
	return res, nil
}

type (
	chatMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	chatRequest struct {
		Model       string        `json:"model"`
		Messages    []chatMessage `json:"messages"`
		MaxTokens   int           `json:"max_tokens"`
		Temperature float64       `json:"temperature"`
	}
	chatResponse struct {
		Choices []struct {
			Message chatMessage `json:"message"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
)

// Summarize calls the chat API with the fixed diary style instruction
func (c *OpenAI) Summarize(ctx context.Context, text string) (*api.SummaryResult, error) {
	reqData := chatRequest{Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: openAISystemPrompt},
			{Role: "user", Content: "以下の音声から文字起こしされたテキストを要約してください：\n\n" + text},
		},
		MaxTokens: 300, Temperature: 0.7}
	res, err := provider.InvokeJSON[chatResponse](ctx, c.httpclient, c.url, c.timeout, c.backoff(),
		reqData, map[string]string{"Authorization": "Bearer " + c.key})
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	summary := strings.TrimSpace(res.Choices[0].Message.Content)
	return &api.SummaryResult{Summary: summary, Title: api.MakeTitle(summary),
		Model: c.model, TokensUsed: res.Usage.TotalTokens}, nil
}
