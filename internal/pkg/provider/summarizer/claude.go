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

const claudePromptTemplate = `あなたは日本語の音声日記を要約する専門AIです。以下の音声から文字起こしされたテキストを要約してください：

テキスト：
%s

要件：
- 簡潔で読みやすい日本語で要約する
- 感情や体験の本質を捉える
- 3-5文程度でまとめる
- 敬語は使わず、親しみやすい文体で
- 重要な出来事や気づきを重視する

要約：`

// Claude summarizes with the anthropic messages REST API
type Claude struct {
	httpclient *http.Client
	url        string
	key        string
	model      string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClaude creates messages API client
func NewClaude(key, model string) (*Claude, error) {
	if key == "" {
		return nil, fmt.Errorf("no key")
	}
	if model == "" {
		return nil, fmt.Errorf("no model")
	}
	res := &Claude{key: key, model: model}
	res.url = "https://api.anthropic.com/v1/messages"
	res.httpclient = provider.NewHTTPClient()
	res.timeout = time.Second * 50
	res.backoff = provider.NewSimpleBackoff
	return res, nil
}

type (
	claudeRequest struct {
		Model       string        `json:"model"`
		MaxTokens   int           `json:"max_tokens"`
		Temperature float64       `json:"temperature"`
		Messages    []chatMessage `json:"messages"`
	}
	claudeResponse struct {
		Content []struct {
			Text string `json:"text"`
		} `json:"content"`
		Usage struct {
			InputTokens  int `json:"input_tokens"`
			OutputTokens int `json:"output_tokens"`
		} `json:"usage"`
	}
)

// Summarize calls the messages API with a single turn prompt
func (c *Claude) Summarize(ctx context.Context, text string) (*api.SummaryResult, error) {
	reqData := claudeRequest{Model: c.model, MaxTokens: 300, Temperature: 0.7,
		Messages: []chatMessage{{Role: "user", Content: fmt.Sprintf(claudePromptTemplate, text)}}}
	res, err := provider.InvokeJSON[claudeResponse](ctx, c.httpclient, c.url, c.timeout, c.backoff(),
		reqData, map[string]string{"x-api-key": c.key, "anthropic-version": "2023-06-01"})
	if err != nil {
		return nil, err
	}
	if len(res.Content) == 0 {
		return nil, fmt.Errorf("no content in response")
	}
	summary := strings.TrimSpace(res.Content[0].Text)
	return &api.SummaryResult{Summary: summary, Title: api.MakeTitle(summary),
		Model: c.model, TokensUsed: res.Usage.InputTokens + res.Usage.OutputTokens}, nil
}
