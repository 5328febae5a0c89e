package tagger

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/audiary/audiary/internal/pkg/provider"
	"github.com/cenkalti/backoff/v4"
)

const claudeTagPrompt = `あなたは日本語の音声日記にタグを付けるAIアシスタントです。

以下の日記内容からタグを提案してください：

文字起こし：
%s

要約：
%s

既存タグ: %s

ルール：
1. 最大3つのタグを提案する
2. 既存タグの中で適切なものがあれば優先的に選択する
3. 既存タグで十分でない場合のみ、新しいタグを提案する
4. タグは簡潔で分かりやすい日本語（1-4文字程度）
5. 感情、活動、場所、人間関係などのカテゴリから選択

出力形式：
{"tags": ["タグ1", "タグ2", "タグ3"]}`

// Claude suggests tags with the anthropic messages REST API
type Claude struct {
	httpclient *http.Client
	url        string
	key        string
	model      string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewClaude creates messages API tag client
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
	res.timeout = time.Second * 30
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
	}
)

// SuggestTags asks the messages API for up to 3 tags
func (c *Claude) SuggestTags(ctx context.Context, transcription, summary string, existing []string) ([]string, error) {
	reqData := claudeRequest{Model: c.model, MaxTokens: 150, Temperature: 0.3,
		Messages: []chatMessage{{Role: "user",
			Content: fmt.Sprintf(claudeTagPrompt, transcription, summary, existingTagsStr(existing))}}}
	res, err := provider.InvokeJSON[claudeResponse](ctx, c.httpclient, c.url, c.timeout, c.backoff(),
		reqData, map[string]string{"x-api-key": c.key, "anthropic-version": "2023-06-01"})
	if err != nil {
		return nil, err
	}
	if len(res.Content) == 0 {
		return nil, fmt.Errorf("no content in response")
	}
	return parseTags(res.Content[0].Text), nil
}
