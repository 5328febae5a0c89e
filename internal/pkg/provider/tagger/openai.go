package tagger

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/audiary/audiary/internal/pkg/provider"
	"github.com/cenkalti/backoff/v4"
)

const openAITagSystemPrompt = `あなたは日本語の音声日記にタグを付けるAIアシスタントです。

以下のルールに従ってタグを提案してください：
1. 最大3つのタグを提案する
2. 既存タグの中で適切なものがあれば優先的に選択する
3. 既存タグで十分でない場合のみ、新しいタグを提案する
4. タグは簡潔で分かりやすい日本語（1-4文字程度）
5. 感情、活動、場所、人間関係などのカテゴリから選択
6. 出力はJSONフォーマット: {"tags": ["タグ1", "タグ2", "タグ3"]}

既存タグ: `

// OpenAI suggests tags with the chat completions REST API
type OpenAI struct {
	httpclient *http.Client
	url        string
	key        string
	model      string
	timeout    time.Duration
	backoff    func() backoff.BackOff
}

// NewOpenAI creates chat completions tag client
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
	res.timeout = time.Second * 30
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
	}
)

// SuggestTags asks the chat API for up to 3 tags
func (c *OpenAI) SuggestTags(ctx context.Context, transcription, summary string, existing []string) ([]string, error) {
	userPrompt := fmt.Sprintf(`以下の日記内容からタグを提案してください：

文字起こし：
%s

要約：
%s

適切なタグを最大3つ提案してください。`, transcription, summary)
	reqData := chatRequest{Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: openAITagSystemPrompt + existingTagsStr(existing)},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens: 150, Temperature: 0.3}
	res, err := provider.InvokeJSON[chatResponse](ctx, c.httpclient, c.url, c.timeout, c.backoff(),
		reqData, map[string]string{"Authorization": "Bearer " + c.key})
	if err != nil {
		return nil, err
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}
	return parseTags(res.Choices[0].Message.Content), nil
}

func parseTags(content string) []string {
	content = strings.TrimSpace(content)
	var tr tagsResponse
	if err := json.Unmarshal([]byte(content), &tr); err == nil {
		return limitTags(tr.Tags)
	}
	return extractTags(content)
}
