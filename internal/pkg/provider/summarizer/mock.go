package summarizer

import (
	"context"
	"time"

	"github.com/audiary/audiary/internal/pkg/provider/api"
)

const mockSummary = "今日は充実した一日でした。様々な活動を通じて多くの学びを得ることができ、" +
	"個人的な成長を感じています。明日もこの調子で頑張りたいと思います。"

// Mock is canned summarizer for development, simulates call latency
type Mock struct {
	Delay time.Duration
}

// NewMock creates mock summarizer
func NewMock() *Mock {
	return &Mock{Delay: 100 * time.Millisecond}
}

// Summarize returns fixed summary after the simulated delay
func (m *Mock) Summarize(ctx context.Context, text string) (*api.SummaryResult, error) {
	select {
	case <-time.After(m.Delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &api.SummaryResult{Summary: mockSummary, Title: api.MakeTitle(mockSummary),
		Model: "mock-gpt-4o-mini", TokensUsed: 150}, nil
}
