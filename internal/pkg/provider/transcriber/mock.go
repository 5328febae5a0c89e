package transcriber

import (
	"context"
	"time"

	"github.com/audiary/audiary/internal/pkg/provider/api"
)

const mockText = "これはモック文字起こし結果です。実際の音声から生成された文字起こしテキストがここに表示されます。" +
	"本日は充実した一日でした。朝から晩まで様々な活動に取り組み、多くのことを学ぶことができました。"

// Mock is canned transcriber for development, simulates call latency
// so async callers get exercised
type Mock struct {
	Delay time.Duration
}

// NewMock creates mock transcriber
func NewMock() *Mock {
	return &Mock{Delay: 100 * time.Millisecond}
}

// Transcribe returns fixed text after the simulated delay
func (m *Mock) Transcribe(ctx context.Context, audioPath string) (*api.TranscribeResult, error) {
	select {
	case <-time.After(m.Delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &api.TranscribeResult{Text: mockText, Confidence: 0.95,
		Model: "mock-whisper-v1", Language: "ja"}, nil
}
