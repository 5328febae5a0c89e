package tagger

import (
	"context"
	"os"
	"regexp"
	"strings"

	"github.com/audiary/audiary/internal/pkg/provider/api"
	"github.com/audiary/audiary/internal/pkg/settings"
)

const maxTags = 3

// Provider builds a tag suggester for the resolved configuration.
// Tag suggestion follows the summary api selection
type Provider struct {
	env func(string) string
}

// NewProvider creates tag suggester factory
func NewProvider() (*Provider, error) {
	return &Provider{env: os.Getenv}, nil
}

// WithEnv replaces environment access, for tests
func (p *Provider) WithEnv(env func(string) string) *Provider {
	p.env = env
	return p
}

// Get returns the suggester selected by the snapshot. Unlike the other
// providers a misconfiguration yields a noop suggester, tagging is best effort
func (p *Provider) Get(sn *settings.Snapshot) api.TagSuggester {
	switch sn.SummaryAPI {
	case settings.APIMock:
		return NewMock()
	case settings.APIOpenAI:
		if key := p.env("OPENAI_API_KEY"); key != "" {
			if res, err := NewOpenAI(key, sn.SummaryModel); err == nil {
				return res
			}
		}
	case settings.APIClaude:
		if key := p.env("CLAUDE_API_KEY"); key != "" {
			if res, err := NewClaude(key, sn.SummaryModel); err == nil {
				return res
			}
		}
	}
	return Noop{}
}

// Noop returns no tags
type Noop struct{}

func (Noop) SuggestTags(ctx context.Context, transcription, summary string, existing []string) ([]string, error) {
	return nil, nil
}

func existingTagsStr(existing []string) string {
	if len(existing) == 0 {
		return "なし"
	}
	if len(existing) > 20 {
		existing = existing[:20]
	}
	return strings.Join(existing, ", ")
}

type tagsResponse struct {
	Tags []string `json:"tags"`
}

var extractPatterns = []*regexp.Regexp{
	regexp.MustCompile(`"([^"]+)"`),
	regexp.MustCompile(`「([^」]+)」`),
	regexp.MustCompile(`・([^\s・]+)`),
}

// extractTags pulls tag looking fragments out of a reply that is not valid JSON
func extractTags(text string) []string {
	var res []string
	seen := map[string]bool{}
	for _, p := range extractPatterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			t := m[1]
			if len([]rune(t)) <= 10 && !seen[t] {
				seen[t] = true
				res = append(res, t)
			}
			if len(res) >= maxTags {
				return res
			}
		}
	}
	return res
}

func limitTags(tags []string) []string {
	if len(tags) > maxTags {
		return tags[:maxTags]
	}
	return tags
}
