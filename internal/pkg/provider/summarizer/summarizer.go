package summarizer

import (
	"fmt"
	"os"

	"github.com/audiary/audiary/internal/pkg/provider/api"
	"github.com/audiary/audiary/internal/pkg/settings"
	"github.com/audiary/audiary/internal/pkg/utils"
)

// Provider builds a summarizer for the resolved configuration
type Provider struct {
	env func(string) string
}

// NewProvider creates summarizer factory
func NewProvider() (*Provider, error) {
	return &Provider{env: os.Getenv}, nil
}

// WithEnv replaces environment access, for tests
func (p *Provider) WithEnv(env func(string) string) *Provider {
	p.env = env
	return p
}

// Get returns the summarizer selected by the snapshot
func (p *Provider) Get(sn *settings.Snapshot) (api.Summarizer, error) {
	switch sn.SummaryAPI {
	case settings.APIMock:
		return NewMock(), nil
	case settings.APIOpenAI:
		key := p.env("OPENAI_API_KEY")
		if key == "" {
			return nil, utils.NewErrConfig("openai summary requires OPENAI_API_KEY")
		}
		return NewOpenAI(key, sn.SummaryModel)
	case settings.APIClaude:
		key := p.env("CLAUDE_API_KEY")
		if key == "" {
			return nil, utils.NewErrConfig("claude summary requires CLAUDE_API_KEY")
		}
		return NewClaude(key, sn.SummaryModel)
	}
	return nil, utils.NewErrConfig(fmt.Sprintf("unsupported summary api '%s'", sn.SummaryAPI))
}
