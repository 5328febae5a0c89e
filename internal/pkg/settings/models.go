package settings

type (
	// ModelInfo describes one selectable provider model
	ModelInfo struct {
		Value       string `json:"value"`
		Name        string `json:"name"`
		Description string `json:"description"`
	}

	// ModelCatalog lists selectable models per provider api
	ModelCatalog struct {
		TranscribeModels map[string][]ModelInfo `json:"transcribe_models"`
		SummaryModels    map[string][]ModelInfo `json:"summary_models"`
	}
)

// Models returns the selectable model catalog
func Models() *ModelCatalog {
	return &ModelCatalog{
		TranscribeModels: map[string][]ModelInfo{
			APIMock:   {{Value: "mock-whisper-v1", Name: "Mock Whisper", Description: "モック用"}},
			APIOpenAI: {{Value: "whisper-1", Name: "Whisper-1", Description: "標準モデル"}},
			APIGoogle: {{Value: "latest_long", Name: "Latest Long", Description: "長時間音声用"}},
		},
		SummaryModels: map[string][]ModelInfo{
			APIMock: {{Value: "mock-gpt-4o-mini", Name: "Mock GPT", Description: "モック用"}},
			APIOpenAI: {
				{Value: "gpt-4o-mini", Name: "GPT-4o Mini", Description: "高コスパ・高品質"},
				{Value: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Description: "高速・標準品質"},
				{Value: "gpt-4o", Name: "GPT-4o", Description: "最高品質・高コスト"},
			},
			APIClaude: {
				{Value: "claude-3-haiku", Name: "Claude 3 Haiku", Description: "高速・低コスト"},
				{Value: "claude-3-sonnet", Name: "Claude 3 Sonnet", Description: "バランス型"},
				{Value: "claude-3-opus", Name: "Claude 3 Opus", Description: "最高品質"},
			},
		},
	}
}
