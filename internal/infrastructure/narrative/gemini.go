package narrative

import (
	"context"

	"google.golang.org/genai"

	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// ContentGenerator is the subset of genai.Models the service calls.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiService produces insights with the Gemini API.
type GeminiService struct {
	models    ContentGenerator
	model     string
	maxTokens int32
	logger    logging.Logger
}

func NewGeminiService(cfg config.NarrativeConfig, log logging.Logger) (*GeminiService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "gemini api key required")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, unavailable(err, config.NarrativeGemini)
	}
	return NewGeminiServiceWithModels(client.Models, cfg, log), nil
}

func NewGeminiServiceWithModels(models ContentGenerator, cfg config.NarrativeConfig, log logging.Logger) *GeminiService {
	if log == nil {
		log = logging.NewNopLogger()
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultGeminiModel
	}
	return &GeminiService{
		models:    models,
		model:     model,
		maxTokens: int32(cfg.MaxTokens),
		logger:    log.Named("gemini"),
	}
}

func (s *GeminiService) Complete(ctx context.Context, prompt string) ([]string, error) {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(temperature)),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: SystemPrompt}},
		},
	}
	if s.maxTokens > 0 {
		gc.MaxOutputTokens = s.maxTokens
	}

	resp, err := s.models.GenerateContent(ctx, s.model, genai.Text(prompt), gc)
	if err != nil {
		return nil, unavailable(err, config.NarrativeGemini)
	}
	lines := SplitLines(resp.Text())
	s.logger.Debug("narrative generated", logging.String("model", s.model), logging.Int("lines", len(lines)))
	return lines, nil
}

//Personal.AI order the ending
