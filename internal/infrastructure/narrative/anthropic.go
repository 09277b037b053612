package narrative

import (
	"context"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// Messager is the subset of the Anthropic messages API the service calls.
type Messager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicService produces insights with the Anthropic Messages API.
type AnthropicService struct {
	messages  Messager
	model     string
	maxTokens int64
	logger    logging.Logger
}

func NewAnthropicService(cfg config.NarrativeConfig, log logging.Logger) (*AnthropicService, error) {
	if cfg.APIKey == "" {
		return nil, errors.New(errors.ErrCodeValidation, "anthropic api key required")
	}
	c := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return NewAnthropicServiceWithMessager(&c.Messages, cfg, log), nil
}

func NewAnthropicServiceWithMessager(m Messager, cfg config.NarrativeConfig, log logging.Logger) *AnthropicService {
	if log == nil {
		log = logging.NewNopLogger()
	}
	model := cfg.Model
	if model == "" {
		model = config.DefaultAnthropicModel
	}
	maxTokens := int64(cfg.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = config.DefaultNarrativeMaxTokens
	}
	return &AnthropicService{
		messages:  m,
		model:     model,
		maxTokens: maxTokens,
		logger:    log.Named("anthropic"),
	}
}

func (s *AnthropicService) Complete(ctx context.Context, prompt string) ([]string, error) {
	resp, err := s.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(s.model),
		MaxTokens:   s.maxTokens,
		System:      []anthropic.TextBlockParam{{Text: SystemPrompt}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(prompt))},
		Temperature: anthropic.Float(temperature),
	})
	if err != nil {
		return nil, unavailable(err, config.NarrativeAnthropic)
	}

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
			sb.WriteByte('\n')
		}
	}
	lines := SplitLines(sb.String())
	s.logger.Debug("narrative generated", logging.String("model", s.model), logging.Int("lines", len(lines)))
	return lines, nil
}

//Personal.AI order the ending
