// Package narrative adapts hosted language models to costing.NarrativeService.
// Each adapter sends one prompt and splits the reply into insight lines.
package narrative

import (
	"regexp"
	"strings"

	"github.com/turtacn/KeyIP-CostEngine/internal/config"
	"github.com/turtacn/KeyIP-CostEngine/internal/domain/costing"
	"github.com/turtacn/KeyIP-CostEngine/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/KeyIP-CostEngine/pkg/errors"
)

// SystemPrompt frames every narrative request.
const SystemPrompt = "You are an IP strategy expert. Provide exactly 3 concise, actionable insights " +
	"about patent filing strategy based on business context and costs. " +
	"Format each insight as a separate line starting with a number (1., 2., 3.)."

const temperature = 0.7

var listMarker = regexp.MustCompile(`^(?:[-*•]\s*|\d+[.)]\s*)`)

// SplitLines breaks a model reply into non-empty lines and strips list
// markers such as "1." or "-".
func SplitLines(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}

// New returns the service selected by cfg.Provider. Provider "none" yields a
// nil service, which the insight composer treats as unavailable.
func New(cfg config.NarrativeConfig, log logging.Logger) (costing.NarrativeService, error) {
	switch cfg.Provider {
	case "", config.NarrativeNone:
		return nil, nil
	case config.NarrativeGemini:
		svc, err := NewGeminiService(cfg, log)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case config.NarrativeAnthropic:
		svc, err := NewAnthropicService(cfg, log)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, errors.New(errors.ErrCodeValidation, "unknown narrative provider").WithDetail(cfg.Provider)
	}
}

func unavailable(err error, provider string) error {
	return errors.Wrap(err, errors.ErrCodeCollaboratorUnavailable, "narrative request failed").WithDetail(provider)
}

//Personal.AI order the ending
