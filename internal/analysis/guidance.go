package analysis

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"cybershield/backend/internal/config"
	"cybershield/backend/internal/llm"
	"cybershield/backend/internal/localization"
	"cybershield/backend/internal/models"
)

const guidancePrompt = `A person has reported a cybersecurity incident of type "%s".
Incident description: %s

Write %d short, practical safety precautions they should take now. Write them in %s. Put each precaution on its own line with no numbering and no other text.`

// Guide writes safety precautions for a submitted complaint.
type Guide struct {
	LLM       llm.Provider
	Localizer *localization.Localizer
}

func NewGuide(p llm.Provider, l *localization.Localizer) *Guide {
	return &Guide{LLM: p, Localizer: l}
}

// Tips always returns usable guidance. When the model fails or says nothing
// useful the static tips of the catalog are returned along with the reason.
func (g *Guide) Tips(ctx context.Context, c *models.Complaint) ([]string, error) {
	fallback := g.Localizer.Lines(c.Language, localization.TipsKey(c.IncidentType))

	answer, err := g.LLM.Generate(ctx, llm.Request{
		Prompt: fmt.Sprintf(guidancePrompt, c.IncidentType.Formatted(), c.IncidentDescription,
			config.MaxGuidanceTips, c.Language),
		Temperature: config.GuidanceTemperature,
		MaxTokens:   config.GuidanceMaxTokens,
	})
	if err != nil {
		return fallback, fmt.Errorf("guidance: %w", err)
	}

	tips := SplitTips(answer, config.MaxGuidanceTips)
	if len(tips) == 0 {
		return fallback, errors.New("guidance: empty model answer")
	}
	return tips, nil
}

var listMarker = regexp.MustCompile(`^(?:[-*•·]+|\d+[.)])\s*`)

// SplitTips turns a model answer into at most max clean lines, dropping
// bullets and list numbering.
func SplitTips(answer string, max int) []string {
	var tips []string
	for _, line := range strings.Split(answer, "\n") {
		line = strings.TrimSpace(listMarker.ReplaceAllString(strings.TrimSpace(line), ""))
		if line == "" {
			continue
		}
		tips = append(tips, line)
		if len(tips) == max {
			break
		}
	}
	return tips
}
