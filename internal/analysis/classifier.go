// Package analysis turns free text into structured complaint data: incident
// classification, field extraction and safety guidance, all backed by an LLM
// with deterministic fallbacks.
package analysis

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cybershield/backend/internal/config"
	"cybershield/backend/internal/llm"
	"cybershield/backend/internal/models"
)

const classifierPrompt = `You are a cybersecurity incident classifier. Based on the incident description, classify it into one of these categories: 'phishing_attack', 'ransomware', 'data_breach', 'identity_theft', or 'unknown'. Respond with only the category name.

Description: %s`

// Classifier maps an incident narrative onto the closed IncidentType set.
type Classifier struct {
	LLM llm.Provider
}

func NewClassifier(p llm.Provider) *Classifier {
	return &Classifier{LLM: p}
}

// Classify never fails: model errors and unmatched answers fall through the
// keyword chain, first on the model answer, then on the description itself.
func (c *Classifier) Classify(ctx context.Context, description string) models.IncidentType {
	description = strings.TrimSpace(description)
	if description == "" {
		return models.IncidentUnknown
	}

	answer, err := c.LLM.Generate(ctx, llm.Request{
		Prompt:      fmt.Sprintf(classifierPrompt, description),
		Temperature: config.ClassifierTemperature,
		MaxTokens:   config.ClassifierMaxTokens,
	})
	if err != nil {
		log.Printf("WARNING: incident classification failed, using keywords: %v", err)
		return KeywordCategory(description)
	}

	if t, ok := MatchCategory(answer); ok {
		return t
	}
	if t := KeywordCategory(answer); t.Resolved() {
		return t
	}
	return KeywordCategory(description)
}

// MatchCategory accepts an answer that is exactly a category name once
// trimmed and lower-cased.
func MatchCategory(answer string) (models.IncidentType, bool) {
	t := models.IncidentType(strings.Trim(strings.ToLower(strings.TrimSpace(answer)), `'".`))
	if t.Valid() {
		return t, true
	}
	return models.IncidentUnknown, false
}

// KeywordCategory is the substring fallback chain. Order matters: the first
// matching rule wins.
func KeywordCategory(text string) models.IncidentType {
	s := strings.ToLower(text)
	switch {
	case strings.Contains(s, "phishing"):
		return models.IncidentPhishingAttack
	case strings.Contains(s, "ransom"):
		return models.IncidentRansomware
	case strings.Contains(s, "data") && strings.Contains(s, "breach"):
		return models.IncidentDataBreach
	case strings.Contains(s, "identity") && strings.Contains(s, "theft"):
		return models.IncidentIdentityTheft
	}
	return models.IncidentUnknown
}
