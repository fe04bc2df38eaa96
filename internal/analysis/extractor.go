package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"cybershield/backend/internal/config"
	"cybershield/backend/internal/llm"
	"cybershield/backend/internal/models"
)

const extractorPrompt = `You are an information extraction assistant for cybersecurity complaints. The user writes in %s. Extract the following information from the user's text if present, and write every value in English:
- fullName: The person's full name
- email: The email address
- phone: The phone number
- address: The physical address
- incidentDate: When the incident happened
- incidentDescription: Description of what happened
- financialLoss: Amount of financial loss
- partiesInvolved: Other parties involved

Return the extracted information as a JSON object with these fields. If a field is not found in the text, exclude it from the response.

User text: %s

Response format example:
{
  "fullName": "John Doe",
  "email": "john@example.com",
  "incidentDescription": "My account was hacked..."
}`

var jsonObject = regexp.MustCompile(`\{[\s\S]*\}`)

// Extractor pulls a partial complaint out of one utterance.
type Extractor struct {
	LLM        llm.Provider
	Classifier *Classifier
}

func NewExtractor(p llm.Provider, c *Classifier) *Extractor {
	return &Extractor{LLM: p, Classifier: c}
}

// Extract asks the model for the fields present in text. When a description
// comes back without a category the description is classified as well.
func (e *Extractor) Extract(ctx context.Context, text string, lang models.Language) (models.ExtractedInfo, error) {
	if !lang.Valid() {
		lang = models.DefaultLanguage
	}

	answer, err := e.LLM.Generate(ctx, llm.Request{
		Prompt:      fmt.Sprintf(extractorPrompt, lang, text),
		Temperature: config.ExtractorTemperature,
		MaxTokens:   config.ExtractorMaxTokens,
	})
	if err != nil {
		return models.ExtractedInfo{}, fmt.Errorf("extract: %w", err)
	}

	info, err := ParseExtraction(answer)
	if err != nil {
		return models.ExtractedInfo{}, err
	}

	if info.IncidentDescription != "" && !info.IncidentType.Resolved() && e.Classifier != nil {
		if t := e.Classifier.Classify(ctx, info.IncidentDescription); t.Resolved() {
			info.IncidentType = t
		}
	}
	return info, nil
}

// ParseExtraction decodes the first JSON object in a model answer. An answer
// without an object is an empty extraction; scalar values are stringified.
func ParseExtraction(answer string) (models.ExtractedInfo, error) {
	block := jsonObject.FindString(answer)
	if block == "" {
		return models.ExtractedInfo{}, nil
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(block), &raw); err != nil {
		return models.ExtractedInfo{}, fmt.Errorf("extract: decode model answer: %w", err)
	}

	get := func(key string) string {
		switch v := raw[key].(type) {
		case string:
			return strings.TrimSpace(v)
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
		return ""
	}

	info := models.ExtractedInfo{
		FullName:            get("fullName"),
		Email:               get("email"),
		Phone:               get("phone"),
		Address:             get("address"),
		IncidentDate:        get("incidentDate"),
		IncidentDescription: get("incidentDescription"),
		FinancialLoss:       get("financialLoss"),
		PartiesInvolved:     get("partiesInvolved"),
	}
	if t, ok := MatchCategory(get("incidentType")); ok {
		info.IncidentType = t
	}
	return info, nil
}
