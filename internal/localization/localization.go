// Package localization provides the language catalog: greeting and dialogue
// prompt text per language, display names and speech-engine locale tags.
// Translations are JSON files named after the language ("english.json").
package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"sync"

	"cybershield/backend/internal/models"
)

//go:embed locales/*.json
var embedded embed.FS

// Fallback is the language used when a key is missing from the requested one.
const Fallback = models.LanguageEnglish

// Localizer manages the translations for the application.
// It holds a map of languages, each with its own map of translation keys and values.
type Localizer struct {
	translations map[models.Language]map[string]string
	mu           sync.RWMutex
}

// Default returns a Localizer over the embedded locale files.
func Default() (*Localizer, error) {
	return NewLocalizer(embedded, "locales")
}

// NewLocalizer loads every "<language>.json" file in dir of fsys.
// Files whose name is not a known language are rejected.
func NewLocalizer(fsys fs.FS, dir string) (*Localizer, error) {
	l := &Localizer{
		translations: make(map[models.Language]map[string]string),
	}

	files, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read localization directory: %w", err)
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}

		lang := models.Language(strings.TrimSuffix(file.Name(), ".json"))
		if !lang.Valid() {
			return nil, fmt.Errorf("unknown language file %s", file.Name())
		}

		data, err := fs.ReadFile(fsys, path.Join(dir, file.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read localization file %s: %w", file.Name(), err)
		}

		var translations map[string]string
		if err := json.Unmarshal(data, &translations); err != nil {
			return nil, fmt.Errorf("failed to parse localization file %s: %w", file.Name(), err)
		}

		l.translations[lang] = translations
	}

	if _, ok := l.translations[Fallback]; !ok {
		return nil, fmt.Errorf("localization directory has no %s.json", Fallback)
	}

	return l, nil
}

// GetString returns the localized string for a given key and language.
// Missing keys fall back to English, then to the key itself.
func (l *Localizer) GetString(lang models.Language, key string) string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if langTranslations, ok := l.translations[lang]; ok {
		if value, ok := langTranslations[key]; ok {
			return value
		}
	}

	if lang != Fallback {
		if value, ok := l.translations[Fallback][key]; ok {
			return value
		}
	}

	return key
}

// Format is GetString followed by fmt.Sprintf.
func (l *Localizer) Format(lang models.Language, key string, args ...any) string {
	return fmt.Sprintf(l.GetString(lang, key), args...)
}

// Lines splits a multi-line entry into trimmed non-empty lines.
func (l *Localizer) Lines(lang models.Language, key string) []string {
	var out []string
	for _, line := range strings.Split(l.GetString(lang, key), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}

// Has reports whether lang defines key itself, without fallback.
func (l *Localizer) Has(lang models.Language, key string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.translations[lang][key]
	return ok
}
