package localization

import "cybershield/backend/internal/models"

// Dialogue prompt keys.
const (
	KeyWelcome          = "welcome"
	KeyAskEmail         = "askEmail"
	KeyAskPhone         = "askPhone"
	KeyAskIncident      = "askIncident"
	KeyAskDate          = "askDate"
	KeyAskFinancialLoss = "askFinancialLoss"
	KeyFormComplete     = "formComplete"
	KeyEditName         = "editName"
	KeyEditEmail        = "editEmail"
	KeyEditPhone        = "editPhone"
	KeyEditIncident     = "editIncident"
	KeyEditWhich        = "editWhich"
	KeySubmitting       = "submitting"
	KeyAdditional       = "additional"
	KeySubmitError      = "submitError"
	KeySubmitted        = "submitted"
)

// TipsKey is the static safety-tips entry for an incident type.
func TipsKey(t models.IncidentType) string {
	if !t.Valid() {
		t = models.IncidentUnknown
	}
	return "tips_" + string(t)
}

// LanguageInfo describes one catalog entry.
type LanguageInfo struct {
	Language     models.Language `json:"language"`
	Code         string          `json:"code"`
	Name         string          `json:"name"`
	SpeechLocale string          `json:"speechLocale"`
}

var displayNames = map[models.Language]string{
	models.LanguageEnglish:   "English",
	models.LanguageHindi:     "हिन्दी (Hindi)",
	models.LanguageBengali:   "বাংলা (Bengali)",
	models.LanguageMarathi:   "मराठी (Marathi)",
	models.LanguageTelugu:    "తెలుగు (Telugu)",
	models.LanguageTamil:     "தமிழ் (Tamil)",
	models.LanguageGujarati:  "ગુજરાતી (Gujarati)",
	models.LanguageUrdu:      "اردو (Urdu)",
	models.LanguageKannada:   "ಕನ್ನಡ (Kannada)",
	models.LanguageOdia:      "ଓଡ଼ିଆ (Odia)",
	models.LanguagePunjabi:   "ਪੰਜਾਬੀ (Punjabi)",
	models.LanguageMalayalam: "മലയാളം (Malayalam)",
	models.LanguageAssamese:  "অসমীয়া (Assamese)",
	models.LanguageMaithili:  "मैथिली (Maithili)",
	models.LanguageSanskrit:  "संस्कृतम् (Sanskrit)",
	models.LanguageKashmiri:  "कॉशुर (Kashmiri)",
	models.LanguageNepali:    "नेपाली (Nepali)",
	models.LanguageKonkani:   "कोंकणी (Konkani)",
	models.LanguageSindhi:    "سنڌي (Sindhi)",
	models.LanguageBodo:      "बड़ो (Bodo)",
	models.LanguageDogri:     "डोगरी (Dogri)",
	models.LanguageManipuri:  "মৈতৈলোন্ (Manipuri)",
	models.LanguageSanthali:  "ᱥᱟᱱᱛᱟᱲᱤ (Santhali)",
}

// Speech engines ship Nepali under ne-NP; every other entry is an Indian locale.
var speechLocales = map[models.Language]string{
	models.LanguageEnglish: "en-US",
	models.LanguageNepali:  "ne-NP",
}

// SpeechLocale is the BCP 47 tag a speech engine should use for lang.
func SpeechLocale(lang models.Language) string {
	if tag, ok := speechLocales[lang]; ok {
		return tag
	}
	if !lang.Valid() {
		return speechLocales[Fallback]
	}
	return lang.Code() + "-IN"
}

// Info returns the catalog entry for lang.
func Info(lang models.Language) LanguageInfo {
	return LanguageInfo{
		Language:     lang,
		Code:         lang.Code(),
		Name:         displayNames[lang],
		SpeechLocale: SpeechLocale(lang),
	}
}

// Catalog lists every supported language in picker order.
func Catalog() []LanguageInfo {
	out := make([]LanguageInfo, 0, len(models.Languages))
	for _, lang := range models.Languages {
		out = append(out, Info(lang))
	}
	return out
}
