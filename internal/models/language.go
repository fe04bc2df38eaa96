package models

import "strings"

// Language is the locale a complaint is filed in.
type Language string

const (
	LanguageEnglish   Language = "english"
	LanguageHindi     Language = "hindi"
	LanguageBengali   Language = "bengali"
	LanguageMarathi   Language = "marathi"
	LanguageTelugu    Language = "telugu"
	LanguageTamil     Language = "tamil"
	LanguageGujarati  Language = "gujarati"
	LanguageUrdu      Language = "urdu"
	LanguageKannada   Language = "kannada"
	LanguageOdia      Language = "odia"
	LanguagePunjabi   Language = "punjabi"
	LanguageMalayalam Language = "malayalam"
	LanguageAssamese  Language = "assamese"
	LanguageMaithili  Language = "maithili"
	LanguageSanskrit  Language = "sanskrit"
	LanguageKashmiri  Language = "kashmiri"
	LanguageNepali    Language = "nepali"
	LanguageKonkani   Language = "konkani"
	LanguageSindhi    Language = "sindhi"
	LanguageBodo      Language = "bodo"
	LanguageDogri     Language = "dogri"
	LanguageManipuri  Language = "manipuri"
	LanguageSanthali  Language = "santhali"
)

// DefaultLanguage is used when a draft arrives without one.
const DefaultLanguage = LanguageEnglish

// Languages keeps the order the language picker shows.
var Languages = []Language{
	LanguageEnglish, LanguageHindi, LanguageBengali, LanguageMarathi, LanguageTelugu,
	LanguageTamil, LanguageGujarati, LanguageUrdu, LanguageKannada, LanguageOdia,
	LanguagePunjabi, LanguageMalayalam, LanguageAssamese, LanguageMaithili, LanguageSanskrit,
	LanguageKashmiri, LanguageNepali, LanguageKonkani, LanguageSindhi, LanguageBodo,
	LanguageDogri, LanguageManipuri, LanguageSanthali,
}

var languageCodes = map[Language]string{
	LanguageEnglish: "en", LanguageHindi: "hi", LanguageBengali: "bn", LanguageMarathi: "mr",
	LanguageTelugu: "te", LanguageTamil: "ta", LanguageGujarati: "gu", LanguageUrdu: "ur",
	LanguageKannada: "kn", LanguageOdia: "or", LanguagePunjabi: "pa", LanguageMalayalam: "ml",
	LanguageAssamese: "as", LanguageMaithili: "mai", LanguageSanskrit: "sa", LanguageKashmiri: "ks",
	LanguageNepali: "ne", LanguageKonkani: "kok", LanguageSindhi: "sd", LanguageBodo: "brx",
	LanguageDogri: "doi", LanguageManipuri: "mni", LanguageSanthali: "sat",
}

func (l Language) Valid() bool {
	_, ok := languageCodes[l]
	return ok
}

// Code is the short ISO-style code ("en", "hi", "mai").
func (l Language) Code() string {
	return languageCodes[l]
}

// ParseLanguage accepts a language name or its short code, case-insensitively.
func ParseLanguage(s string) (Language, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if l := Language(s); l.Valid() {
		return l, true
	}
	for l, code := range languageCodes {
		if code == s {
			return l, true
		}
	}
	return "", false
}
