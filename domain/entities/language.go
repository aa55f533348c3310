package entities

import "fmt"

// Language is a two-letter code from the closed set of supported languages.
// English is always a valid pivot for translation.
type Language string

const (
	LanguageEnglish   Language = "en"
	LanguageHindi     Language = "hi"
	LanguageKannada   Language = "kn"
	LanguageTamil     Language = "ta"
	LanguageTelugu    Language = "te"
	LanguageMalayalam Language = "ml"
	LanguageBengali   Language = "bn"
	LanguageMarathi   Language = "mr"
	LanguageGujarati  Language = "gu"
	LanguagePunjabi   Language = "pa"
	LanguageUrdu      Language = "ur"
)

type languageInfo struct {
	Name  string // display name
	BCP47 string // recognition code for speech backends
}

var supportedLanguages = map[Language]languageInfo{
	LanguageEnglish:   {Name: "English", BCP47: "en-IN"},
	LanguageHindi:     {Name: "Hindi", BCP47: "hi-IN"},
	LanguageKannada:   {Name: "Kannada", BCP47: "kn-IN"},
	LanguageTamil:     {Name: "Tamil", BCP47: "ta-IN"},
	LanguageTelugu:    {Name: "Telugu", BCP47: "te-IN"},
	LanguageMalayalam: {Name: "Malayalam", BCP47: "ml-IN"},
	LanguageBengali:   {Name: "Bengali", BCP47: "bn-IN"},
	LanguageMarathi:   {Name: "Marathi", BCP47: "mr-IN"},
	LanguageGujarati:  {Name: "Gujarati", BCP47: "gu-IN"},
	LanguagePunjabi:   {Name: "Punjabi", BCP47: "pa-Guru-IN"},
	LanguageUrdu:      {Name: "Urdu", BCP47: "ur-IN"},
}

// SupportedLanguages returns every supported language code.
func SupportedLanguages() []Language {
	codes := make([]Language, 0, len(supportedLanguages))
	for code := range supportedLanguages {
		codes = append(codes, code)
	}
	return codes
}

// IsSupported reports whether the code belongs to the supported set.
func (l Language) IsSupported() bool {
	_, ok := supportedLanguages[l]
	return ok
}

// Name returns the display name for the language, or the raw code when the
// language is not in the supported set.
func (l Language) Name() string {
	if info, ok := supportedLanguages[l]; ok {
		return info.Name
	}
	return string(l)
}

// BCP47 returns the recognition code used by speech backends.
func (l Language) BCP47() string {
	if info, ok := supportedLanguages[l]; ok {
		return info.BCP47
	}
	return string(l)
}

// Validate returns an error for codes outside the supported set.
func (l Language) Validate() error {
	if l == "" {
		return fmt.Errorf("language code is required")
	}
	if !l.IsSupported() {
		return fmt.Errorf("unsupported language code: %s", l)
	}
	return nil
}

// ParseLanguage converts a raw code into a Language, rejecting anything
// outside the supported set.
func ParseLanguage(code string) (Language, error) {
	lang := Language(code)
	if err := lang.Validate(); err != nil {
		return "", err
	}
	return lang, nil
}
