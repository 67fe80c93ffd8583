// Package langdetect identifies the natural language of a piece of text.
package langdetect

import (
	"strings"
	"sync"

	"github.com/pemistahl/lingua-go"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"go.aimuz.me/interviewcoder/internal/types"
)

// DefaultLanguages are the languages interviews are commonly held in.
var DefaultLanguages = []lingua.Language{
	lingua.English,
	lingua.Chinese,
	lingua.Spanish,
	lingua.French,
	lingua.German,
	lingua.Japanese,
	lingua.Korean,
	lingua.Portuguese,
	lingua.Russian,
	lingua.Hindi,
}

// Detector builds its language models on first use.
type Detector struct {
	langs    []lingua.Language
	once     sync.Once
	detector lingua.LanguageDetector
}

// New creates a Detector limited to langs, or DefaultLanguages when empty.
func New(langs ...lingua.Language) *Detector {
	if len(langs) == 0 {
		langs = DefaultLanguages
	}
	return &Detector{langs: langs}
}

// Detect returns the ISO 639-1 code and English name of the text's language.
func (d *Detector) Detect(text string) (types.DetectResult, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return types.DetectResult{}, false
	}

	d.once.Do(func() {
		d.detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(d.langs...).
			Build()
	})

	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return types.DetectResult{}, false
	}

	code := strings.ToLower(lang.IsoCode639_1().String())
	return types.DetectResult{Code: code, Name: displayName(code, lang.String())}, true
}

// Code returns only the language code, or "" when unknown.
func (d *Detector) Code(text string) string {
	r, _ := d.Detect(text)
	return r.Code
}

func displayName(code, fallback string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return fallback
	}
	if name := display.English.Languages().Name(tag); name != "" {
		return name
	}
	return fallback
}
