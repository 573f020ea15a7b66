// Package i18n provides localized reminder message templates.
package i18n

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed messages.yaml
var messagesYAML []byte

// DefaultLanguage is used when a language code is unknown.
const DefaultLanguage = "en"

// Message kinds.
const (
	KindMedicine = "medicine"
	KindWater    = "water"
	KindExercise = "exercise"
	KindMeal     = "meal"
	KindSleep    = "sleep"
	KindWake     = "wake"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// Bundle holds the immutable message templates for all languages.
type Bundle struct {
	languages map[string]map[string]string
}

// Load decodes the embedded templates.
func Load() (*Bundle, error) {
	langs := make(map[string]map[string]string)
	if err := yaml.Unmarshal(messagesYAML, &langs); err != nil {
		return nil, fmt.Errorf("failed to decode message templates: %w", err)
	}
	if _, ok := langs[DefaultLanguage]; !ok {
		return nil, fmt.Errorf("message templates are missing the %q fallback language", DefaultLanguage)
	}
	return &Bundle{languages: langs}, nil
}

// Languages returns the known language codes.
func (b *Bundle) Languages() []string {
	codes := make([]string, 0, len(b.languages))
	for code := range b.languages {
		codes = append(codes, code)
	}
	return codes
}

// Message returns the localized, substituted template for a message kind.
// Unknown languages fall back to the default language; unknown kinds fall
// back to the default language's template for that kind, else empty. A
// template referencing a placeholder that vars does not supply is returned
// verbatim instead of failing.
func (b *Bundle) Message(lang, kind string, vars map[string]string) string {
	templates, ok := b.languages[lang]
	if !ok {
		templates = b.languages[DefaultLanguage]
	}

	template, ok := templates[kind]
	if !ok {
		template, ok = b.languages[DefaultLanguage][kind]
		if !ok {
			return ""
		}
	}

	for _, match := range placeholderRe.FindAllStringSubmatch(template, -1) {
		if _, ok := vars[match[1]]; !ok {
			return template
		}
	}

	out := template
	for key, val := range vars {
		out = strings.ReplaceAll(out, "{"+key+"}", val)
	}
	return out
}
