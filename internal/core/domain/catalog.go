package domain

import (
	"fmt"
	"strings"
)

type Language string

// LanguageProfile holds every fixed user-visible text for one language.
type LanguageProfile struct {
	Name                 string   `yaml:"name"`
	Hints                []string `yaml:"hints"`
	PricingKeywords      []string `yaml:"pricing_keywords"`
	PricingResponse      string   `yaml:"pricing_response"`
	Fallback             string   `yaml:"fallback"`
	NothingFound         string   `yaml:"nothing_found"`
	NotConfigured        string   `yaml:"not_configured"`
	KnowledgeUnavailable string   `yaml:"knowledge_unavailable"`
	TransportError       string   `yaml:"transport_error"`
}

type Catalog struct {
	DefaultLanguage Language                     `yaml:"default_language"`
	Profiles        map[Language]LanguageProfile `yaml:"languages"`
}

// Profile returns the profile for lang, or the default language profile.
func (c Catalog) Profile(lang Language) LanguageProfile {
	if p, ok := c.Profiles[lang]; ok {
		return p
	}
	return c.Profiles[c.DefaultLanguage]
}

// IsFallbackAnswer reports whether text contains the fallback sentence of
// any language, ignoring case.
func (c Catalog) IsFallbackAnswer(text string) bool {
	lowered := strings.ToLower(text)
	for _, p := range c.Profiles {
		fb := strings.ToLower(strings.TrimSpace(p.Fallback))
		if fb != "" && strings.Contains(lowered, fb) {
			return true
		}
	}
	return false
}

func (c Catalog) Validate() error {
	if len(c.Profiles) == 0 {
		return WrapError(ErrInvalidInput, "validate catalog", fmt.Errorf("no languages defined"))
	}
	if _, ok := c.Profiles[c.DefaultLanguage]; !ok {
		return WrapError(ErrInvalidInput, "validate catalog", fmt.Errorf("default language %q has no profile", c.DefaultLanguage))
	}
	for lang, p := range c.Profiles {
		required := map[string]string{
			"fallback":              p.Fallback,
			"nothing_found":         p.NothingFound,
			"not_configured":        p.NotConfigured,
			"knowledge_unavailable": p.KnowledgeUnavailable,
			"transport_error":       p.TransportError,
			"pricing_response":      p.PricingResponse,
		}
		for field, value := range required {
			if strings.TrimSpace(value) == "" {
				return WrapError(ErrInvalidInput, "validate catalog", fmt.Errorf("language %q: %s is empty", lang, field))
			}
		}
	}
	return nil
}
