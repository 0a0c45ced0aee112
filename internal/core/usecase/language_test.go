package usecase

import (
	"testing"

	"github.com/kirillkom/expert-assistant/internal/core/domain"
)

func TestLanguageDetector(t *testing.T) {
	d := NewLanguageDetector(testCatalog())
	cases := []struct {
		text string
		want domain.Language
	}{
		{"O que é um compressor de áudio?", "pt"},
		{"What is the attack time of a compressor?", "en"},
		{"12345", "pt"},
		{"", "pt"},
	}
	for _, tc := range cases {
		if got := d.Detect(tc.text); got != tc.want {
			t.Fatalf("Detect(%q) = %s, want %s", tc.text, got, tc.want)
		}
	}
}

func TestPricingClassifierMatchesWholeWords(t *testing.T) {
	c := NewPricingClassifier(testCatalog())
	cases := []struct {
		text string
		want bool
	}{
		{"Qual o PREÇO do plugin?", true},
		{"Quanto custa a versão pro?", true},
		{"What's the license model?", true},
		{"Is this plugin licensed for studios?", false},
		{"Como ajustar o compressor?", false},
	}
	for _, tc := range cases {
		if got := c.IsPricingQuestion(tc.text); got != tc.want {
			t.Fatalf("IsPricingQuestion(%q) = %v, want %v", tc.text, got, tc.want)
		}
	}
}

func TestSplitWordsFoldsAccents(t *testing.T) {
	got := splitWords("Compressão-Dinâmica, ÁUDIO 24bit!")
	want := []string{"compressao", "dinamica", "audio", "24bit"}
	if len(got) != len(want) {
		t.Fatalf("splitWords() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("splitWords()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
