package page

import (
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed before the main content is picked.
const noiseSelectors = "script, style, noscript, nav, header, footer, aside, form, iframe, table"

// commentSelectors cover reader comment threads and their widgets.
const commentSelectors = `#comments, .comments, .comment, section.comments, #respond, #disqus_thread, [id^="comment-"], [class*="comment-"]`

// Extractor keeps the article body of a page as markdown-flavoured text.
type Extractor struct {
	converter *md.Converter
}

func NewExtractor() *Extractor {
	return &Extractor{converter: md.NewConverter("", true, nil)}
}

func (e *Extractor) ExtractMain(page string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page))
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	doc.Find(noiseSelectors).Remove()
	doc.Find(commentSelectors).Remove()

	content := doc.Find("article").First()
	if content.Length() == 0 {
		content = doc.Find("main").First()
	}
	if content.Length() == 0 {
		content = doc.Find("body").First()
	}
	if content.Length() == 0 {
		return "", nil
	}

	fragment, err := goquery.OuterHtml(content)
	if err != nil {
		return "", fmt.Errorf("render main content: %w", err)
	}
	markdown, err := e.converter.ConvertString(fragment)
	if err != nil {
		return "", fmt.Errorf("convert page to markdown: %w", err)
	}
	return compactLines(markdown), nil
}

func compactLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n")
}
