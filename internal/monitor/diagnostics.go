package monitor

import (
	"errors"
	"strings"

	"github.com/Adda-Baaj/solcast-pv/pkg/solcast"

	"github.com/PuerkitoBio/goquery"
)

const maxSnippetBytes = 256

// errorFields flattens an error into log fields, surfacing Solcast error details.
func errorFields(err error) map[string]any {
	fields := map[string]any{"error": err.Error()}

	var apiErr *solcast.Error
	if !errors.As(err, &apiErr) {
		return fields
	}
	fields["kind"] = apiErr.Kind.String()
	if apiErr.StatusCode != 0 {
		fields["status_code"] = apiErr.StatusCode
	}
	if apiErr.Content != nil {
		fields["content_type"] = apiErr.Content.ContentType
		fields["content_summary"] = summarizeContent(apiErr.Content)
	}
	return fields
}

// summarizeContent prefers the page title of HTML payloads, such as proxy or maintenance pages.
func summarizeContent(c *solcast.ContentDetails) string {
	if strings.Contains(strings.ToLower(c.ContentType), "html") {
		if title := pageTitle(c.Text); title != "" {
			return title
		}
	}
	return snippet(c.Text)
}

func pageTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return ""
	}
	if og, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok && strings.TrimSpace(og) != "" {
		return strings.TrimSpace(og)
	}
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	return strings.TrimSpace(doc.Find("h1").First().Text())
}

func snippet(text string) string {
	text = strings.TrimSpace(text)
	if len(text) > maxSnippetBytes {
		return text[:maxSnippetBytes]
	}
	return text
}
