package notes

import (
	"bytes"
	"html"
)

// RenderMarkdown converts markdown content to sanitized HTML.
func (s *Service) RenderMarkdown(content string) string {
	var buf bytes.Buffer
	if err := s.md.Convert([]byte(content), &buf); err != nil {
		return "<pre>" + html.EscapeString(content) + "</pre>"
	}
	return string(s.policy.SanitizeBytes(buf.Bytes()))
}
