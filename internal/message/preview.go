package message

import (
	"strings"
	"unicode/utf8"
)

// DefaultPreviewLength is the preview size used when none is configured.
const DefaultPreviewLength = 200

var lineFlattener = strings.NewReplacer("\r", "", "\n", " ")

// Preview returns a single-line excerpt of at most maxLen characters from the
// human-readable body of p. Multipart messages use the first text/plain
// part that is not an attachment; other messages use their only payload.
// An empty string means no usable body was found.
func Preview(p *Parsed, maxLen int) string {
	if maxLen <= 0 {
		maxLen = DefaultPreviewLength
	}

	payload, ok := selectBody(p)
	if !ok {
		return ""
	}

	return renderPreview(payload, maxLen)
}

func selectBody(p *Parsed) ([]byte, bool) {
	if p == nil || len(p.Parts) == 0 {
		return nil, false
	}

	if !p.Multipart {
		payload := p.Parts[0].Payload
		return payload, len(payload) > 0
	}

	for _, part := range p.Parts {
		if part.ContentType != "text/plain" || part.IsAttachment() {
			continue
		}
		if len(part.Payload) == 0 {
			continue
		}
		return part.Payload, true
	}

	return nil, false
}

func renderPreview(payload []byte, maxLen int) string {
	text := strings.ToValidUTF8(string(payload), "")
	text = lineFlattener.Replace(strings.TrimSpace(text))

	if utf8.RuneCountInString(text) <= maxLen {
		return text
	}

	runes := []rune(text)
	return string(runes[:maxLen])
}
