package message

import (
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/emersion/go-message/charset"
)

// decodeStep is one tier of header decoding. It reports false when the
// next tier has to take over.
type decodeStep func(raw string) (string, bool)

var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// headerTiers are tried in order until one succeeds.
var headerTiers = []decodeStep{
	decodeEncodedWords,
	decodeLossyUTF8,
}

var unfolder = strings.NewReplacer("\r\n", "", "\n", "", "\r", "")

// DecodeHeader converts a possibly RFC 2047 encoded header value into
// display text. Encoded words are tried first, then the value as lossy
// UTF-8 with invalid sequences dropped. The result is always valid UTF-8.
func DecodeHeader(raw string) string {
	if raw == "" {
		return ""
	}

	raw = unfolder.Replace(raw)

	for _, step := range headerTiers {
		if text, ok := step(raw); ok {
			return text
		}
	}

	// unreachable while the lossy tier accepts every input
	return raw
}

func decodeEncodedWords(raw string) (string, bool) {
	text, err := wordDecoder.DecodeHeader(raw)
	if err != nil || !utf8.ValidString(text) {
		return "", false
	}
	return text, true
}

func decodeLossyUTF8(raw string) (string, bool) {
	return strings.ToValidUTF8(raw, ""), true
}
