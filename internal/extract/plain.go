package extract

import (
	"strings"
	"unicode/utf8"
)

// extractPlain adds each line of content as a fragment and ends a paragraph
// at every blank line. Invalid UTF-8 sequences become the replacement character.
func extractPlain(content []byte, buf *Buffer) {
	text := string(content)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			buf.Paragraph()
			continue
		}
		buf.Add(line)
	}
}
