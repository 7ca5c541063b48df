package extract

import "strings"

// Buffer accumulates text fragments produced while walking a document.
// Fragments within a paragraph are joined by a space; paragraphs are joined
// by a blank line so the chunker can still see paragraph boundaries.
//
// A Buffer belongs to one extraction call and is not safe for concurrent use.
type Buffer struct {
	paragraphs []string
	current    []string
}

// Add appends a fragment to the current paragraph. Blank fragments are ignored.
func (b *Buffer) Add(fragment string) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return
	}
	b.current = append(b.current, fragment)
}

// Paragraph ends the current paragraph. It is a no-op when nothing was added since the last break.
func (b *Buffer) Paragraph() {
	if len(b.current) == 0 {
		return
	}
	b.paragraphs = append(b.paragraphs, strings.Join(b.current, " "))
	b.current = nil
}

// Len returns the number of paragraphs, counting an unfinished one.
func (b *Buffer) Len() int {
	n := len(b.paragraphs)
	if len(b.current) > 0 {
		n++
	}
	return n
}

// String returns the accumulated text.
func (b *Buffer) String() string {
	paragraphs := b.paragraphs[:len(b.paragraphs):len(b.paragraphs)]
	if len(b.current) > 0 {
		paragraphs = append(paragraphs, strings.Join(b.current, " "))
	}
	return strings.Join(paragraphs, "\n\n")
}
