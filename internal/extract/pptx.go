package extract

import (
	"fmt"
	"html"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// pptxSlidePathPrefix is the path prefix for slide XML files inside a .pptx zip.
const pptxSlidePathPrefix = "ppt/slides/slide"

// atTag matches <a:t>text</a:t> or <a:t xml:space="preserve">text</a:t> (and any other attributes).
var atTag = regexp.MustCompile(`<a:t(?:\s[^>]*)?>([^<]*)</a:t>`)

// extractPPTX adds one paragraph per text paragraph (<a:p>) of every slide, in slide order.
func extractPPTX(content []byte, buf *Buffer) error {
	zr, err := openZip(content, "PPTX")
	if err != nil {
		return err
	}

	type slide struct {
		n    int
		name string
	}
	var slides []slide
	for _, f := range zr.File {
		if !strings.HasPrefix(f.Name, pptxSlidePathPrefix) || !strings.HasSuffix(f.Name, ".xml") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(f.Name, pptxSlidePathPrefix), ".xml"))
		if err != nil {
			continue
		}
		slides = append(slides, slide{n: n, name: f.Name})
	}
	// Zip order is arbitrary and slide10 sorts before slide2 as a string.
	sort.Slice(slides, func(i, j int) bool { return slides[i].n < slides[j].n })

	for _, s := range slides {
		data, err := readZipFile(zr, s.name)
		if err != nil {
			return fmt.Errorf("extract PPTX: %w", err)
		}
		for _, para := range strings.Split(string(data), "</a:p>") {
			var b strings.Builder
			for _, m := range atTag.FindAllStringSubmatch(para, -1) {
				b.WriteString(m[1])
			}
			buf.Add(html.UnescapeString(b.String()))
			buf.Paragraph()
		}
	}
	return nil
}
