package extract

import (
	"fmt"
	"html"
	"regexp"
)

// odfContentPath is the path to the main content inside OpenDocument packages (.odt, .odp, .ods).
const odfContentPath = "content.xml"

var (
	// odfBlock matches text paragraphs and headings, including nested spans.
	odfBlock = regexp.MustCompile(`(?s)<text:(p|h)(?:\s[^>]*)?>(.*?)</text:(?:p|h)>`)
	// odfSpace matches the elements OpenDocument uses for spaces, tabs and line breaks.
	odfSpace = regexp.MustCompile(`<text:(?:s|tab|line-break)\b[^>]*/>`)
	anyTag   = regexp.MustCompile(`<[^>]+>`)
)

// extractOpenDocument adds one paragraph per <text:p> or <text:h> element of content.xml.
// Spreadsheet cells hold their text in <text:p> too, so .ods yields one paragraph per cell.
func extractOpenDocument(content []byte, buf *Buffer) error {
	zr, err := openZip(content, "OpenDocument")
	if err != nil {
		return err
	}
	data, err := readZipFile(zr, odfContentPath)
	if err != nil {
		return fmt.Errorf("extract OpenDocument: %w", err)
	}
	if data == nil {
		return fmt.Errorf("extract OpenDocument: %s not found", odfContentPath)
	}

	for _, m := range odfBlock.FindAllSubmatch(data, -1) {
		inner := odfSpace.ReplaceAll(m[2], []byte(" "))
		inner = anyTag.ReplaceAll(inner, nil)
		buf.Add(html.UnescapeString(string(inner)))
		buf.Paragraph()
	}
	return nil
}
