package extract

import (
	"archive/zip"
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// wtTag matches <w:t>text</w:t> or <w:t xml:space="preserve">text</w:t> (and any other attributes).
var wtTag = regexp.MustCompile(`<w:t(?:\s[^>]*)?>([^<]*)</w:t>`)

// wBreak matches tabs and line breaks inside a run; they separate words.
var wBreak = regexp.MustCompile(`<w:(?:tab|br|cr)\b[^>]*/>`)

// Override elements may list PartName and ContentType in either order.
var (
	partNameRe  = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)
	partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)
)

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	for _, re := range []*regexp.Regexp{partNameRe, partNameRe2} {
		if m := re.FindSubmatch(data); len(m) > 1 {
			return strings.TrimPrefix(string(m[1]), "/")
		}
	}
	return ""
}

// extractDOCX adds one paragraph per <w:p>. Runs inside a paragraph are
// concatenated as written, since Word splits runs mid-word.
func extractDOCX(content []byte, buf *Buffer) error {
	zr, err := openZip(content, "DOCX")
	if err != nil {
		return err
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}
	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return fmt.Errorf("extract DOCX: %w", err)
	}
	if docXML == nil {
		return fmt.Errorf("extract DOCX: %s not found", docPath)
	}

	docXML = wBreak.ReplaceAll(docXML, []byte("<w:t> </w:t>"))
	for _, para := range bytes.Split(docXML, []byte("</w:p>")) {
		var b strings.Builder
		for _, m := range wtTag.FindAllSubmatch(para, -1) {
			b.Write(m[1])
		}
		buf.Add(html.UnescapeString(b.String()))
		buf.Paragraph()
	}
	return nil
}
