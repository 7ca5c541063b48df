package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// extractPDF adds every text line of every page as a fragment. PDFs carry no
// reliable paragraph markers, so the whole document is one paragraph and
// sentence boundaries do the splitting.
func extractPDF(content []byte, buf *Buffer) error {
	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return fmt.Errorf("open PDF: %w", err)
	}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return fmt.Errorf("extract page %d: %w", i, err)
		}
		for _, line := range strings.Split(text, "\n") {
			buf.Add(line)
		}
	}
	return nil
}
