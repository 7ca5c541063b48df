package extract

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// extractExcel adds one paragraph per non-empty row, cells separated by spaces.
func extractExcel(content []byte, buf *Buffer) error {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return fmt.Errorf("get rows for sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			for _, cell := range row {
				buf.Add(cell)
			}
			buf.Paragraph()
		}
	}
	return nil
}
