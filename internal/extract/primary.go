package extract

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// pdfTextEngine reads the PDF text layer directly. It is the primary engine:
// fast, pure Go, and faithful to reading order for text-native documents.
type pdfTextEngine struct{}

func (pdfTextEngine) Name() string { return "pdf-text" }

// The pdf package panics on some malformed structures instead of returning
// an error, so both the reader setup and each page read are guarded.
func (pdfTextEngine) ExtractPages(data []byte) (pages []string, warnings []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages, warnings = nil, nil
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf: %w", err)
	}

	n := reader.NumPage()
	if n == 0 {
		return nil, nil, fmt.Errorf("pdf has no pages")
	}

	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		text, pageErr := readPage(reader, i)
		if pageErr != nil {
			// A single broken page should not sink the document.
			warnings = append(warnings, fmt.Sprintf("pdf-text: page %d unreadable: %v", i, pageErr))
			continue
		}
		pages[i-1] = text
	}
	return pages, warnings, nil
}

func readPage(reader *pdf.Reader, i int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("page panic: %v", r)
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return "", nil
	}
	return page.GetPlainText(nil)
}
