package extract

import (
	"strings"
	"unicode"
)

// Quality captures metrics about extraction fidelity. Low ratios usually mean
// a font with a broken ToUnicode map or a scanned document; both are logged
// but never change the verdict path.
type Quality struct {
	PageCount      int
	CharsPerPage   float64
	PrintableRatio float64
	WordlikeRatio  float64
}

// Suspicious reports whether the extracted text is likely garbage.
func (q Quality) Suspicious() bool {
	return q.PrintableRatio < 0.85 || (q.WordlikeRatio < 0.30 && q.CharsPerPage > 0)
}

func measureQuality(doc Document) Quality {
	q := Quality{
		PageCount:      doc.PageCount,
		PrintableRatio: printableRatio(doc.Text),
		WordlikeRatio:  wordlikeRatio(doc.Text),
	}
	if doc.PageCount > 0 {
		q.CharsPerPage = float64(len([]rune(doc.Text))) / float64(doc.PageCount)
	}
	return q
}

// printableRatio returns the share of printable characters in text.
// Private Use Area runes, U+FFFD, and non-whitespace control characters
// count as garbage.
func printableRatio(text string) float64 {
	if len(text) == 0 {
		return 1.0
	}
	total := 0
	printable := 0
	for _, r := range text {
		total++
		if isGarbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	if total == 0 {
		return 1.0
	}
	return float64(printable) / float64(total)
}

func isGarbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	if r < 0x0020 && r != '\n' && r != '\r' && r != '\t' {
		return true
	}
	return false
}

// wordlikeRatio returns the ratio of tokens with a plausible word length
// (2-15 runes) to total tokens.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		n := len([]rune(f))
		if n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
