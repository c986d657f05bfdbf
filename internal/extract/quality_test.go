package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintableRatio(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"clean prose", "Latar belakang usaha ini adalah kuliner.", 1.0},
		{"all replacement runes", strings.Repeat("�", 10), 0.0},
		{"private use area", "ab", 0.5},
		{"whitespace counts as printable", "a\tb\nc", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, printableRatio(tt.text), 0.01)
		})
	}
}

func TestWordlikeRatio(t *testing.T) {
	tests := []struct {
		name string
		text string
		want float64
	}{
		{"normal words", "usaha kuliner rumahan untuk mahasiswa", 1.0},
		{"single letters", "a b c d", 0.0},
		{"mixed", "proposal x bisnis y", 0.5},
		{"one oversized token", strings.Repeat("x", 40), 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, wordlikeRatio(tt.text), 0.01)
		})
	}
}

func TestQuality_Suspicious(t *testing.T) {
	ok := Quality{PageCount: 3, CharsPerPage: 900, PrintableRatio: 0.99, WordlikeRatio: 0.92}
	assert.False(t, ok.Suspicious())

	lowPrintable := Quality{PageCount: 3, CharsPerPage: 900, PrintableRatio: 0.50, WordlikeRatio: 0.92}
	assert.True(t, lowPrintable.Suspicious())

	lowWordlike := Quality{PageCount: 3, CharsPerPage: 900, PrintableRatio: 0.99, WordlikeRatio: 0.10}
	assert.True(t, lowWordlike.Suspicious())
}

func TestMeasureQuality_CharsPerPage(t *testing.T) {
	doc := Document{
		PageTexts: []string{"abcd", "efgh"},
		Text:      "abcd\nefgh",
		PageCount: 2,
	}
	q := measureQuality(doc)
	assert.InDelta(t, 4.5, q.CharsPerPage, 0.01)
	assert.Equal(t, 2, q.PageCount)
}
