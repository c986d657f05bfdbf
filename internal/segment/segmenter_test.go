package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/incubatech/proposal-screener/constants"
)

func TestSegmenter_Segment_SlicesBetweenHeadings(t *testing.T) {
	s := NewSegmenter(Config{MinSectionChars: 1}, nil)
	text := "1.1 Latar Belakang Usaha\nIsi A\n2.1 Noble Purpose\nIsi B"

	res := s.Segment(text)
	require.False(t, res.Fallback)
	assert.Equal(t, 2, res.HeadingCount)
	assert.Equal(t, "Isi A\n", res.Sections[constants.LatarBelakang])
	assert.Equal(t, "Isi B", res.Sections[constants.NoblePurpose])

	for _, k := range constants.SectionKeys() {
		if k == constants.LatarBelakang || k == constants.NoblePurpose {
			continue
		}
		assert.Empty(t, res.Sections[k], "section %s should be empty", k)
	}
	assert.Len(t, res.Sections, constants.SectionCount)
}

func fullProposalText() string {
	var b strings.Builder
	headings := []string{
		"1.1 Latar Belakang Usaha",
		"2.1 Noble Purpose",
		"2.2 Identifikasi Konsumen",
		"2.3 Produk Inovatif",
		"2.4 Strategi Pemasaran",
		"2.5 Sumber Daya",
		"3.1 Laporan/Proyeksi Keuangan",
		"3.2 Rencana Anggaran Belanja",
	}
	b.WriteString("PROPOSAL BISNIS MAHASISWA\n")
	for i, h := range headings {
		b.WriteString(h)
		b.WriteString("\nParagraf isi bagian nomor ")
		b.WriteString(strings.Repeat("x", 20+i))
		b.WriteString("\n")
	}
	return b.String()
}

func TestSegmenter_Segment_FullDocument(t *testing.T) {
	s := NewSegmenter(Config{}, nil)

	res := s.Segment(fullProposalText())
	require.False(t, res.Fallback)
	assert.Equal(t, constants.SectionCount, res.HeadingCount)
	for _, k := range constants.SectionKeys() {
		assert.NotEmpty(t, res.Sections[k], "section %s should have content", k)
		assert.NotContains(t, res.Sections[k], "PROPOSAL BISNIS", "preamble must not leak into sections")
	}
}

func TestSegmenter_Segment_PatternOrderInvariance(t *testing.T) {
	text := fullProposalText()

	forward := NewSegmenter(Config{Patterns: DefaultPatterns()}, nil)
	reversed := DefaultPatterns()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	backward := NewSegmenter(Config{Patterns: reversed}, nil)

	a := forward.Segment(text)
	b := backward.Segment(text)
	require.False(t, a.Fallback)
	require.False(t, b.Fallback)
	assert.Equal(t, a.Sections, b.Sections)
}

func TestSegmenter_Segment_DuplicateHeadingUsesFirst(t *testing.T) {
	s := NewSegmenter(Config{MinSectionChars: 1}, nil)
	text := "2.1 Noble Purpose\nPertama\n2.1 Noble Purpose\nKedua"

	res := s.Segment(text)
	require.False(t, res.Fallback)
	assert.True(t, strings.HasPrefix(res.Sections[constants.NoblePurpose], "Pertama"))
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "more than once")
}

func TestSegmenter_Segment_NoHeadingsFallsBack(t *testing.T) {
	s := NewSegmenter(Config{}, nil)

	res := s.Segment("Dokumen ini tidak memiliki struktur proposal sama sekali.")
	assert.True(t, res.Fallback)
	assert.Equal(t, 0, res.HeadingCount)
	assert.Len(t, res.Sections, constants.SectionCount)
	assert.Equal(t, 0, res.Sections.NonEmptyChars())
}

func TestSegmenter_Segment_ShortSectionsFallBack(t *testing.T) {
	// Headings found, but the combined content is under the default gate.
	s := NewSegmenter(Config{}, nil)

	res := s.Segment("1.1 Latar Belakang Usaha\nsingkat\n2.1 Noble Purpose\npendek")
	assert.True(t, res.Fallback)
	assert.Equal(t, 2, res.HeadingCount)
	assert.Equal(t, 0, res.Sections.NonEmptyChars(), "fallback must discard sliced content")
}

func TestSegmenter_Segment_CaseInsensitive(t *testing.T) {
	s := NewSegmenter(Config{MinSectionChars: 1}, nil)

	res := s.Segment("1.1 LATAR BELAKANG USAHA\nIsi bagian pertama")
	require.False(t, res.Fallback)
	assert.Equal(t, "Isi bagian pertama", res.Sections[constants.LatarBelakang])
}

func TestSegmenter_Segment_WhitespaceTolerance(t *testing.T) {
	s := NewSegmenter(Config{MinSectionChars: 1}, nil)

	// Extra spaces and a line wrap inside the heading still match.
	res := s.Segment("2.3   Produk\nInovatif\nDeskripsi produk unggulan")
	require.False(t, res.Fallback)
	assert.Equal(t, "Deskripsi produk unggulan", res.Sections[constants.ProdukInovatif])

	// Punctuation variants do not match.
	res = s.Segment("2.3. Produk Inovatif\nDeskripsi produk unggulan")
	assert.True(t, res.Fallback)
	assert.Equal(t, 0, res.HeadingCount)
}

func TestSectionMap_Concat(t *testing.T) {
	m := NewSectionMap()
	m[constants.RABNarrative] = "anggaran"
	m[constants.LatarBelakang] = "latar"
	m[constants.SumberDaya] = "tim"

	assert.Equal(t, "latar tim anggaran", m.Concat())
	assert.Empty(t, NewSectionMap().Concat())
}

func TestNewSectionMap(t *testing.T) {
	m := NewSectionMap()
	assert.Len(t, m, constants.SectionCount)
	for _, k := range constants.SectionKeys() {
		v, ok := m[k]
		assert.True(t, ok)
		assert.Empty(t, v)
	}
}
