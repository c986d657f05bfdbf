package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	name     string
	pages    []string
	warnings []string
	err      error
	called   *bool
}

func (s stubEngine) Name() string { return s.name }

func (s stubEngine) ExtractPages(data []byte) ([]string, []string, error) {
	if s.called != nil {
		*s.called = true
	}
	if s.err != nil {
		return nil, nil, s.err
	}
	return s.pages, s.warnings, nil
}

func newStubExtractor(engines ...engine) *Extractor {
	x := NewExtractor(Config{MinChars: 20}, nil)
	x.engines = engines
	return x
}

var pdfHeader = []byte("%PDF-1.7\n% stub body\n")

func TestExtractor_Extract_FirstEngineWins(t *testing.T) {
	secondCalled := false
	x := newStubExtractor(
		stubEngine{name: "a", pages: []string{"Latar belakang usaha kuliner", "halaman dua"}},
		stubEngine{name: "b", called: &secondCalled},
	)

	doc, err := x.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)
	assert.Equal(t, "a", doc.Method)
	assert.Equal(t, 2, doc.PageCount)
	assert.Equal(t, "Latar belakang usaha kuliner\nhalaman dua", doc.Text)
	assert.False(t, secondCalled, "second engine must not run when the first succeeds")
}

func TestExtractor_Extract_FallsBackWhenFirstIsShort(t *testing.T) {
	x := newStubExtractor(
		stubEngine{name: "a", pages: []string{"stub"}},
		stubEngine{name: "b", pages: []string{"Rencana anggaran belanja tahun pertama"}},
	)

	doc, err := x.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)
	assert.Equal(t, "b", doc.Method)
	assert.Contains(t, doc.Text, "Rencana anggaran")
}

func TestExtractor_Extract_FallsBackWhenFirstErrors(t *testing.T) {
	x := newStubExtractor(
		stubEngine{name: "a", err: errors.New("malformed xref table")},
		stubEngine{name: "b", pages: []string{"Identifikasi konsumen dan strategi pemasaran"}},
	)

	doc, err := x.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)
	assert.Equal(t, "b", doc.Method)
}

func TestExtractor_Extract_EncryptedReason(t *testing.T) {
	x := newStubExtractor(
		stubEngine{name: "a", err: errors.New("file is encrypted")},
		stubEngine{name: "b", err: errors.New("password required to open document")},
	)

	_, err := x.Extract(context.Background(), pdfHeader)
	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonEncrypted, xerr.Reason)
}

func TestExtractor_Extract_EmptyReason(t *testing.T) {
	// Both engines parse the file but neither clears the minimum.
	x := newStubExtractor(
		stubEngine{name: "a", pages: []string{""}},
		stubEngine{name: "b", pages: []string{"  ", ""}},
	)

	_, err := x.Extract(context.Background(), pdfHeader)
	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonEmpty, xerr.Reason)
	assert.Contains(t, xerr.Error(), "below minimum length")
}

func TestExtractor_Extract_InvalidWhenAllEnginesError(t *testing.T) {
	cause := errors.New("corrupt object stream")
	x := newStubExtractor(
		stubEngine{name: "a", err: errors.New("bad trailer")},
		stubEngine{name: "b", err: cause},
	)

	_, err := x.Extract(context.Background(), pdfHeader)
	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonInvalid, xerr.Reason)
	assert.ErrorIs(t, err, cause)
}

func TestExtractor_Extract_RejectsNonPDF(t *testing.T) {
	engineCalled := false
	x := newStubExtractor(stubEngine{name: "a", called: &engineCalled})

	_, err := x.Extract(context.Background(), []byte("<html>not a pdf</html>"))
	var xerr *Error
	require.ErrorAs(t, err, &xerr)
	assert.Equal(t, ReasonInvalid, xerr.Reason)
	assert.False(t, engineCalled, "engines must not run on non-PDF input")
}

func TestExtractor_Extract_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	x := newStubExtractor(stubEngine{name: "a", pages: []string{"Sumber daya manusia dan alat"}})
	_, err := x.Extract(ctx, pdfHeader)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractor_Extract_FlagsDegradedText(t *testing.T) {
	garbage := strings.Repeat("�", 60)
	x := newStubExtractor(stubEngine{name: "a", pages: []string{garbage}})

	doc, err := x.Extract(context.Background(), pdfHeader)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Warnings)
	assert.Contains(t, doc.Warnings[len(doc.Warnings)-1], "degraded")
}

func TestExtractor_Extract_RealPDF(t *testing.T) {
	const body = "Proposal usaha kuliner rumahan dengan target pasar mahasiswa"
	data := buildSinglePagePDF(body)

	x := NewExtractor(Config{MinChars: 20}, nil)
	doc, err := x.Extract(context.Background(), data)
	require.NoError(t, err)
	assert.Contains(t, doc.Text, "usaha kuliner rumahan")
	assert.Equal(t, 1, doc.PageCount)
	assert.NotEmpty(t, doc.Method)
}

func TestError_DefaultMessages(t *testing.T) {
	tests := []struct {
		reason FailReason
		want   string
	}{
		{ReasonInvalid, "not a readable PDF"},
		{ReasonEmpty, "no extractable text"},
		{ReasonEncrypted, "encrypted"},
	}
	for _, tt := range tests {
		t.Run(string(tt.reason), func(t *testing.T) {
			e := &Error{Reason: tt.reason}
			assert.Contains(t, e.Error(), tt.want)
		})
	}
}

// buildSinglePagePDF assembles a minimal one-page PDF with an uncompressed
// content stream and a valid xref table, enough for both engines to read.
func buildSinglePagePDF(text string) []byte {
	escaped := strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(text)
	stream := fmt.Sprintf("BT\n/F1 12 Tf\n72 720 Td\n(%s) Tj\nET", escaped)

	var b strings.Builder
	offsets := make([]int, 6)

	b.WriteString("%PDF-1.4\n")
	objs := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(stream), stream),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}
	for i, obj := range objs {
		offsets[i+1] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := b.Len()
	b.WriteString("xref\n0 6\n0000000000 65535 f \n")
	for i := 1; i <= 5; i++ {
		fmt.Fprintf(&b, "%010d 00000 n \n", offsets[i])
	}
	fmt.Fprintf(&b, "trailer\n<< /Size 6 /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", xref)

	return []byte(b.String())
}
