package constants

// SectionKey identifies one of the eight semantic regions of a proposal
// document. The values double as column/field names in API payloads.
type SectionKey string

const (
	LatarBelakang     SectionKey = "txt_latar_belakang"
	NoblePurpose      SectionKey = "txt_noble_purpose"
	Konsumen          SectionKey = "txt_konsumen"
	ProdukInovatif    SectionKey = "txt_produk_inovatif"
	StrategiPemasaran SectionKey = "txt_strategi_pemasaran"
	SumberDaya        SectionKey = "txt_sumber_daya"
	KeuanganNarrative SectionKey = "txt_keuangan_narrative"
	RABNarrative      SectionKey = "txt_rab_narrative"
)

// sectionOrder is the physical order of headings in a well-formed proposal.
// Slicing and concatenation both follow this order, never declaration order.
var sectionOrder = []SectionKey{
	LatarBelakang,
	NoblePurpose,
	Konsumen,
	ProdukInovatif,
	StrategiPemasaran,
	SumberDaya,
	KeuanganNarrative,
	RABNarrative,
}

// SectionCount is the fixed number of proposal sections.
const SectionCount = 8

// SectionKeys returns the canonical section keys in document order.
// The returned slice is a copy; callers may reorder it freely.
func SectionKeys() []SectionKey {
	out := make([]SectionKey, len(sectionOrder))
	copy(out, sectionOrder)
	return out
}

// SectionKeyStrings returns the canonical keys as plain strings, in order.
func SectionKeyStrings() []string {
	out := make([]string, len(sectionOrder))
	for i, k := range sectionOrder {
		out[i] = string(k)
	}
	return out
}

// IsSectionKey reports whether s names a known section.
func IsSectionKey(s string) bool {
	for _, k := range sectionOrder {
		if string(k) == s {
			return true
		}
	}
	return false
}
