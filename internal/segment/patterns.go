package segment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/incubatech/proposal-screener/constants"
)

// HeadingPattern pairs a section key with the regular expression that locates
// its heading. Ordinal is the key's position in canonical document order and
// breaks ties when two headings match at the same offset.
type HeadingPattern struct {
	Key     constants.SectionKey
	Pattern string
	Ordinal int

	re *regexp.Regexp
}

// defaultSources lists the eight proposal headings in canonical order. Word
// gaps use \s+ so wrapped lines and doubled spaces from extraction still
// match; the numbering is literal, so "1.1:" or "B.1" do not.
var defaultSources = []struct {
	key     constants.SectionKey
	pattern string
}{
	{constants.LatarBelakang, `1\.1\s+Latar\s+Belakang\s+Usaha`},
	{constants.NoblePurpose, `2\.1\s+Noble\s+Purpose`},
	{constants.Konsumen, `2\.2\s+Identifikasi\s+Konsumen`},
	{constants.ProdukInovatif, `2\.3\s+Produk\s+Inovatif`},
	{constants.StrategiPemasaran, `2\.4\s+Strategi\s+Pemasaran`},
	{constants.SumberDaya, `2\.5\s+Sumber\s+Daya`},
	{constants.KeuanganNarrative, `3\.1\s+Laporan/Proyeksi\s+Keuangan`},
	{constants.RABNarrative, `3\.2\s+Rencana\s+Anggaran\s+Belanja`},
}

// DefaultPatterns returns the compiled built-in heading set.
func DefaultPatterns() []HeadingPattern {
	out := make([]HeadingPattern, len(defaultSources))
	for i, s := range defaultSources {
		out[i] = HeadingPattern{
			Key:     s.key,
			Pattern: s.pattern,
			Ordinal: i,
			re:      regexp.MustCompile(`(?i)` + s.pattern),
		}
	}
	return out
}

type patternsFile struct {
	Version  int            `json:"version"`
	Patterns []patternEntry `json:"patterns"`
}

type patternEntry struct {
	Key     string `json:"key"`
	Pattern string `json:"pattern"`
}

// LoadPatterns reads a heading-pattern config file, validates it against the
// embedded schema, and compiles the result. The file must name every section
// exactly once; entry order is irrelevant because matches are sorted by
// document offset at segmentation time.
func LoadPatterns(path string) ([]HeadingPattern, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read patterns config: %w", err)
	}
	if err := validatePatternsConfig(raw); err != nil {
		return nil, err
	}

	var file patternsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode patterns config: %w", err)
	}

	ordinals := make(map[constants.SectionKey]int, constants.SectionCount)
	for i, k := range constants.SectionKeys() {
		ordinals[k] = i
	}

	seen := make(map[string]bool, len(file.Patterns))
	out := make([]HeadingPattern, 0, len(file.Patterns))
	for _, e := range file.Patterns {
		if seen[e.Key] {
			return nil, fmt.Errorf("patterns config: key %q appears more than once", e.Key)
		}
		seen[e.Key] = true

		re, err := regexp.Compile(`(?i)` + e.Pattern)
		if err != nil {
			return nil, fmt.Errorf("patterns config: compile %q: %w", e.Key, err)
		}
		out = append(out, HeadingPattern{
			Key:     constants.SectionKey(e.Key),
			Pattern: e.Pattern,
			Ordinal: ordinals[constants.SectionKey(e.Key)],
			re:      re,
		})
	}
	return out, nil
}

// buildPatternsSchema returns the JSON-Schema for pattern config files as a
// generic map. The schema pins the shape; key uniqueness is checked in Go.
func buildPatternsSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"version", "patterns"},
		"properties": map[string]any{
			"version": map[string]any{"type": "integer", "minimum": 1},
			"patterns": map[string]any{
				"type":     "array",
				"minItems": constants.SectionCount,
				"maxItems": constants.SectionCount,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"key", "pattern"},
					"properties": map[string]any{
						"key":     map[string]any{"type": "string", "enum": constants.SectionKeyStrings()},
						"pattern": map[string]any{"type": "string", "minLength": 1},
					},
				},
			},
		},
	}
}

func validatePatternsConfig(data []byte) error {
	b, err := json.Marshal(buildPatternsSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("patterns.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("patterns.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("patterns config is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("patterns config does not match schema: %w", err)
	}
	return nil
}
