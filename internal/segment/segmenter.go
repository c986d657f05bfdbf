package segment

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"unicode"

	"github.com/incubatech/proposal-screener/constants"
)

// SectionMap holds the content of every canonical section. It always carries
// exactly eight keys; sections whose heading was not found hold "".
type SectionMap map[constants.SectionKey]string

// NewSectionMap returns a map with all eight keys set to "".
func NewSectionMap() SectionMap {
	m := make(SectionMap, constants.SectionCount)
	for _, k := range constants.SectionKeys() {
		m[k] = ""
	}
	return m
}

// NonEmptyChars sums the byte lengths of the non-empty section values.
func (m SectionMap) NonEmptyChars() int {
	total := 0
	for _, v := range m {
		total += len(v)
	}
	return total
}

// Concat joins the non-empty sections with a single space, in canonical
// document order regardless of how the map was populated.
func (m SectionMap) Concat() string {
	parts := make([]string, 0, constants.SectionCount)
	for _, k := range constants.SectionKeys() {
		if v := m[k]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

// Config controls segmentation policy.
type Config struct {
	// MinSectionChars is the minimum combined length of non-empty sections.
	// Below it the whole map is discarded in favor of the full text.
	MinSectionChars int
	// Patterns overrides the built-in heading set. Nil means defaults.
	Patterns []HeadingPattern
}

// Segmenter slices proposal text into named sections by locating the eight
// standard headings.
type Segmenter struct {
	patterns []HeadingPattern
	minChars int
	logger   *slog.Logger
}

func NewSegmenter(cfg Config, logger *slog.Logger) *Segmenter {
	if cfg.MinSectionChars <= 0 {
		cfg.MinSectionChars = 100
	}
	if cfg.Patterns == nil {
		cfg.Patterns = DefaultPatterns()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Segmenter{patterns: cfg.Patterns, minChars: cfg.MinSectionChars, logger: logger}
}

// Result is the outcome of one segmentation pass. When Fallback is true the
// section map is empty and the caller should classify the full text instead.
type Result struct {
	Sections     SectionMap
	HeadingCount int
	Fallback     bool
	Warnings     []string
}

type headingMatch struct {
	key        constants.SectionKey
	ordinal    int
	start, end int
}

// Segment locates every heading, sorts matches by document offset, and slices
// the text between consecutive headings. Only the first occurrence of a
// heading counts; repeats produce a warning. Pattern order never influences
// the result.
func (s *Segmenter) Segment(text string) Result {
	var (
		matches  []headingMatch
		warnings []string
	)
	for _, p := range s.patterns {
		locs := p.re.FindAllStringIndex(text, 2)
		if len(locs) == 0 {
			continue
		}
		if len(locs) > 1 {
			warnings = append(warnings, fmt.Sprintf("heading %s matched more than once, using the first occurrence", p.Key))
			s.logger.Warn("segment.heading.duplicate", "key", string(p.Key), "first_offset", locs[0][0])
		}
		matches = append(matches, headingMatch{key: p.Key, ordinal: p.Ordinal, start: locs[0][0], end: locs[0][1]})
	}

	if len(matches) == 0 {
		s.logger.Warn("segment.no_headings", "chars", len(text))
		return Result{Sections: NewSectionMap(), Fallback: true, Warnings: warnings}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].start != matches[j].start {
			return matches[i].start < matches[j].start
		}
		return matches[i].ordinal < matches[j].ordinal
	})

	sections := NewSectionMap()
	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1].start
		}
		if end < m.end {
			// Headings overlapping at the same offset leave no content.
			end = m.end
		}
		// Leading whitespace separates the heading from its body; everything
		// after it stays verbatim, trailing newlines included.
		sections[m.key] = strings.TrimLeftFunc(text[m.end:end], unicode.IsSpace)
	}

	content := sections.NonEmptyChars()
	if content < s.minChars {
		s.logger.Warn("segment.fallback",
			"headings", len(matches),
			"non_empty_chars", content,
			"min_chars", s.minChars,
		)
		return Result{Sections: NewSectionMap(), HeadingCount: len(matches), Fallback: true, Warnings: warnings}
	}

	counts := make(map[string]int, constants.SectionCount)
	for k, v := range sections {
		counts[string(k)] = len(v)
	}
	s.logger.Debug("segment.sections", "section_chars", counts)
	s.logger.Info("segment.ok", "headings", len(matches), "chars", content)
	return Result{Sections: sections, HeadingCount: len(matches), Warnings: warnings}
}
