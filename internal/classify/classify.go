// Package classify decides whether a page carries meaningful selectable text
// and must be preserved verbatim, or is effectively image-only and can be
// rasterized.
package classify

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/local/pdfpress/internal/pdfengine"
)

const (
	// significantLen is the trimmed token length a token must exceed to count
	// as significant. Stray short glyphs (page numbers, watermark fragments)
	// stay below it.
	significantLen = 3

	// minTokens is the minimum number of non-empty tokens a true text page
	// carries. A scanned page with a handful of embedded text runs stays below it.
	minTokens = 5
)

// HasMeaningfulText reports whether the token set meets the significance
// threshold: at least one trimmed token longer than significantLen AND at
// least minTokens non-empty trimmed tokens. Deterministic and total.
func HasMeaningfulText(tokens []string) bool {
	nonEmpty := 0
	significant := false
	for _, tok := range tokens {
		t := strings.TrimSpace(tok)
		if t == "" {
			continue
		}
		nonEmpty++
		if len(t) > significantLen {
			significant = true
		}
	}
	return significant && nonEmpty >= minTokens
}

// Page classifies a single page of doc. Text extraction failures are absorbed
// into the conservative text-bearing default: a page we cannot read must never
// be lossily rasterized.
func Page(doc pdfengine.Document, page int) bool {
	tokens, err := doc.TextTokens(page)
	if err != nil {
		log.Warn().Err(err).Int("page", page+1).Msg("text extraction failed; treating page as text-bearing")
		return true
	}
	return HasMeaningfulText(tokens)
}
