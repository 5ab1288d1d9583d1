// Package convert turns raw export dumps into typed datasets.
//
// The exports arrive as screen-oriented text: framed tables with repeated
// headers, separators and page decorations. Each dataset kind has a line
// shape pattern that isolates the data rows; the rows are then split on the
// column separator and parsed field by field. Failures on mandatory columns
// abort the conversion, optional columns degrade to null.
package convert

import (
	"log/slog"
	"strings"
)

// Converter converts raw exports. Large general ledger dumps are parsed in
// parallel chunks; the merged result is identical to a single-threaded parse.
type Converter struct {
	logger         *slog.Logger
	workers        int
	chunkThreshold int
	categories     map[string]struct{}
}

// NewConverter creates a converter. categories is the whitelist of known
// bonus category codes; codes outside the list are reported with a warning
// but kept in the data.
func NewConverter(logger *slog.Logger, workers, chunkThreshold int, categories []string) *Converter {
	known := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		known[c] = struct{}{}
	}
	return &Converter{
		logger:         logger,
		workers:        workers,
		chunkThreshold: chunkThreshold,
		categories:     known,
	}
}

// textTokens is the decomposition of a posting text into accounting
// parameters. All fields are nil when the text does not follow the agreed
// "condition;category;customer;agreement[;note]" format.
type textTokens struct {
	condition *string
	category  *string
	customer  *uint32
	agreement *uint32
	note      *string
}

// deriveTokens splits a posting text into its accounting parameters.
// Texts with fewer than four semicolon separated tokens yield all nulls.
// Individually malformed tokens yield null for that token only: conditions
// must be exactly 4 characters, categories exactly 2, customer and agreement
// numeric.
func deriveTokens(text string) textTokens {
	var out textTokens

	tokens := strings.Split(text, ";")
	if len(tokens) < 4 {
		return out
	}

	if cond := strings.TrimSpace(tokens[0]); len(cond) == 4 {
		out.condition = &cond
	}
	if categ := strings.TrimSpace(tokens[1]); len(categ) == 2 {
		out.category = &categ
	}
	out.customer = parseOptionalUint32(tokens[2])
	out.agreement = parseOptionalUint32(tokens[3])

	if len(tokens) >= 5 {
		if note := strings.TrimSpace(tokens[4]); note != "" {
			out.note = &note
		}
	}
	return out
}
