package convert

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/glbonus/reconciler/pkg/recon/dataset"
	reconerr "github.com/glbonus/reconciler/pkg/recon/errors"
)

// General ledger line item rows start with the four-digit fiscal year.
var glItemLine = regexp.MustCompile(`^\|\s+\d{4}\|.*$`)

const glItemColumns = 14

// GLItems converts a raw general ledger line item dump. Amounts on posting
// key 50 are forced negative since the dump carries them as absolute values.
func (c *Converter) GLItems(text string) ([]dataset.GLItem, error) {
	lines := isolateLines(text, glItemLine)
	if len(lines) == 0 {
		return nil, &reconerr.ConversionError{
			Kind:    string(dataset.KindGLItems),
			Message: "no data rows found in export",
		}
	}

	items, err := parseChunks(lines, c.workers, c.chunkThreshold, parseGLItemLines)
	if err != nil {
		return nil, err
	}

	c.warnUnknownCategories(items)
	return items, nil
}

func parseGLItemLines(lines []string) ([]dataset.GLItem, error) {
	items := make([]dataset.GLItem, 0, len(lines))
	for _, line := range lines {
		item, err := parseGLItemLine(line)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func parseGLItemLine(line string) (dataset.GLItem, error) {
	fail := func(msg string) (dataset.GLItem, error) {
		return dataset.GLItem{}, &reconerr.ConversionError{
			Kind:    string(dataset.KindGLItems),
			Line:    line,
			Message: msg,
		}
	}

	fields := splitFields(line)
	if len(fields) != glItemColumns {
		return fail(fmt.Sprintf("expected %d columns, got %d", glItemColumns, len(fields)))
	}

	fiscalYear, err := strconv.ParseUint(fields[0], 10, 16)
	if err != nil {
		return fail("unparseable fiscal year")
	}
	period, err := strconv.ParseUint(fields[1], 10, 8)
	if err != nil {
		return fail("unparseable period")
	}
	account, err := parseUint32(fields[2])
	if err != nil {
		return fail("unparseable GL account")
	}
	docNumber, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return fail("unparseable document number")
	}
	if fields[6] == "" {
		return fail("missing document type")
	}
	postingKey, err := strconv.ParseUint(fields[9], 10, 8)
	if err != nil {
		return fail("unparseable posting key")
	}
	amount, err := ParseAmount(fields[10])
	if err != nil {
		return fail("unparseable amount")
	}

	// Dumps store posting key 50 amounts as absolute values
	if postingKey == 50 && amount > 0 {
		amount = -amount
	}

	// Open items carry no clearing document
	var clearing *int64
	if fields[12] != "" {
		n, err := strconv.ParseInt(fields[12], 10, 64)
		if err != nil {
			return fail("unparseable clearing document")
		}
		clearing = &n
	}

	tokens := deriveTokens(fields[13])

	return dataset.GLItem{
		FiscalYear:     uint16(fiscalYear),
		Period:         uint8(period),
		Account:        account,
		Assignment:     fields[3],
		DocumentNumber: docNumber,
		BusinessArea:   fields[5],
		DocumentType:   fields[6],
		DocumentDate:   ParseDate(fields[7]),
		PostingDate:    ParseDate(fields[8]),
		PostingKey:     uint8(postingKey),
		Amount:         amount,
		TaxCode:        fields[11],
		Clearing:       clearing,
		Text:           fields[13],
		Condition:      tokens.condition,
		Category:       tokens.category,
		Customer:       tokens.customer,
		Agreement:      tokens.agreement,
		Note:           tokens.note,
	}, nil
}

// warnUnknownCategories reports category codes outside the configured
// whitelist. The rows are kept; the warning flags postings worth reviewing.
func (c *Converter) warnUnknownCategories(items []dataset.GLItem) {
	if c.logger == nil || len(c.categories) == 0 {
		return
	}

	unknown := make(map[string]struct{})
	for _, item := range items {
		if item.Category == nil {
			continue
		}
		if _, ok := c.categories[*item.Category]; !ok {
			unknown[*item.Category] = struct{}{}
		}
	}
	if len(unknown) == 0 {
		return
	}

	codes := make([]string, 0, len(unknown))
	for code := range unknown {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	c.logger.Warn("undefined bonus categories found",
		"categories", strings.Join(codes, "; "))
}
