// Package errors provides error classification and retry policies for the
// reconciliation pipeline.
//
// The package implements a layered error handling approach:
//   - Categorization: classify errors so the orchestrator can decide between
//     retrying a stage, skipping a country, or aborting the run
//   - Retry: handle transient automation failures with bounded backoff
package errors

import (
	"errors"
	"fmt"
)

// Category represents how an error should be handled by the orchestrator.
type Category int

const (
	// CategoryTransient indicates retry will likely help.
	// Examples: remote terminal session hiccups, export timeouts.
	CategoryTransient Category = iota

	// CategoryNoData indicates a search legitimately returned zero rows.
	// Not a failure: downstream stages treat the dataset as empty.
	CategoryNoData

	// CategoryIntegrity indicates the exported data could not be converted.
	// Examples: unparseable mandatory columns, empty result after filtering.
	// Aborts the current country's pipeline.
	CategoryIntegrity

	// CategoryBusiness indicates a business-rule failure that must be
	// surfaced to the user. Example: no exchange rate obtainable under the
	// strict same-day rule. Aborts the country's reconciliation stage.
	CategoryBusiness

	// CategoryFatal indicates an environment failure that aborts the whole
	// run. Examples: unreachable checkpoint storage, unreachable database.
	CategoryFatal
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryTransient:
		return "transient"
	case CategoryNoData:
		return "no_data"
	case CategoryIntegrity:
		return "integrity"
	case CategoryBusiness:
		return "business"
	case CategoryFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// CategorizedError wraps an error with its category and context.
type CategorizedError struct {
	// Err is the underlying error.
	Err error

	// Category indicates how this error should be handled.
	Category Category

	// Retries is the number of attempts that have been made.
	Retries int

	// Context describes what operation was being attempted.
	Context string
}

// Error implements the error interface.
func (e *CategorizedError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (category: %s, attempts: %d)",
			e.Context, e.Err, e.Category, e.Retries)
	}
	return fmt.Sprintf("%s (category: %s, attempts: %d)",
		e.Err, e.Category, e.Retries)
}

// Unwrap returns the underlying error.
func (e *CategorizedError) Unwrap() error {
	return e.Err
}

// NewCategorized creates a new categorized error.
func NewCategorized(err error, category Category, context string) *CategorizedError {
	return &CategorizedError{
		Err:      err,
		Category: category,
		Context:  context,
	}
}

// Transient creates a transient error.
func Transient(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryTransient, context)
}

// Integrity creates a data-integrity error.
func Integrity(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryIntegrity, context)
}

// Business creates a business-rule error.
func Business(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryBusiness, context)
}

// Fatal creates a fatal environment error.
func Fatal(err error, context string) *CategorizedError {
	return NewCategorized(err, CategoryFatal, context)
}

// Categorize determines how an error should be handled.
func Categorize(err error) Category {
	if err == nil {
		return CategoryFatal // shouldn't happen, fail safe
	}

	// Check for already-categorized errors
	var catErr *CategorizedError
	if errors.As(err, &catErr) {
		return catErr.Category
	}

	// A zero-row search result is a flag, not a failure
	var noDataErr *NoDataError
	if errors.As(err, &noDataErr) {
		return CategoryNoData
	}

	// Timeouts on external calls are worth retrying
	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return CategoryTransient
	}

	var convErr *ConversionError
	if errors.As(err, &convErr) {
		return CategoryIntegrity
	}

	// Unknown errors abort the run (fail safe)
	return CategoryFatal
}

// IsRetryable reports whether the error should be retried.
func IsRetryable(err error) bool {
	return Categorize(err) == CategoryTransient
}

// IsNoData reports whether the error marks a legitimately empty search.
func IsNoData(err error) bool {
	return Categorize(err) == CategoryNoData
}
