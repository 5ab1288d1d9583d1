package errors

import "fmt"

// NoDataError indicates a remote search legitimately returned zero rows.
// The orchestrator records a no-data flag instead of failing the stage.
type NoDataError struct {
	Source  string
	Country string
}

// Error implements the error interface.
func (e *NoDataError) Error() string {
	if e.Country != "" {
		return fmt.Sprintf("no %s data found for %s", e.Source, e.Country)
	}
	return fmt.Sprintf("no %s data found", e.Source)
}

// TimeoutError indicates an external operation timed out.
type TimeoutError struct {
	Operation string
	Duration  string
}

// Error implements the error interface.
func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timeout after %s: %s", e.Duration, e.Operation)
}

// ConversionError indicates a raw export blob could not be converted into a
// typed dataset. Carries the offending line when one can be isolated.
type ConversionError struct {
	Kind    string
	Line    string
	Message string
}

// Error implements the error interface.
func (e *ConversionError) Error() string {
	if e.Line != "" {
		return fmt.Sprintf("conversion error in %s dataset: %s (line: %q)", e.Kind, e.Message, e.Line)
	}
	return fmt.Sprintf("conversion error in %s dataset: %s", e.Kind, e.Message)
}

// RateUnavailableError indicates no exchange rate could be obtained under the
// acquisition rules, including fallback days where allowed.
type RateUnavailableError struct {
	Currency string
	Day      string
	Message  string
}

// Error implements the error interface.
func (e *RateUnavailableError) Error() string {
	return fmt.Sprintf("no %s exchange rate for %s: %s", e.Currency, e.Day, e.Message)
}
