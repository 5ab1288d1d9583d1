package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCategorize(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Category
	}{
		{
			name: "categorized error keeps its category",
			err:  Business(stderrors.New("rate missing"), "reconcile"),
			want: CategoryBusiness,
		},
		{
			name: "wrapped categorized error",
			err:  fmt.Errorf("stage failed: %w", Transient(stderrors.New("session lost"), "export")),
			want: CategoryTransient,
		},
		{
			name: "no-data error",
			err:  &NoDataError{Source: "agreement_master", Country: "SE"},
			want: CategoryNoData,
		},
		{
			name: "timeout error",
			err:  &TimeoutError{Operation: "fetch rate", Duration: "30s"},
			want: CategoryTransient,
		},
		{
			name: "conversion error",
			err:  &ConversionError{Kind: "gl_items", Message: "bad amount"},
			want: CategoryIntegrity,
		},
		{
			name: "unknown error is fatal",
			err:  stderrors.New("disk on fire"),
			want: CategoryFatal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Categorize(tt.err))
		})
	}
}

func TestCategorizedError_Unwrap(t *testing.T) {
	inner := &NoDataError{Source: "hq_bonus"}
	err := NewCategorized(inner, CategoryNoData, "export stage")

	var target *NoDataError
	require.True(t, stderrors.As(err, &target))
	assert.Equal(t, "hq_bonus", target.Source)
}

func TestCategorizedError_Error(t *testing.T) {
	err := Integrity(stderrors.New("empty after filtering"), "convert local_bonus")
	msg := err.Error()
	assert.Contains(t, msg, "convert local_bonus")
	assert.Contains(t, msg, "integrity")
}

func TestIsNoData(t *testing.T) {
	assert.True(t, IsNoData(&NoDataError{Source: "condition_records"}))
	assert.False(t, IsNoData(stderrors.New("boom")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&TimeoutError{Operation: "export", Duration: "60s"}))
	assert.False(t, IsRetryable(Business(stderrors.New("x"), "")))
	assert.False(t, IsRetryable(&NoDataError{Source: "gl_items"}))
}

func TestCategoryString(t *testing.T) {
	assert.Equal(t, "transient", CategoryTransient.String())
	assert.Equal(t, "no_data", CategoryNoData.String())
	assert.Equal(t, "integrity", CategoryIntegrity.String())
	assert.Equal(t, "business", CategoryBusiness.String())
	assert.Equal(t, "fatal", CategoryFatal.String())
}
