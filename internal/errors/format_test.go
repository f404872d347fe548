package errors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatForCLI_WithSuggestion(t *testing.T) {
	// Given: an error with suggestion
	err := InvalidConfiguration("granularity must be >= 0").
		WithSuggestion("Set granularity to 0 to disable bucketing")

	// When: formatting for CLI
	result := FormatForCLI(err)

	// Then: contains message, hint and code
	assert.Contains(t, result, "granularity must be >= 0")
	assert.Contains(t, result, "Hint: Set granularity to 0")
	assert.Contains(t, result, ErrCodeInvalidConfiguration)
}

func TestFormatForCLI_StandardError(t *testing.T) {
	result := FormatForCLI(errors.New("something went wrong"))

	assert.Contains(t, result, "something went wrong")
	assert.Contains(t, result, ErrCodeInternal)
}

func TestFormatForCLI_ShortFormat(t *testing.T) {
	err := WriteFailure("/tmp/log", errors.New("permission denied"))

	result := FormatForCLI(err)

	lines := strings.Split(strings.TrimSpace(result), "\n")
	assert.LessOrEqual(t, len(lines), 5, "Should be concise")
	assert.Contains(t, result, "Cause: permission denied")
}

func TestFormatForCLI_NilError(t *testing.T) {
	assert.Empty(t, FormatForCLI(nil))
}

func TestFormatForLog(t *testing.T) {
	err := WriteFailure("/tmp/a.log", errors.New("disk quota exceeded"))

	fields := FormatForLog(err)

	assert.Equal(t, ErrCodeWriteFailure, fields["error_code"])
	assert.Equal(t, "IO", fields["category"])
	assert.Equal(t, "disk quota exceeded", fields["cause"])
	assert.Equal(t, "/tmp/a.log", fields["detail_path"])
}

func TestFormatForLog_StandardError(t *testing.T) {
	fields := FormatForLog(errors.New("plain"))

	assert.Equal(t, map[string]any{"error": "plain"}, fields)
	assert.Nil(t, FormatForLog(nil))
}
