package cmd

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tlerrors "github.com/Aman-CERP/timelog/internal/errors"
)

func TestPathCmd_At(t *testing.T) {
	// Given: a dated template
	isolateCLI(t)
	dir := t.TempDir()
	at := time.Date(2023, 6, 15, 10, 0, 0, 0, time.UTC)

	// When: resolving for a fixed instant
	out, _, err := execute(t, "", "--dir", dir, "--template", "log-%Y-%m-%d.log", "path", "--at", at.Format(time.RFC3339))

	// Then: the path uses that instant in local time
	require.NoError(t, err)
	want := filepath.Join(dir, at.In(time.Local).Format("log-2006-01-02.log"))
	assert.Equal(t, want, strings.TrimSpace(out))
}

func TestPathCmd_TrailingSeparatorIgnored(t *testing.T) {
	isolateCLI(t)
	dir := t.TempDir()

	withSlash, _, err := execute(t, "", "--dir", dir+string(filepath.Separator), "--template", "app.log", "path")
	require.NoError(t, err)
	without, _, err := execute(t, "", "--dir", dir, "--template", "app.log", "path")
	require.NoError(t, err)

	assert.Equal(t, without, withSlash)
}

func TestPathCmd_GranularityGroupsInstants(t *testing.T) {
	// Given: hourly files with a second-precision template
	isolateCLI(t)
	dir := t.TempDir()
	base := time.Date(2023, 6, 15, 10, 0, 0, 0, time.Local)
	resolve := func(at time.Time) string {
		out, _, err := execute(t, "", "--dir", dir, "--template", "%H%M%S.log", "--granularity", "3600",
			"path", "--at", at.Format(time.RFC3339))
		require.NoError(t, err)
		return strings.TrimSpace(out)
	}

	// When: resolving two instants in the same hour and one in the next
	first := resolve(base.Add(5 * time.Minute))
	second := resolve(base.Add(55 * time.Minute))
	next := resolve(base.Add(65 * time.Minute))

	// Then: the first two share a file
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, next)
}

func TestPathCmd_InvalidAt(t *testing.T) {
	isolateCLI(t)

	_, _, err := execute(t, "", "--dir", t.TempDir(), "path", "--at", "yesterday")

	require.Error(t, err)
	assert.True(t, errors.Is(err, tlerrors.ErrInvalidConfiguration))
}

func TestPathCmd_UnknownPlaceholder(t *testing.T) {
	isolateCLI(t)

	_, _, err := execute(t, "", "--dir", "%nope%/logs", "path")

	require.Error(t, err)
	assert.True(t, errors.Is(err, tlerrors.ErrPathResolution))
}
