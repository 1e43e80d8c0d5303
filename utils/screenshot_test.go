package utils

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilename(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 5, 7, 0, time.UTC)

	assert.Equal(t, "lancers-access-denied_2026-03-01_09-05-07.png", Filename("lancers-access-denied", at))
	assert.Equal(t, "lancers-search-system-web_2026-03-01_09-05-07.png", Filename("lancers-search system/web", at))
}

func TestNewScreenShotDebugger(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	s, err := NewScreenShotDebugger(dir)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, s.Dir())

	var disabled *ScreenShotDebugger
	path, err := disabled.CaptureAndLog(nil, "x", "ignored")
	assert.NoError(t, err)
	assert.Empty(t, path)
}
