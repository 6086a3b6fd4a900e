package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/datazip-inc/tap-hubspot/constants"
	"github.com/rs/zerolog"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLoggerWritesJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	require.NoError(t, FileLogger(map[string]any{"bookmarks": map[string]any{}}, dir, "state", ".json"))

	data, err := os.ReadFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"bookmarks":{}}`, string(data))

	// rewrites replace the previous content
	require.NoError(t, FileLogger(map[string]any{"currently_syncing": "email_events"}, dir, "state", ".json"))
	data, err = os.ReadFile(filepath.Join(dir, "state.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"currently_syncing":"email_events"}`, string(data))
}

func TestLogArtifact(t *testing.T) {
	t.Cleanup(func() { viper.Set(constants.ArtifactsFolder, "") })

	viper.Set(constants.ArtifactsFolder, "")
	LogArtifact(map[string]any{"streams": []any{}}, "catalog")

	dir := t.TempDir()
	viper.Set(constants.ArtifactsFolder, dir)
	LogArtifact(map[string]any{"streams": []any{}}, "catalog")

	data, err := os.ReadFile(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"streams":[]}`, string(data))
}

func TestConsoleWriterColorsLevels(t *testing.T) {
	out := &bytes.Buffer{}
	log := zerolog.New(newConsoleWriter(out))

	log.Warn().Msg("retrying request")
	assert.Contains(t, out.String(), "\033[33mWARN\033[0m")
	assert.Contains(t, out.String(), "retrying request")
}

func TestConsoleWriterColorsMessagesPerEvent(t *testing.T) {
	out := &bytes.Buffer{}
	previous := logger
	logger = newLogger(zerolog.DebugLevel, newConsoleWriter(out))
	t.Cleanup(func() { logger = previous })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if i%2 == 0 {
					Warnf("partition %d retrying", i)
				} else {
					Errorf("partition %d failed", i)
				}
			}
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 400)
	for _, line := range lines {
		if strings.Contains(line, "WARN") {
			assert.NotContains(t, line, "\033[31m", line)
			assert.Contains(t, line, "retrying")
		} else {
			assert.Contains(t, line, "\033[31mERROR\033[0m")
			assert.Regexp(t, `\x1b\[31mpartition \d failed\x1b\[0m`, line)
		}
	}
}
