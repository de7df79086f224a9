package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelWriter_ForwardsAndDrops(t *testing.T) {
	ch := make(chan string, 1)
	w := NewChannelWriter(ch)

	n, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	// channel full: the write still succeeds but the line is dropped
	n, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.Equal(t, uint64(1), w.Dropped())

	assert.Equal(t, "first\n", <-ch)
}

func TestNewChannelWriter_NilPanics(t *testing.T) {
	assert.PanicsWithValue(t, "ChannelWriter: channel cannot be nil", func() {
		NewChannelWriter(nil)
	})
}

func TestSetup_FileAndUIChannel(t *testing.T) {
	dir := t.TempDir()
	ch := make(chan string, 10)

	logger, closer := Setup(LoggerSetupParams{
		LogFileName: filepath.Join(dir, "trainer"),
		UILogChan:   ch,
	})
	logger.Printf("SessionManager: hello")
	require.NoError(t, closer.Close())

	raw, err := os.ReadFile(filepath.Join(dir, "trainer.log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "SessionManager: hello")

	var lines []string
	for len(ch) > 0 {
		lines = append(lines, <-ch)
	}
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "SessionManager: hello")
}

func TestSetup_NoOutputs(t *testing.T) {
	logger, closer := Setup(LoggerSetupParams{})
	require.NotNil(t, logger)
	logger.Printf("discarded")
	assert.NoError(t, closer.Close())
}
