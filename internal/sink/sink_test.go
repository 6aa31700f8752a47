// Package sink_test tests artifact persistence, playback, and temp-file hygiene.
package sink_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-clone/internal/config"
	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/sink"
)

func newTestSink(t *testing.T, playerCommand string) (*sink.PlayerSink, string) {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Player.Command = playerCommand

	tempDir := t.TempDir()

	return sink.NewWithTempDir(cfg, testLogger, tempDir), tempDir
}

func testArtifact() *core.AudioArtifact {
	return &core.AudioArtifact{
		Data:       []byte("RIFF....WAVEfake audio"),
		SampleRate: 24000,
	}
}

func requireEmptyDir(t *testing.T, dir string) {
	t.Helper()

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no temporary files may remain")
}

func TestEmit_PersistsToDestination(t *testing.T) {
	t.Parallel()

	audioSink, tempDir := newTestSink(t, "true")
	destination := filepath.Join(t.TempDir(), "out", "speech.wav")

	err := audioSink.Emit(context.Background(), testArtifact(), destination, false)
	require.NoError(t, err)

	data, readErr := os.ReadFile(destination)
	require.NoError(t, readErr)
	assert.Equal(t, testArtifact().Data, data)

	requireEmptyDir(t, tempDir)
}

func TestEmit_PersistAndPlayKeepsDestination(t *testing.T) {
	t.Parallel()

	audioSink, tempDir := newTestSink(t, "true")
	destination := filepath.Join(t.TempDir(), "speech.wav")

	err := audioSink.Emit(context.Background(), testArtifact(), destination, true)
	require.NoError(t, err)

	assert.FileExists(t, destination)
	requireEmptyDir(t, tempDir)
}

func TestEmit_PlaybackRemovesTempFileOnSuccess(t *testing.T) {
	t.Parallel()

	audioSink, tempDir := newTestSink(t, "true")

	err := audioSink.Emit(context.Background(), testArtifact(), "", true)
	require.NoError(t, err)

	requireEmptyDir(t, tempDir)
}

func TestEmit_PlayerFailureIsNotFatalAndTempFileIsRemoved(t *testing.T) {
	t.Parallel()

	// "false" exists on PATH and always exits non-zero.
	audioSink, tempDir := newTestSink(t, "false")

	err := audioSink.Emit(context.Background(), testArtifact(), "", true)
	require.NoError(t, err)

	requireEmptyDir(t, tempDir)
}

func TestEmit_TempWriteFailureReturnsErrorWithoutLeak(t *testing.T) {
	t.Parallel()

	testLogger, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	// A regular file in place of the temp directory makes every temp-file
	// write fail; the failure path must still leave nothing behind.
	parent := t.TempDir()
	blocker := filepath.Join(parent, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	audioSink := sink.NewWithTempDir(config.Default(), testLogger, blocker)

	emitErr := audioSink.Emit(context.Background(), testArtifact(), "", true)
	require.Error(t, emitErr)

	entries, readErr := os.ReadDir(parent)
	require.NoError(t, readErr)
	require.Len(t, entries, 1)
	assert.Equal(t, "blocker", entries[0].Name())
}

func TestEmit_NoDestinationNoPlayIsNoOp(t *testing.T) {
	t.Parallel()

	audioSink, tempDir := newTestSink(t, "true")

	err := audioSink.Emit(context.Background(), testArtifact(), "", false)
	require.NoError(t, err)

	requireEmptyDir(t, tempDir)
}
