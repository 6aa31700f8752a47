// Package sink delivers synthesized audio to a file or to an external player.
//
// The one hard contract here is temp-file hygiene: when playback goes through
// a temporary file, that file is removed on every exit path, including player
// failure and write failure after creation.
package sink

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/voice-clone/internal/config"
	"github.com/book-expert/voice-clone/internal/core"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

// Temp file naming.
const (
	tempFilePrefix = "voice-clone-"
	tempFileSuffix = ".wav"
)

// Fallback players tried when the configured command is not on PATH.
var fallbackPlayers = []string{"aplay", "paplay", "ffplay"}

// Log and user-facing messages.
const (
	logFmtSaved          = "Saved audio to: %s"
	logFmtTempCreated    = "Playing from temporary file: %s"
	logFmtTempRemoveFail = "Failed to remove temp file '%s': %v"
	logFmtPlayerMissing  = "No audio player found (tried %q and fallbacks), skipping playback"
	logFmtPlayerFailed   = "Playback failed: %v - output: %s"
	msgPlaybackSkipped   = "Warning: could not play audio (no player available)"
	msgPlaybackFailed    = "Warning: audio playback failed"
)

// PlayerSink implements core.Sink. Persisted files are caller-owned and
// outlive the process; playback-only artifacts live in a scoped temporary
// file owned by the sink.
type PlayerSink struct {
	log           *logger.Logger
	playerCommand string
	playerArgs    []string
	tempDir       string
}

// New creates a sink using the configured player command. Temporary files go
// to the OS temp directory.
func New(cfg *config.Config, log *logger.Logger) *PlayerSink {
	return &PlayerSink{
		log:           log,
		playerCommand: cfg.Player.Command,
		playerArgs:    cfg.Player.Args,
		tempDir:       os.TempDir(),
	}
}

// NewWithTempDir creates a sink that places temporary files under tempDir.
// Used by tests to observe cleanup.
func NewWithTempDir(cfg *config.Config, log *logger.Logger, tempDir string) *PlayerSink {
	sink := New(cfg, log)
	sink.tempDir = tempDir

	return sink
}

// Emit persists and/or plays the artifact.
//
// With a destination path the artifact is written there and survives; if play
// is also set the persisted file is played in place. Without a destination
// and with play set, the artifact is written to a temporary file, played, and
// the file is removed before Emit returns regardless of playback outcome.
// Player failures are reported as warnings, never as errors: synthesis itself
// has already succeeded.
func (s *PlayerSink) Emit(
	ctx context.Context,
	artifact *core.AudioArtifact,
	destinationPath string,
	play bool,
) error {
	if destinationPath != "" {
		return s.emitToFile(ctx, artifact, destinationPath, play)
	}

	if !play {
		return nil
	}

	return s.emitToPlayer(ctx, artifact)
}

// emitToFile persists the artifact at the caller-owned destination.
func (s *PlayerSink) emitToFile(
	ctx context.Context,
	artifact *core.AudioArtifact,
	destinationPath string,
	play bool,
) error {
	dirErr := os.MkdirAll(filepath.Dir(destinationPath), dirPermissions)
	if dirErr != nil {
		return fmt.Errorf("failed to create output directory: %w", dirErr)
	}

	writeErr := os.WriteFile(destinationPath, artifact.Data, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write audio file: %w", writeErr)
	}

	s.log.Info(logFmtSaved, destinationPath)

	if play {
		s.playFile(ctx, destinationPath)
	}

	return nil
}

// emitToPlayer writes the artifact to a scoped temporary file and plays it.
// The deferred removal covers every exit path after creation.
func (s *PlayerSink) emitToPlayer(ctx context.Context, artifact *core.AudioArtifact) error {
	tempPath := filepath.Join(
		s.tempDir,
		tempFilePrefix+uuid.NewString()+tempFileSuffix,
	)

	// Registered before the write: os.WriteFile creates the file before
	// writing, so a failed write can still leave it behind. The not-exist
	// guard covers the case where creation itself failed.
	defer func() {
		removeErr := os.Remove(tempPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			s.log.Warn(logFmtTempRemoveFail, tempPath, removeErr)
		}
	}()

	writeErr := os.WriteFile(tempPath, artifact.Data, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write temp audio file: %w", writeErr)
	}

	s.log.Info(logFmtTempCreated, tempPath)
	s.playFile(ctx, tempPath)

	return nil
}

// playFile invokes the external player on audioPath. Failures degrade to
// warnings.
func (s *PlayerSink) playFile(ctx context.Context, audioPath string) {
	playerPath, found := s.resolvePlayer()
	if !found {
		s.log.Warn(logFmtPlayerMissing, s.playerCommand)
		fmt.Println(msgPlaybackSkipped)

		return
	}

	args := make([]string, 0, len(s.playerArgs)+1)
	args = append(args, s.playerArgs...)
	args = append(args, audioPath)

	// #nosec G204 -- the command comes from local configuration, not user input
	cmd := exec.CommandContext(ctx, playerPath, args...)

	output, runErr := cmd.CombinedOutput()
	if runErr != nil {
		s.log.Warn(logFmtPlayerFailed, runErr, string(output))
		fmt.Println(msgPlaybackFailed)
	}
}

// resolvePlayer locates the configured player on PATH, trying well-known
// fallbacks when it is absent.
func (s *PlayerSink) resolvePlayer() (string, bool) {
	candidates := append([]string{s.playerCommand}, fallbackPlayers...)

	for _, candidate := range candidates {
		if candidate == "" {
			continue
		}

		path, lookErr := exec.LookPath(candidate)
		if lookErr == nil {
			return path, true
		}
	}

	return "", false
}
