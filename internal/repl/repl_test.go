// Package repl_test tests the interactive command grammar.
package repl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/params"
	"github.com/book-expert/voice-clone/internal/repl"
)

var errMockSynthesis = errors.New("mock synthesis error")

// mockSynthesizer records synthesis calls.
type mockSynthesizer struct {
	shouldFail bool
	calls      int
	lastText   string
	lastParams core.SynthesisParams
	lastVoice  string
}

func (m *mockSynthesizer) Synthesize(
	_ context.Context,
	text string,
	parameters core.SynthesisParams,
	voiceSamplePath string,
) (*core.AudioArtifact, error) {
	if m.shouldFail {
		return nil, errMockSynthesis
	}

	m.calls++
	m.lastText = text
	m.lastParams = parameters
	m.lastVoice = voiceSamplePath

	return &core.AudioArtifact{Data: []byte("audio"), SampleRate: 24000}, nil
}

// mockSink records emit calls.
type mockSink struct {
	calls           int
	lastDestination string
	lastPlay        bool
}

func (m *mockSink) Emit(
	_ context.Context,
	_ *core.AudioArtifact,
	destinationPath string,
	play bool,
) error {
	m.calls++
	m.lastDestination = destinationPath
	m.lastPlay = play

	return nil
}

func setupLoop(t *testing.T) (*repl.Loop, *mockSynthesizer, *mockSink) {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	store := params.NewStore(
		core.SynthesisParams{Exaggeration: 0.5, CFGWeight: 0.5},
		"/samples/alex.wav",
		testLogger,
	)

	synthesizer := &mockSynthesizer{
		shouldFail: false,
		calls:      0,
		lastText:   "",
		lastParams: core.SynthesisParams{Exaggeration: 0, CFGWeight: 0},
		lastVoice:  "",
	}
	audioSink := &mockSink{calls: 0, lastDestination: "", lastPlay: false}

	return repl.New(store, synthesizer, audioSink, testLogger), synthesizer, audioSink
}

func TestHandleLine_QuitWordsTerminateWithoutSynthesis(t *testing.T) {
	t.Parallel()

	quitWords := []string{"quit", "exit", "q", "QUIT", "Exit", "Q"}

	for _, word := range quitWords {
		t.Run(word, func(t *testing.T) {
			t.Parallel()

			loop, synthesizer, _ := setupLoop(t)

			done := loop.HandleLine(context.Background(), word)
			assert.True(t, done)
			assert.Zero(t, synthesizer.calls)
		})
	}
}

func TestHandleLine_EmptyInputWarnsWithoutSynthesis(t *testing.T) {
	t.Parallel()

	loop, synthesizer, audioSink := setupLoop(t)

	done := loop.HandleLine(context.Background(), "   ")
	assert.False(t, done)
	assert.Zero(t, synthesizer.calls)
	assert.Zero(t, audioSink.calls)
}

func TestHandleLine_TextSynthesizesAndPlays(t *testing.T) {
	t.Parallel()

	loop, synthesizer, audioSink := setupLoop(t)

	done := loop.HandleLine(context.Background(), "Hello there")
	assert.False(t, done)

	require.Equal(t, 1, synthesizer.calls)
	assert.Equal(t, "Hello there", synthesizer.lastText)
	assert.Equal(t, "/samples/alex.wav", synthesizer.lastVoice)

	require.Equal(t, 1, audioSink.calls)
	assert.True(t, audioSink.lastPlay)
	assert.Empty(t, audioSink.lastDestination)
}

func TestHandleLine_TextIsNormalizedBeforeSynthesis(t *testing.T) {
	t.Parallel()

	loop, synthesizer, _ := setupLoop(t)

	loop.HandleLine(context.Background(), "  hello \t  world  ")
	assert.Equal(t, "hello world", synthesizer.lastText)
}

func TestHandleLine_ExaggerationCommandAffectsNextSynthesis(t *testing.T) {
	t.Parallel()

	loop, synthesizer, _ := setupLoop(t)

	done := loop.HandleLine(context.Background(), "!exaggeration 0.9")
	assert.False(t, done)
	assert.Zero(t, synthesizer.calls)

	loop.HandleLine(context.Background(), "say this")
	require.Equal(t, 1, synthesizer.calls)
	assert.InDelta(t, 0.9, synthesizer.lastParams.Exaggeration, 1e-9)
	assert.InDelta(t, 0.5, synthesizer.lastParams.CFGWeight, 1e-9)
}

func TestHandleLine_CFGCommand(t *testing.T) {
	t.Parallel()

	loop, synthesizer, _ := setupLoop(t)

	loop.HandleLine(context.Background(), "!cfg 0.2")
	loop.HandleLine(context.Background(), "say this")

	require.Equal(t, 1, synthesizer.calls)
	assert.InDelta(t, 0.2, synthesizer.lastParams.CFGWeight, 1e-9)
}

func TestHandleLine_PresetCommandsAffectNextSynthesis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		command  string
		wantExag float64
		wantCFG  float64
	}{
		{command: "!dramatic", wantExag: 0.7, wantCFG: 0.3},
		{command: "!calm", wantExag: 0.3, wantCFG: 0.6},
	}

	for _, testCase := range tests {
		t.Run(testCase.command, func(t *testing.T) {
			t.Parallel()

			loop, synthesizer, _ := setupLoop(t)

			done := loop.HandleLine(context.Background(), testCase.command)
			assert.False(t, done)
			assert.Zero(t, synthesizer.calls)

			loop.HandleLine(context.Background(), "say this")
			require.Equal(t, 1, synthesizer.calls)
			assert.InDelta(t, testCase.wantExag, synthesizer.lastParams.Exaggeration, 1e-9)
			assert.InDelta(t, testCase.wantCFG, synthesizer.lastParams.CFGWeight, 1e-9)
		})
	}
}

func TestHandleLine_MalformedNumberDoesNotMutate(t *testing.T) {
	t.Parallel()

	loop, synthesizer, _ := setupLoop(t)

	loop.HandleLine(context.Background(), "!exaggeration loud")
	loop.HandleLine(context.Background(), "say this")

	require.Equal(t, 1, synthesizer.calls)
	assert.InDelta(t, 0.5, synthesizer.lastParams.Exaggeration, 1e-9)
}

func TestHandleLine_MissingArgumentDoesNotMutate(t *testing.T) {
	t.Parallel()

	loop, synthesizer, _ := setupLoop(t)

	loop.HandleLine(context.Background(), "!cfg")
	loop.HandleLine(context.Background(), "say this")

	require.Equal(t, 1, synthesizer.calls)
	assert.InDelta(t, 0.5, synthesizer.lastParams.CFGWeight, 1e-9)
}

func TestHandleLine_UnrecognizedCommandIsSilentNoOp(t *testing.T) {
	t.Parallel()

	loop, synthesizer, audioSink := setupLoop(t)

	done := loop.HandleLine(context.Background(), "!pitch 0.4")
	assert.False(t, done)
	assert.Zero(t, synthesizer.calls)
	assert.Zero(t, audioSink.calls)
}

func TestHandleLine_HelpCommandDoesNotSynthesize(t *testing.T) {
	t.Parallel()

	loop, synthesizer, _ := setupLoop(t)

	done := loop.HandleLine(context.Background(), "!help")
	assert.False(t, done)
	assert.Zero(t, synthesizer.calls)
}

func TestHandleLine_SynthesisErrorKeepsLoopRunning(t *testing.T) {
	t.Parallel()

	loop, synthesizer, audioSink := setupLoop(t)
	synthesizer.shouldFail = true

	done := loop.HandleLine(context.Background(), "this will fail")
	assert.False(t, done)
	assert.Zero(t, audioSink.calls)

	// The session recovers once synthesis works again.
	synthesizer.shouldFail = false

	done = loop.HandleLine(context.Background(), "this will work")
	assert.False(t, done)
	assert.Equal(t, 1, audioSink.calls)
}
