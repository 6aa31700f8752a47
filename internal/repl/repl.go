// Package repl implements the interactive synthesis loop.
//
// Each line from the prompt is either a session command (prefixed with "!"),
// a quit word, or text to synthesize and play. Synthesis errors are caught at
// the loop boundary so a failed request never ends the session.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/logger"
	"github.com/chzyer/readline"

	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/params"
	"github.com/book-expert/voice-clone/internal/text"
)

// Prompt configuration.
const (
	prompt          = "> "
	historyFileName = ".voice-clone_history"
	historyLimit    = 100
	interruptPrompt = "^C"
	eofPrompt       = "exit"
)

// Command grammar.
const (
	commandPrefix      = "!"
	commandHelp        = "help"
	commandExag        = params.NameExaggeration
	commandCFG         = params.NameCFG
	commandDramatic    = params.PresetDramatic
	commandCalm        = params.PresetCalm
	quitWordQuit       = "quit"
	quitWordExit       = "exit"
	quitWordQ          = "q"
	commandArgCountMax = 2
)

// User-facing messages.
const (
	msgBanner = `Interactive voice cloning mode.
Type your text and press Enter to generate speech.
Commands: !exaggeration <v>, !cfg <v>, !dramatic, !calm, !help. Type 'quit' or 'exit' to stop.`
	msgGoodbye        = "Goodbye!"
	msgEmptyInput     = "Warning: please enter some text"
	msgHelp           = "Commands:\n  !exaggeration <0..1>  set expressive intensity\n  !cfg <0..1>           set guidance weight\n  !dramatic | !calm     apply a preset\n  !help                 show this message\n  quit | exit | q       leave the session"
	msgFmtNewValue    = "%s = %.3f\n"
	msgFmtPreset      = "%s: exaggeration = %.3f, cfg = %.3f\n"
	msgFmtBadArgument = "Warning: %v\n"
	msgFmtMissingArg  = "Warning: %s requires a value\n"
	msgFmtSynthFailed = "Error: %v\n"
	msgGenerating     = "Generating speech..."
)

// Loop drives an interactive synthesis session. It owns no resources beyond
// the readline instance created in Run.
type Loop struct {
	store *params.Store
	synth core.Synthesizer
	sink  core.Sink
	log   *logger.Logger
}

// New creates an interactive loop over the given store, synthesizer, and sink.
func New(
	store *params.Store,
	synth core.Synthesizer,
	sink core.Sink,
	log *logger.Logger,
) *Loop {
	return &Loop{
		store: store,
		synth: synth,
		sink:  sink,
		log:   log,
	}
}

// Run reads lines until a quit word, EOF, or interrupt. It returns an error
// only when the prompt itself cannot be created.
func (l *Loop) Run(ctx context.Context) error {
	rl, rlErr := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     filepath.Join(os.TempDir(), historyFileName),
		HistoryLimit:    historyLimit,
		InterruptPrompt: interruptPrompt,
		EOFPrompt:       eofPrompt,
	})
	if rlErr != nil {
		return fmt.Errorf("failed to initialize prompt: %w", rlErr)
	}

	defer func() {
		closeErr := rl.Close()
		if closeErr != nil {
			l.log.Warn("Failed to close prompt: %v", closeErr)
		}
	}()

	fmt.Println(msgBanner)

	for {
		line, readErr := rl.Readline()
		if readErr != nil {
			if errors.Is(readErr, readline.ErrInterrupt) ||
				errors.Is(readErr, io.EOF) {
				fmt.Println(msgGoodbye)

				return nil
			}

			fmt.Printf("Error reading input: %v\n", readErr)

			continue
		}

		done := l.HandleLine(ctx, line)
		if done {
			return nil
		}
	}
}

// HandleLine interprets one input line and returns true when the session
// should terminate. Factored out of Run so the grammar is testable without a
// terminal.
func (l *Loop) HandleLine(ctx context.Context, line string) bool {
	input := strings.TrimSpace(line)

	switch strings.ToLower(input) {
	case quitWordQuit, quitWordExit, quitWordQ:
		fmt.Println(msgGoodbye)

		return true
	}

	if input == "" {
		fmt.Println(msgEmptyInput)

		return false
	}

	if strings.HasPrefix(input, commandPrefix) {
		l.handleCommand(input)

		return false
	}

	l.speak(ctx, input)

	return false
}

// handleCommand interprets a "!"-prefixed session command. Unrecognized
// commands fall through silently; malformed arguments warn without mutating
// the store.
func (l *Loop) handleCommand(input string) {
	fields := strings.Fields(strings.TrimPrefix(input, commandPrefix))
	if len(fields) == 0 {
		return
	}

	name := strings.ToLower(fields[0])

	switch name {
	case commandHelp:
		fmt.Println(msgHelp)
	case commandExag, commandCFG:
		if len(fields) < commandArgCountMax {
			fmt.Printf(msgFmtMissingArg, name)

			return
		}

		value, setErr := l.store.Set(name, fields[1])
		if setErr != nil {
			fmt.Printf(msgFmtBadArgument, setErr)

			return
		}

		fmt.Printf(msgFmtNewValue, name, value)
	case commandDramatic, commandCalm:
		presetErr := l.store.ApplyPreset(name)
		if presetErr != nil {
			fmt.Printf(msgFmtBadArgument, presetErr)

			return
		}

		current := l.store.Params()
		fmt.Printf(msgFmtPreset, name, current.Exaggeration, current.CFGWeight)
	default:
		// Unrecognized commands are a silent no-op.
	}
}

// speak synthesizes the given text and plays it. Errors are reported and the
// loop continues.
func (l *Loop) speak(ctx context.Context, input string) {
	normalized := text.Normalize(input)
	if normalized == "" {
		fmt.Println(msgEmptyInput)

		return
	}

	fmt.Println(msgGenerating)

	artifact, synthErr := l.synth.Synthesize(
		ctx,
		normalized,
		l.store.Params(),
		l.store.VoiceSamplePath(),
	)
	if synthErr != nil {
		l.log.Error("Synthesis failed: %v", synthErr)
		fmt.Printf(msgFmtSynthFailed, synthErr)

		return
	}

	emitErr := l.sink.Emit(ctx, artifact, "", true)
	if emitErr != nil {
		l.log.Error("Failed to emit audio: %v", emitErr)
		fmt.Printf(msgFmtSynthFailed, emitErr)
	}
}
