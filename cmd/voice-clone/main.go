// Command voice-clone synthesizes speech through a local voice-cloning TTS
// service, either one-shot from the command line or interactively.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"
	"github.com/spf13/cobra"

	"github.com/book-expert/voice-clone/internal/config"
	"github.com/book-expert/voice-clone/internal/core"
	"github.com/book-expert/voice-clone/internal/params"
	"github.com/book-expert/voice-clone/internal/repl"
	"github.com/book-expert/voice-clone/internal/sink"
	"github.com/book-expert/voice-clone/internal/synth"
	"github.com/book-expert/voice-clone/internal/text"
	"github.com/book-expert/voice-clone/internal/voice"
)

// Flag names.
const (
	flagVoice        = "voice"
	flagOutput       = "output"
	flagListVoices   = "list-voices"
	flagNoPlay       = "no-play"
	flagExaggeration = "exaggeration"
	flagCFG          = "cfg"
	flagDramatic     = "dramatic"
	flagCalm         = "calm"
	flagConfig       = "config"
)

// Flag descriptions.
const (
	flagVoiceDesc        = "Path to a voice sample WAV file"
	flagOutputDesc       = "Save output to file (if not specified, only plays audio)"
	flagListVoicesDesc   = "List available voice samples and exit"
	flagNoPlayDesc       = "Don't play audio (useful with --output)"
	flagExaggerationDesc = "Expressive intensity in [0,1]"
	flagCFGDesc          = "Guidance weight in [0,1]"
	flagDramaticDesc     = "Preset: exaggeration 0.7, cfg 0.3"
	flagCalmDesc         = "Preset: exaggeration 0.3, cfg 0.6"
	flagConfigDesc       = "Path to voice-clone.toml (defaults to searching up the directory tree)"
)

// Log file name and messages.
const (
	logFileName          = "voice-clone.log"
	logClientInitialized = "voice-clone initialized (config: %s)"
	logConfigBuiltin     = "built-in defaults"
	logFmtUsingSample    = "Using voice sample: %s"
	logDefaultVoice      = "No voice sample found, using default voice"
)

// User-facing messages.
const (
	msgFmtAutoSelected  = "Auto-selected voice sample: %s\n"
	msgHintVoiceFlag    = "   (use --voice to specify a different sample)"
	msgDefaultVoice     = "No voice samples found, using default voice"
	msgSamplesHeader    = "Available voice samples:"
	msgFmtNoSamples     = "No voice samples found in %s\n"
	msgFmtSampleEntry   = "  - %s (%s)\n"
	msgFmtGenerated     = "Generated: %s\n"
	msgPlaybackComplete = "Done"
)

// Static errors.
var (
	ErrConflictingPresets = errors.New("cannot combine --dramatic and --calm")
	ErrEmptyText          = errors.New("text is empty after normalization")
)

// appFlags holds the parsed command-line flag values.
type appFlags struct {
	voice        string
	output       string
	configPath   string
	exaggeration float64
	cfgWeight    float64
	listVoices   bool
	noPlay       bool
	dramatic     bool
	calm         bool
}

func main() {
	err := newRootCommand().Execute()
	if err != nil {
		os.Exit(1)
	}
}

// newRootCommand builds the cobra root command with all flags registered.
func newRootCommand() *cobra.Command {
	flags := &appFlags{
		voice:        "",
		output:       "",
		configPath:   "",
		exaggeration: 0,
		cfgWeight:    0,
		listVoices:   false,
		noPlay:       false,
		dramatic:     false,
		calm:         false,
	}

	cmd := &cobra.Command{
		Use:   "voice-clone [text]",
		Short: "Voice cloning with a local TTS service",
		Long: `voice-clone synthesizes speech through a locally running TTS service,
optionally cloning a reference voice from a sample WAV file.

With a text argument it performs a single synthesis; without one it starts an
interactive session.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, args, flags)
		},
	}

	registerFlags(cmd, flags)

	return cmd
}

// registerFlags attaches all command-line flags to cmd.
func registerFlags(cmd *cobra.Command, flags *appFlags) {
	cmd.Flags().StringVarP(&flags.voice, flagVoice, "v", "", flagVoiceDesc)
	cmd.Flags().StringVarP(&flags.output, flagOutput, "o", "", flagOutputDesc)
	cmd.Flags().BoolVarP(&flags.listVoices, flagListVoices, "l", false, flagListVoicesDesc)
	cmd.Flags().BoolVar(&flags.noPlay, flagNoPlay, false, flagNoPlayDesc)
	cmd.Flags().Float64VarP(&flags.exaggeration, flagExaggeration, "e", 0.5, flagExaggerationDesc)
	cmd.Flags().Float64VarP(&flags.cfgWeight, flagCFG, "c", 0.5, flagCFGDesc)
	cmd.Flags().BoolVar(&flags.dramatic, flagDramatic, false, flagDramaticDesc)
	cmd.Flags().BoolVar(&flags.calm, flagCalm, false, flagCalmDesc)
	cmd.Flags().StringVar(&flags.configPath, flagConfig, "", flagConfigDesc)
}

// run is the main application entry point, returning an error on failure.
func run(cmd *cobra.Command, args []string, flags *appFlags) error {
	cfg, configDir, log, err := setup(flags.configPath)
	if err != nil {
		return err
	}

	defer func() {
		closeErr := log.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing logger: %v\n", closeErr)
		}
	}()

	if configDir == "" {
		configDir = logConfigBuiltin
	}

	log.Info(logClientInitialized, configDir)

	if flags.listVoices {
		return listVoices(cfg)
	}

	initial, resolveErr := resolveParams(cmd, flags, cfg, log)
	if resolveErr != nil {
		return resolveErr
	}

	samplePath, sampleErr := resolveVoiceSample(flags, cfg, log)
	if sampleErr != nil {
		return sampleErr
	}

	ctx := cmd.Context()

	engine := synth.NewEngine(cfg, log)

	pingErr := engine.Ping(ctx)
	if pingErr != nil {
		log.Error("Synthesis service unavailable: %v", pingErr)

		return pingErr
	}

	store := params.NewStore(initial, samplePath, log)
	audioSink := sink.New(cfg, log)

	if len(args) > 0 {
		return synthesizeOnce(ctx, engine, store, audioSink, log, args[0], flags)
	}

	return repl.New(store, engine, audioSink, log).Run(ctx)
}

// setup loads configuration and initializes the logger.
func setup(configPath string) (*config.Config, string, *logger.Logger, error) {
	startDir := "."
	if configPath != "" {
		startDir = filepath.Dir(configPath)
	}

	cfg, configDir, loadErr := config.Load(startDir)
	if loadErr != nil {
		return nil, "", nil, fmt.Errorf("failed to load configuration: %w", loadErr)
	}

	log, logErr := logger.New(cfg.Paths.LogsDir, logFileName)
	if logErr != nil {
		return nil, "", nil, fmt.Errorf("failed to initialize logger: %w", logErr)
	}

	return cfg, configDir, log, nil
}

// listVoices prints the voice-sample candidates and exits without synthesis.
func listVoices(cfg *config.Config) error {
	samples, listErr := voice.List(cfg.Voices.SampleDir)
	if listErr != nil {
		return listErr
	}

	if len(samples) == 0 {
		fmt.Printf(msgFmtNoSamples, cfg.Voices.SampleDir)

		return nil
	}

	fmt.Println(msgSamplesHeader)

	for _, sample := range samples {
		fmt.Printf(msgFmtSampleEntry, sample.Name, voice.FormatFileSize(sample.Size))
	}

	return nil
}

// resolveParams computes the effective startup parameters: configuration
// defaults, then a preset flag, then explicit -e/-c flags when actually set.
// Explicit values are clamped into [0,1] with a warning.
func resolveParams(
	cmd *cobra.Command,
	flags *appFlags,
	cfg *config.Config,
	log *logger.Logger,
) (core.SynthesisParams, error) {
	resolved := core.SynthesisParams{
		Exaggeration: cfg.Synthesis.Exaggeration,
		CFGWeight:    cfg.Synthesis.CFGWeight,
	}

	if flags.dramatic && flags.calm {
		return resolved, ErrConflictingPresets
	}

	if flags.dramatic {
		resolved, _ = params.Preset(params.PresetDramatic)
	}

	if flags.calm {
		resolved, _ = params.Preset(params.PresetCalm)
	}

	if cmd.Flags().Changed(flagExaggeration) {
		resolved.Exaggeration = clampWithWarning(
			flags.exaggeration,
			params.NameExaggeration,
			log,
		)
	}

	if cmd.Flags().Changed(flagCFG) {
		resolved.CFGWeight = clampWithWarning(flags.cfgWeight, params.NameCFG, log)
	}

	return resolved, nil
}

// clampWithWarning clamps an explicit flag value into [0,1], warning when the
// input was out of range.
func clampWithWarning(value float64, name string, log *logger.Logger) float64 {
	clamped := params.Clamp(value)
	if clamped != value {
		log.Warn("Value %.3f for --%s is outside [0, 1], clamped to %.3f",
			value, name, clamped)
		fmt.Printf("Warning: --%s %.3f clamped to %.3f\n", name, value, clamped)
	}

	return clamped
}

// resolveVoiceSample picks the session voice sample: explicit flag, else first
// sample in the configured directory, else the default voice.
func resolveVoiceSample(
	flags *appFlags,
	cfg *config.Config,
	log *logger.Logger,
) (string, error) {
	samplePath, resolveErr := voice.Resolve(flags.voice, cfg.Voices.SampleDir)
	if resolveErr != nil {
		return "", resolveErr
	}

	switch {
	case samplePath == "":
		log.Warn(logDefaultVoice)
		fmt.Println(msgDefaultVoice)
	case flags.voice == "":
		log.Info(logFmtUsingSample, samplePath)
		fmt.Printf(msgFmtAutoSelected, filepath.Base(samplePath))
		fmt.Println(msgHintVoiceFlag)
	default:
		log.Info(logFmtUsingSample, samplePath)
	}

	return samplePath, nil
}

// synthesizeOnce handles single-shot mode. Synthesis failures are fatal here;
// the process exits non-zero.
func synthesizeOnce(
	ctx context.Context,
	engine *synth.Engine,
	store *params.Store,
	audioSink core.Sink,
	log *logger.Logger,
	rawText string,
	flags *appFlags,
) error {
	normalized := text.Normalize(rawText)
	if normalized == "" {
		return ErrEmptyText
	}

	artifact, synthErr := engine.Synthesize(
		ctx,
		normalized,
		store.Params(),
		store.VoiceSamplePath(),
	)
	if synthErr != nil {
		log.Error("Failed to synthesize text: %v", synthErr)

		return fmt.Errorf("failed to synthesize text: %w", synthErr)
	}

	emitErr := audioSink.Emit(ctx, artifact, flags.output, !flags.noPlay)
	if emitErr != nil {
		log.Error("Failed to emit audio: %v", emitErr)

		return fmt.Errorf("failed to emit audio: %w", emitErr)
	}

	if flags.output != "" {
		fmt.Printf(msgFmtGenerated, flags.output)
	} else {
		fmt.Println(msgPlaybackComplete)
	}

	return nil
}
