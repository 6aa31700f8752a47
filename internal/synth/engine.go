package synth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/book-expert/logger"

	"github.com/book-expert/voice-clone/internal/config"
	"github.com/book-expert/voice-clone/internal/core"
)

// HealthCheckTimeout bounds the startup health check.
const HealthCheckTimeout = 10 * time.Second

// ErrEmptyText is returned when synthesis is requested for an empty string.
var ErrEmptyText = errors.New("text cannot be empty")

// Log formats.
const (
	logFmtSynthesized     = "Synthesized %d bytes (%.1fs at %d Hz)"
	logFmtHeaderFallback  = "Could not parse WAV header (%v), assuming %d Hz"
	errFmtHealthCheck     = "synthesis service health check failed: %w"
	errFmtGenerateSpeech  = "failed to generate speech: %w"
	logServiceHealthy     = "Synthesis service is healthy at %s"
	logFmtUsingVoiceClone = "Conditioning on voice sample: %s"
)

// Engine implements core.Synthesizer over the HTTP synthesis service. It owns
// the request construction, timeout handling, and artifact assembly.
type Engine struct {
	client            *Client
	log               *logger.Logger
	timeout           time.Duration
	defaultSampleRate int
}

// NewEngine creates an engine from the client configuration.
func NewEngine(cfg *config.Config, log *logger.Logger) *Engine {
	timeout := time.Duration(cfg.Service.TimeoutSeconds) * time.Second

	return &Engine{
		client:            NewClient(cfg.Service.URL, timeout),
		log:               log,
		timeout:           timeout,
		defaultSampleRate: cfg.Service.DefaultSampleRate,
	}
}

// NewEngineWithClient creates an engine with a custom client, primarily for
// injecting test doubles.
func NewEngineWithClient(
	client *Client,
	defaultSampleRate int,
	timeout time.Duration,
	log *logger.Logger,
) *Engine {
	return &Engine{
		client:            client,
		log:               log,
		timeout:           timeout,
		defaultSampleRate: defaultSampleRate,
	}
}

// Ping verifies the synthesis service is reachable and its model is loaded.
func (e *Engine) Ping(ctx context.Context) error {
	healthCtx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()

	healthErr := e.client.HealthCheck(healthCtx)
	if healthErr != nil {
		return fmt.Errorf(errFmtHealthCheck, healthErr)
	}

	e.log.Info(logServiceHealthy, e.client.baseURL)

	return nil
}

// Synthesize generates speech for the given text and parameters. A non-empty
// voiceSamplePath is forwarded as the conditioning reference; otherwise the
// service's default voice is used. Errors are propagated to the caller.
func (e *Engine) Synthesize(
	ctx context.Context,
	text string,
	parameters core.SynthesisParams,
	voiceSamplePath string,
) (*core.AudioArtifact, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	if voiceSamplePath != "" {
		e.log.Info(logFmtUsingVoiceClone, voiceSamplePath)
	}

	req := Request{
		Text:            text,
		AudioPromptPath: voiceSamplePath,
		Exaggeration:    parameters.Exaggeration,
		CFGWeight:       parameters.CFGWeight,
	}

	reqCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	audioData, speechErr := e.client.GenerateSpeech(reqCtx, req)
	if speechErr != nil {
		return nil, fmt.Errorf(errFmtGenerateSpeech, speechErr)
	}

	artifact := &core.AudioArtifact{
		Data:       audioData,
		SampleRate: e.defaultSampleRate,
	}

	info, headerErr := ParseWAVHeader(audioData)
	if headerErr != nil {
		e.log.Warn(logFmtHeaderFallback, headerErr, e.defaultSampleRate)
	} else {
		artifact.SampleRate = info.SampleRate
		e.log.Info(
			logFmtSynthesized,
			len(audioData),
			info.DurationSeconds,
			info.SampleRate,
		)
	}

	return artifact, nil
}
