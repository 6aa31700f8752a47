// Package core defines the shared types and interfaces for the voice-clone client.
package core

import "context"

// SynthesisParams holds the per-request synthesis controls.
// Both values are expected to be clamped into [0, 1] before use.
type SynthesisParams struct {
	// Exaggeration controls the expressive intensity of the generated speech.
	Exaggeration float64

	// CFGWeight controls how strictly synthesis adheres to the conditioning
	// input versus allowing freer variation.
	CFGWeight float64
}

// AudioArtifact is one synthesized waveform in a standard WAV container,
// produced fresh per synthesis call.
type AudioArtifact struct {
	// Data is the complete WAV file content as returned by the service.
	Data []byte

	// SampleRate is the rate reported by the container header, in Hz.
	SampleRate int
}

// Synthesizer turns text plus parameters into an audio artifact. An empty
// voiceSamplePath selects the service's default voice.
type Synthesizer interface {
	Synthesize(
		ctx context.Context,
		text string,
		params SynthesisParams,
		voiceSamplePath string,
	) (*AudioArtifact, error)
}

// Sink delivers a synthesized artifact to its destination. A non-empty
// destinationPath persists the artifact there; with an empty destinationPath
// and play set, the artifact is played from a temporary file that is removed
// before Emit returns.
type Sink interface {
	Emit(
		ctx context.Context,
		artifact *AudioArtifact,
		destinationPath string,
		play bool,
	) error
}
