// Package params implements the mutable parameter store for a synthesis session.
//
// The store holds the current exaggeration and CFG-weight values plus the
// active voice-sample path. Values are always clamped into [0, 1] before use;
// out-of-range input is clamped with a warning rather than rejected.
package params

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/book-expert/logger"

	"github.com/book-expert/voice-clone/internal/core"
)

// Parameter names accepted by Set.
const (
	NameExaggeration = "exaggeration"
	NameCFG          = "cfg"
)

// Preset names accepted by ApplyPreset.
const (
	PresetDramatic = "dramatic"
	PresetCalm     = "calm"
)

// Clamp bounds for all synthesis parameters.
const (
	clampMin = 0.0
	clampMax = 1.0
)

// Static errors.
var (
	ErrUnknownParameter = errors.New("unknown parameter")
	ErrInvalidNumber    = errors.New("invalid numeric value")
	ErrUnknownPreset    = errors.New("unknown preset")
)

// Log formats.
const (
	logFmtClamped      = "Value %.3f for %s is outside [0, 1], clamped to %.3f"
	logFmtParameterSet = "Parameter %s set to %.3f"
	logFmtPresetApply  = "Applied preset %q: exaggeration=%.2f cfg_weight=%.2f"
)

// presets maps preset names to their fixed parameter pairs.
var presets = map[string]core.SynthesisParams{
	PresetDramatic: {Exaggeration: 0.7, CFGWeight: 0.3},
	PresetCalm:     {Exaggeration: 0.3, CFGWeight: 0.6},
}

// Store holds the current synthesis parameters and voice-sample path for one
// session. It is not safe for concurrent use; the client is single-threaded.
type Store struct {
	log             *logger.Logger
	current         core.SynthesisParams
	voiceSamplePath string
}

// NewStore creates a store seeded with the given parameters, clamping them
// first. The voice-sample path may be empty for the default voice.
func NewStore(
	initial core.SynthesisParams,
	voiceSamplePath string,
	log *logger.Logger,
) *Store {
	store := &Store{
		log:             log,
		current:         core.SynthesisParams{Exaggeration: 0, CFGWeight: 0},
		voiceSamplePath: voiceSamplePath,
	}

	store.current.Exaggeration = store.clamp(NameExaggeration, initial.Exaggeration)
	store.current.CFGWeight = store.clamp(NameCFG, initial.CFGWeight)

	return store
}

// Params returns the current effective synthesis parameters.
func (s *Store) Params() core.SynthesisParams {
	return s.current
}

// VoiceSamplePath returns the active voice-sample path, or "" for the default
// voice.
func (s *Store) VoiceSamplePath() string {
	return s.voiceSamplePath
}

// Set parses raw as a float, clamps it, and stores it under the named
// parameter. On a parse failure the store is left unchanged and a non-fatal
// error is returned. The effective (clamped) value is returned on success.
func (s *Store) Set(name, raw string) (float64, error) {
	value, parseErr := strconv.ParseFloat(raw, 64)
	if parseErr != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, raw)
	}

	clamped := s.clamp(name, value)

	switch name {
	case NameExaggeration:
		s.current.Exaggeration = clamped
	case NameCFG:
		s.current.CFGWeight = clamped
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownParameter, name)
	}

	s.log.Info(logFmtParameterSet, name, clamped)

	return clamped, nil
}

// ApplyPreset replaces both parameters with the named preset's fixed pair.
func (s *Store) ApplyPreset(name string) error {
	preset, ok := presets[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	s.current = preset
	s.log.Info(logFmtPresetApply, name, preset.Exaggeration, preset.CFGWeight)

	return nil
}

// Preset returns the fixed parameter pair for a named preset.
func Preset(name string) (core.SynthesisParams, error) {
	preset, ok := presets[name]
	if !ok {
		return core.SynthesisParams{
			Exaggeration: 0,
			CFGWeight:    0,
		}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}

	return preset, nil
}

// clamp bounds a value into [0, 1], logging a warning when the input was out
// of range.
func (s *Store) clamp(name string, value float64) float64 {
	clamped := Clamp(value)
	if clamped != value {
		s.log.Warn(logFmtClamped, value, name, clamped)
	}

	return clamped
}

// Clamp bounds a parameter value into [0, 1].
func Clamp(value float64) float64 {
	if value < clampMin {
		return clampMin
	}

	if value > clampMax {
		return clampMax
	}

	return value
}
