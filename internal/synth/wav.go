package synth

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// RIFF container layout constants.
const (
	riffHeaderSize = 12
	chunkHeaderLen = 8
	fmtChunkMinLen = 16

	riffMagic = "RIFF"
	waveMagic = "WAVE"
	fmtChunk  = "fmt "
	dataChunk = "data"
)

// Offsets within the fmt chunk body.
const (
	fmtOffChannels   = 2
	fmtOffSampleRate = 4
	fmtOffByteRate   = 8
	fmtOffBitDepth   = 14
)

// Static errors.
var (
	ErrNotWAV          = errors.New("data is not a RIFF/WAVE container")
	ErrMissingFmtChunk = errors.New("WAV container has no fmt chunk")
	ErrTruncatedChunk  = errors.New("WAV chunk is truncated")
)

// WAVInfo describes the audio stream in a WAV container header.
type WAVInfo struct {
	SampleRate int
	Channels   int
	BitDepth   int
	// DurationSeconds is derived from the data chunk size and byte rate; zero
	// when the container carries no data chunk.
	DurationSeconds float64
}

// ParseWAVHeader reads the fmt (and, when present, data) chunks of a WAV
// container. Only the header is inspected; sample data is never decoded.
func ParseWAVHeader(data []byte) (*WAVInfo, error) {
	if len(data) < riffHeaderSize ||
		string(data[0:4]) != riffMagic ||
		string(data[8:12]) != waveMagic {
		return nil, ErrNotWAV
	}

	info := &WAVInfo{
		SampleRate:      0,
		Channels:        0,
		BitDepth:        0,
		DurationSeconds: 0,
	}

	var (
		byteRate uint32
		dataSize uint32
		haveFmt  bool
	)

	offset := riffHeaderSize
	for offset+chunkHeaderLen <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + chunkHeaderLen

		switch chunkID {
		case fmtChunk:
			if chunkSize < fmtChunkMinLen || body+fmtChunkMinLen > len(data) {
				return nil, fmt.Errorf("%w: %s", ErrTruncatedChunk, fmtChunk)
			}

			info.Channels = int(
				binary.LittleEndian.Uint16(data[body+fmtOffChannels:]),
			)
			info.SampleRate = int(
				binary.LittleEndian.Uint32(data[body+fmtOffSampleRate:]),
			)
			byteRate = binary.LittleEndian.Uint32(data[body+fmtOffByteRate:])
			info.BitDepth = int(
				binary.LittleEndian.Uint16(data[body+fmtOffBitDepth:]),
			)
			haveFmt = true
		case dataChunk:
			// A truncated container may declare more payload than is
			// present; duration is derived from the available bytes.
			dataSize = chunkSize
			if available := len(data) - body; int(chunkSize) > available {
				dataSize = uint32(available)
			}
		}

		// Chunks are word-aligned; odd sizes carry a padding byte.
		offset = body + int(chunkSize)
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt {
		return nil, ErrMissingFmtChunk
	}

	if byteRate > 0 && dataSize > 0 {
		info.DurationSeconds = float64(dataSize) / float64(byteRate)
	}

	return info, nil
}
