package synth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-clone/internal/core"
)

const testFallbackSampleRate = 24000

func newTestEngine(t *testing.T, serverURL string) *Engine {
	t.Helper()

	testLogger, err := logger.New(t.TempDir(), "test.log")
	require.NoError(t, err)

	client := NewClient(serverURL, 5*time.Second)

	return NewEngineWithClient(client, testFallbackSampleRate, 5*time.Second, testLogger)
}

func TestEngine_Synthesize_ParsesSampleRateFromContainer(t *testing.T) {
	t.Parallel()

	wavBody := buildWAV(22050, 1, 16, 128)

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerContentType, contentTypeWAV)
			w.WriteHeader(http.StatusOK)
			w.Write(wavBody)
		}),
	)
	defer server.Close()

	engine := newTestEngine(t, server.URL)

	artifact, err := engine.Synthesize(
		context.Background(),
		"hello",
		core.SynthesisParams{Exaggeration: 0.5, CFGWeight: 0.5},
		"",
	)
	require.NoError(t, err)

	assert.Equal(t, 22050, artifact.SampleRate)
	assert.Equal(t, wavBody, artifact.Data)
}

func TestEngine_Synthesize_FallsBackOnUnparsableContainer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerContentType, contentTypeWAV)
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("opaque audio bytes"))
		}),
	)
	defer server.Close()

	engine := newTestEngine(t, server.URL)

	artifact, err := engine.Synthesize(
		context.Background(),
		"hello",
		core.SynthesisParams{Exaggeration: 0.5, CFGWeight: 0.5},
		"",
	)
	require.NoError(t, err)

	assert.Equal(t, testFallbackSampleRate, artifact.SampleRate)
}

func TestEngine_Synthesize_EmptyText(t *testing.T) {
	t.Parallel()

	engine := newTestEngine(t, "http://127.0.0.1:1")

	_, err := engine.Synthesize(
		context.Background(),
		"",
		core.SynthesisParams{Exaggeration: 0.5, CFGWeight: 0.5},
		"",
	)
	require.ErrorIs(t, err, ErrEmptyText)
}

func TestEngine_Synthesize_PropagatesServiceError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(headerContentType, contentTypeJSON)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"model crashed"}`))
		}),
	)
	defer server.Close()

	engine := newTestEngine(t, server.URL)

	_, err := engine.Synthesize(
		context.Background(),
		"hello",
		core.SynthesisParams{Exaggeration: 0.5, CFGWeight: 0.5},
		"",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model crashed")
}

func TestEngine_Ping(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)
	defer server.Close()

	engine := newTestEngine(t, server.URL)
	require.NoError(t, engine.Ping(context.Background()))

	downEngine := newTestEngine(t, "http://127.0.0.1:1")
	require.Error(t, downEngine.Ping(context.Background()))
}
