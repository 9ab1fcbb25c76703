package voice

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/avelume/tutorialcast/internal/fault"
)

func encodeFloat32(samples []float32) string {
	raw := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(s))
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func TestPrepareText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "trims surrounding whitespace",
			input:    "  hola mundo  ",
			expected: "hola mundo",
		},
		{
			name:     "adds pause after punctuation",
			input:    "Primero:mezcla.Luego,hornea",
			expected: "Primero: mezcla. Luego, hornea",
		},
		{
			name:     "does not double existing spaces",
			input:    "Primero: mezcla. Luego, hornea",
			expected: "Primero: mezcla. Luego, hornea",
		},
		{
			name:     "empty input stays empty",
			input:    "   ",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PrepareText(tt.input))
		})
	}
}

func TestPrepareTextTruncates(t *testing.T) {
	long := strings.Repeat("ñ", 600)

	got := PrepareText(long)

	runes := []rune(got)
	assert.Len(t, runes, maxNarrationRunes+3)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("ñ", maxNarrationRunes), string(runes[:maxNarrationRunes]))
}

func TestPresetFor(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		explicit    string
		defaultLang language.Tag
		expected    string
	}{
		{
			name:        "explicit preset wins over detection",
			text:        "Welcome to this tutorial about cooking",
			explicit:    "v2/es_speaker_2",
			defaultLang: language.Spanish,
			expected:    "v2/es_speaker_2",
		},
		{
			name:        "detects spanish",
			text:        "Hola y bienvenidos, en este video vamos a aprender cómo preparar una deliciosa empanada de atún con masa casera, explicado paso a paso para que puedas cocinarla mañana en tu propia casa sin ninguna complicación",
			defaultLang: language.English,
			expected:    "v2/es_speaker_6",
		},
		{
			name:        "detects english",
			text:        "Welcome to this tutorial where we will learn step by step how to prepare a delicious recipe",
			defaultLang: language.Spanish,
			expected:    "v2/en_speaker_6",
		},
		{
			name:        "unreliable text falls back to default language",
			text:        "ok",
			defaultLang: language.French,
			expected:    "v2/fr_speaker_5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PresetFor(tt.text, tt.explicit, tt.defaultLang))
		})
	}
}

func TestSynthesizeWritesWav(t *testing.T) {
	const sampleRate = 24000
	waveform := []float32{0, 0.5, -0.5, 1.0, -1.0, 2.0, -2.0, 0.25}

	var received synthesizeRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/synthesize", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		json.NewEncoder(w).Encode(synthesizeResponse{
			Audio:      encodeFloat32(waveform),
			SampleRate: sampleRate,
		})
	}))
	defer server.Close()

	dir := t.TempDir()
	generator := NewHTTPGenerator(server.URL, 0.7, 5*time.Second)
	synth := NewSynthesizer(generator, "", language.Spanish)

	asset, err := synth.Synthesize(context.Background(), "Bienvenidos a este tutorial donde aprenderemos a cocinar juntos.", dir)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "narration.wav"), asset.Path)
	assert.InDelta(t, float64(len(waveform))/sampleRate, asset.Duration, 1e-9)
	assert.Equal(t, "v2/es_speaker_6", received.VoicePreset)
	assert.InDelta(t, 0.7, received.Temperature, 1e-9)
	assert.Contains(t, received.Text, "tutorial")

	f, err := os.Open(asset.Path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	require.Equal(t, 1, buf.Format.NumChannels)
	require.Equal(t, sampleRate, buf.Format.SampleRate)
	require.Len(t, buf.Data, len(waveform))

	// Out-of-range samples clamp instead of wrapping.
	assert.Equal(t, 32767, buf.Data[5])
	assert.Equal(t, -32768, buf.Data[6])
	assert.Equal(t, 0, buf.Data[0])
	assert.InDelta(t, 16384, buf.Data[1], 1)
}

func TestSynthesizeEmptyNarration(t *testing.T) {
	synth := NewSynthesizer(nil, "", language.Spanish)

	_, err := synth.Synthesize(context.Background(), "   ", t.TempDir())

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.ErrSynthesis))
}

func TestSynthesizeServiceError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("model not loaded"))
	}))
	defer server.Close()

	generator := NewHTTPGenerator(server.URL, 0.7, 5*time.Second)
	synth := NewSynthesizer(generator, "", language.Spanish)

	_, err := synth.Synthesize(context.Background(), "Bienvenidos al tutorial.", t.TempDir())

	require.Error(t, err)
	assert.True(t, fault.IsKind(err, fault.ErrSynthesis))
	assert.Contains(t, err.Error(), "model not loaded")
}

func TestHTTPGeneratorRejectsBadPayloads(t *testing.T) {
	tests := []struct {
		name     string
		response synthesizeResponse
		errPart  string
	}{
		{
			name:     "application error field",
			response: synthesizeResponse{Error: "preset unknown", SampleRate: 24000},
			errPart:  "preset unknown",
		},
		{
			name:     "invalid sample rate",
			response: synthesizeResponse{Audio: encodeFloat32([]float32{0.1}), SampleRate: 0},
			errPart:  "sample rate",
		},
		{
			name:     "empty waveform",
			response: synthesizeResponse{Audio: "", SampleRate: 24000},
			errPart:  "empty waveform",
		},
		{
			name:     "misaligned waveform",
			response: synthesizeResponse{Audio: base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), SampleRate: 24000},
			errPart:  "not float32-aligned",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(tt.response)
			}))
			defer server.Close()

			generator := NewHTTPGenerator(server.URL, 0.7, 5*time.Second)
			_, _, err := generator.Synthesize(context.Background(), "hola", "v2/es_speaker_6")

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}
