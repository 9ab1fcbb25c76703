package voice

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// WaveformGenerator is the voice collaborator contract: text in, normalized
// float samples and their rate out.
type WaveformGenerator interface {
	Synthesize(ctx context.Context, text, preset string) (samples []float64, sampleRate int, err error)
}

// HTTPGenerator talks to a Bark-style TTS server: POST JSON in, base64
// little-endian float32 waveform out.
type HTTPGenerator struct {
	baseURL     string
	temperature float64
	httpClient  *http.Client
}

func NewHTTPGenerator(baseURL string, temperature float64, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL:     baseURL,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type synthesizeRequest struct {
	Text        string  `json:"text"`
	VoicePreset string  `json:"voice_preset"`
	Temperature float64 `json:"temperature"`
}

type synthesizeResponse struct {
	Audio      string `json:"audio"`
	SampleRate int    `json:"sample_rate"`
	Error      string `json:"error,omitempty"`
}

func (g *HTTPGenerator) Synthesize(ctx context.Context, text, preset string) ([]float64, int, error) {
	payload, err := json.Marshal(synthesizeRequest{
		Text:        text,
		VoicePreset: preset,
		Temperature: g.temperature,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/synthesize", bytes.NewReader(payload))
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("call voice service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, 0, fmt.Errorf("voice service returned status %d: %s", resp.StatusCode, truncateBody(body))
	}

	var parsed synthesizeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, fmt.Errorf("parse response: %w", err)
	}
	if parsed.Error != "" {
		return nil, 0, fmt.Errorf("voice service error: %s", parsed.Error)
	}
	if parsed.SampleRate <= 0 {
		return nil, 0, fmt.Errorf("voice service returned invalid sample rate %d", parsed.SampleRate)
	}

	samples, err := decodeWaveform(parsed.Audio)
	if err != nil {
		return nil, 0, err
	}
	if len(samples) == 0 {
		return nil, 0, fmt.Errorf("voice service returned an empty waveform")
	}
	return samples, parsed.SampleRate, nil
}

// decodeWaveform unpacks a base64 little-endian float32 payload.
func decodeWaveform(encoded string) ([]float64, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode waveform: %w", err)
	}
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("waveform payload length %d is not float32-aligned", len(raw))
	}

	samples := make([]float64, len(raw)/4)
	for i := range samples {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		samples[i] = float64(math.Float32frombits(bits))
	}
	return samples, nil
}

func truncateBody(body []byte) string {
	const limit = 200
	if len(body) <= limit {
		return string(body)
	}
	return string(body[:limit]) + "..."
}
