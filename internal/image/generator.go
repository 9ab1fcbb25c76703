package image

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// minImageBytes guards against HTML error pages served with status 200.
const minImageBytes = 100

// Generator is the image collaborator contract: prompt and seed in, encoded
// image bytes out.
type Generator interface {
	Generate(ctx context.Context, prompt string, seed int) ([]byte, error)
}

// HTTPGenerator fetches images from a pollinations-style service that takes
// the prompt in the URL path and rendering options as query parameters.
type HTTPGenerator struct {
	baseURL    string
	model      string
	width      int
	height     int
	httpClient *http.Client
}

func NewHTTPGenerator(baseURL, model string, width, height int, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		baseURL:    baseURL,
		model:      model,
		width:      width,
		height:     height,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, prompt string, seed int) ([]byte, error) {
	requestURL := g.buildURL(prompt, seed)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image service returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	if len(data) < minImageBytes {
		return nil, fmt.Errorf("image service returned %d bytes, likely an error page", len(data))
	}
	return data, nil
}

func (g *HTTPGenerator) buildURL(prompt string, seed int) string {
	params := url.Values{}
	params.Set("width", fmt.Sprintf("%d", g.width))
	params.Set("height", fmt.Sprintf("%d", g.height))
	params.Set("nologo", "true")
	params.Set("model", g.model)
	params.Set("seed", fmt.Sprintf("%d", seed))

	return fmt.Sprintf("%s/prompt/%s?%s", g.baseURL, url.PathEscape(prompt), params.Encode())
}
