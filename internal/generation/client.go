package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"imagegate-service/internal/config"
	"imagegate-service/internal/model"
)

// Client generates images over a Gemini-style HTTP image API. Each output is
// a separate provider call; multiple outputs run concurrently.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	HTTPClient *http.Client
	Timeout    time.Duration
}

func NewClient(cfg config.GenerationConfig) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.APIURL, "/"),
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
}

type imageGenerationRequest struct {
	Model       string `json:"model,omitempty"`
	Prompt      string `json:"prompt"`
	AspectRatio string `json:"aspect_ratio,omitempty"`
	InputImage  string `json:"input_image,omitempty"`
	InputMime   string `json:"input_mime_type,omitempty"`
}

type imageGenerationResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json,omitempty"`
		URL     string `json:"url,omitempty"`
	} `json:"data"`
}

func (c *Client) Generate(ctx context.Context, req *model.GenerationRequest) (*Result, error) {
	if c == nil || strings.TrimSpace(c.APIKey) == "" {
		return nil, fmt.Errorf("generation client not configured")
	}
	if req == nil {
		return nil, fmt.Errorf("request is required")
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required")
	}

	count := req.OutputCount
	if count <= 0 {
		count = 1
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	payload := imageGenerationRequest{
		Model:       c.Model,
		Prompt:      buildPrompt(req.Title, req.AspectRatio),
		AspectRatio: req.AspectRatio,
		InputMime:   req.ImageContentType,
	}
	if len(req.Image) > 0 {
		payload.InputImage = base64.StdEncoding.EncodeToString(req.Image)
	}

	images := make([]model.GeneratedImage, count)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			img, err := c.generateOne(ctx, payload)
			if err != nil {
				return err
			}
			images[i] = img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{
		Images: images,
		Note:   fmt.Sprintf("Generated %d image(s).", count),
	}, nil
}

func (c *Client) generateOne(ctx context.Context, payload imageGenerationRequest) (model.GeneratedImage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return model.GeneratedImage{}, fmt.Errorf("encode request: %w", err)
	}

	url := c.BaseURL + "/images:generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return model.GeneratedImage{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return model.GeneratedImage{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return model.GeneratedImage{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return model.GeneratedImage{}, fmt.Errorf("provider returned %d: %s", resp.StatusCode, snippet(respBody))
	}

	var parsed imageGenerationResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return model.GeneratedImage{}, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) == 0 {
		return model.GeneratedImage{}, fmt.Errorf("provider returned no images")
	}

	return model.GeneratedImage{
		B64JSON: parsed.Data[0].B64JSON,
		URL:     parsed.Data[0].URL,
	}, nil
}

func buildPrompt(title, aspectRatio string) string {
	var b strings.Builder
	b.WriteString("Generate a 2K product image titled ")
	b.WriteString(fmt.Sprintf("%q", title))
	if aspectRatio != "" {
		b.WriteString(" with aspect ratio ")
		b.WriteString(aspectRatio)
	}
	b.WriteString(". Preserve the product exactly as shown in the input image.")
	return b.String()
}

func snippet(body []byte) string {
	const max = 200
	s := strings.TrimSpace(string(body))
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
