package enhancer

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/StefanBrandt/FotoFix/internal/pkg/env"
)

const (
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultGeminiModel   = "gemini-2.5-flash-image-preview"
	defaultGeminiTimeout = 60 * time.Second
)

// ErrNoImage is returned when the vendor answered but its response carried no
// usable image payload. The vendor contract does not guarantee image output,
// so this is an expected outcome feeding the fallback path.
var ErrNoImage = errors.New("transform response contains no image")

// TransformResult is a usable transformed image returned by the vendor.
type TransformResult struct {
	Data []byte
	Mime string
}

// Transformer is the external enhancement contract: image bytes + directions
// in, transformed image out, or ErrNoImage / a transport error.
type Transformer interface {
	Transform(ctx context.Context, imageData []byte, mimeType, instructions string) (*TransformResult, error)
}

// GeminiClient talks to the Gemini generateContent endpoint.
type GeminiClient struct {
	APIKey  string
	BaseURL string
	Model   string

	HTTPClient *http.Client
}

// NewGeminiClientFromEnv builds the client from GEMINI_* environment settings.
func NewGeminiClientFromEnv() *GeminiClient {
	timeout := defaultGeminiTimeout
	if raw := strings.TrimSpace(env.GetEnv("GEMINI_TIMEOUT_SECONDS", "")); raw != "" {
		if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}

	return &GeminiClient{
		APIKey:  strings.TrimSpace(env.GetEnv("GEMINI_API_KEY", "")),
		BaseURL: strings.TrimRight(env.GetEnv("GEMINI_BASE_URL", defaultGeminiBaseURL), "/"),
		Model:   strings.TrimSpace(env.GetEnv("GEMINI_MODEL", defaultGeminiModel)),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type geminiInlineData struct {
	MimeType string `json:"mime_type,omitempty"`
	Data     string `json:"data,omitempty"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature float64 `json:"temperature,omitempty"`
	TopK        int     `json:"topK,omitempty"`
	TopP        float64 `json:"topP,omitempty"`
}

type geminiGenerateContentRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponsePart struct {
	Text       string `json:"text,omitempty"`
	InlineData *struct {
		MimeType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData,omitempty"`
}

type geminiGenerateContentResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiResponsePart `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason,omitempty"`
	} `json:"candidates"`
}

// Transform sends the image plus enhancement directions to Gemini and returns
// the first image part of the response. A text-only answer yields ErrNoImage.
func (c *GeminiClient) Transform(ctx context.Context, imageData []byte, mimeType, instructions string) (*TransformResult, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, errors.New("GEMINI_API_KEY is not configured")
	}

	payload := geminiGenerateContentRequest{
		Contents: []geminiContent{
			{
				Parts: []geminiPart{
					{Text: instructions},
					{InlineData: &geminiInlineData{
						MimeType: mimeType,
						Data:     base64.StdEncoding.EncodeToString(imageData),
					}},
				},
			},
		},
		GenerationConfig: &geminiGenerationConfig{
			Temperature: 0.7,
			TopK:        40,
			TopP:        0.95,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", c.BaseURL, c.Model, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "FotoFix/1.0")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("gemini transform failed: status=%d body=%s", resp.StatusCode, truncateForLog(raw))
	}

	var out geminiGenerateContentResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("gemini transform returned invalid JSON: %w", err)
	}

	for _, candidate := range out.Candidates {
		for _, part := range candidate.Content.Parts {
			if part.InlineData == nil || !strings.HasPrefix(part.InlineData.MimeType, "image/") {
				continue
			}
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("gemini returned undecodable image data: %w", err)
			}
			if len(data) == 0 {
				continue
			}
			return &TransformResult{Data: data, Mime: part.InlineData.MimeType}, nil
		}
	}

	return nil, ErrNoImage
}

func truncateForLog(body []byte) string {
	const max = 512
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max]) + "..."
}

var _ Transformer = (*GeminiClient)(nil)
