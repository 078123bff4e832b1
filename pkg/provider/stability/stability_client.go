package stability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"ai-mediagen-be/pkg/provider"
)

// Client implements provider.JobClient for Stability AI's multipart image API.
// The request goes out as a multipart form (prompt fields plus an optional
// init-image file part) and the image bytes come back in the response body.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: "https://api.stability.ai",
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *Client) Name() string {
	return "stability"
}

type errorResponse struct {
	Name   string   `json:"name"`
	Errors []string `json:"errors"`
}

func (c *Client) Submit(ctx context.Context, req *provider.Request) (*provider.SubmitResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("prompt", req.Prompt); err != nil {
		return nil, err
	}
	if err := writer.WriteField("output_format", "png"); err != nil {
		return nil, err
	}
	if req.Width > 0 && req.Height > 0 {
		// The core endpoint takes aspect ratio, not pixel dimensions.
		if err := writer.WriteField("aspect_ratio", aspectRatio(req.Width, req.Height)); err != nil {
			return nil, err
		}
	}

	if req.InputFile != nil {
		part, err := writer.CreateFormFile("image", req.InputFile.Name)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(req.InputFile.Data); err != nil {
			return nil, err
		}
		strength := "0.5"
		if s, ok := req.Params["strength"].(float64); ok {
			strength = strconv.FormatFloat(s, 'f', 2, 64)
		}
		if err := writer.WriteField("strength", strength); err != nil {
			return nil, err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, err
	}

	url := c.BaseURL + "/v2beta/stable-image/generate/core"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Accept", "image/*")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, &provider.Error{
			ProviderName: c.Name(),
			Kind:         provider.ErrorTransient,
			Code:         "network_error",
			Message:      err.Error(),
		}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		_ = json.Unmarshal(respBytes, &errResp)
		message := ""
		if len(errResp.Errors) > 0 {
			message = errResp.Errors[0]
		}
		return nil, provider.ClassifyHTTP(c.Name(), resp.StatusCode, errResp.Name, message)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/png"
	}

	return &provider.SubmitResult{
		Immediate: &provider.Asset{
			Data:        respBytes,
			ContentType: contentType,
		},
	}, nil
}

// aspectRatio snaps pixel dimensions to the closest supported ratio.
func aspectRatio(width, height int) string {
	ratios := map[string]float64{
		"1:1": 1, "16:9": 16.0 / 9.0, "9:16": 9.0 / 16.0,
		"3:2": 1.5, "2:3": 2.0 / 3.0, "4:5": 0.8, "5:4": 1.25,
	}

	target := float64(width) / float64(height)
	best := "1:1"
	bestDiff := -1.0
	for name, r := range ratios {
		diff := target - r
		if diff < 0 {
			diff = -diff
		}
		if bestDiff < 0 || diff < bestDiff {
			best = name
			bestDiff = diff
		}
	}
	return best
}

func (c *Client) Poll(ctx context.Context, taskID string) (*provider.PollResult, error) {
	return nil, fmt.Errorf("stability: synchronous provider has no poll endpoint")
}

func (c *Client) FetchContent(ctx context.Context, taskID string) (*provider.Asset, error) {
	return nil, fmt.Errorf("stability: synchronous provider has no content endpoint")
}
