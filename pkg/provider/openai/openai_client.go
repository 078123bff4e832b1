package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-mediagen-be/pkg/provider"
)

// Client implements provider.JobClient for OpenAI's synchronous endpoints:
// image generation and text-to-speech. Results come back inline from Submit,
// so Poll and FetchContent are never reached for this provider.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: "https://api.openai.com/v1",
		HTTPClient: &http.Client{
			Timeout: 120 * time.Second,
		},
	}
}

func (c *Client) Name() string {
	return "openai"
}

type imageRequest struct {
	Model          string `json:"model"`
	Prompt         string `json:"prompt"`
	N              int    `json:"n"`
	Size           string `json:"size"`
	ResponseFormat string `json:"response_format"`
}

type imageResponse struct {
	Data []struct {
		B64JSON string `json:"b64_json"`
	} `json:"data"`
}

type speechRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
	Voice string `json:"voice"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Submit(ctx context.Context, req *provider.Request) (*provider.SubmitResult, error) {
	switch req.Kind {
	case "audio":
		return c.submitSpeech(ctx, req)
	default:
		return c.submitImage(ctx, req)
	}
}

func (c *Client) submitImage(ctx context.Context, req *provider.Request) (*provider.SubmitResult, error) {
	size := "1024x1024"
	if req.Width > 0 && req.Height > 0 {
		size = fmt.Sprintf("%dx%d", req.Width, req.Height)
	}

	model := "dall-e-3"
	if m, ok := req.Params["model"].(string); ok && m != "" {
		model = m
	}

	body := imageRequest{
		Model:          model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           size,
		ResponseFormat: "b64_json",
	}

	respBytes, _, err := c.post(ctx, "/images/generations", body, "application/json")
	if err != nil {
		return nil, err
	}

	var imgResp imageResponse
	if err := json.Unmarshal(respBytes, &imgResp); err != nil {
		return nil, fmt.Errorf("openai: decode response: %w", err)
	}
	if len(imgResp.Data) == 0 {
		return nil, &provider.Error{
			ProviderName: c.Name(),
			Kind:         provider.ErrorTransient,
			Code:         "empty_response",
			Message:      "provider returned no images",
		}
	}

	data, err := base64.StdEncoding.DecodeString(imgResp.Data[0].B64JSON)
	if err != nil {
		return nil, fmt.Errorf("openai: decode image payload: %w", err)
	}

	return &provider.SubmitResult{
		Immediate: &provider.Asset{
			Data:        data,
			ContentType: "image/png",
		},
	}, nil
}

func (c *Client) submitSpeech(ctx context.Context, req *provider.Request) (*provider.SubmitResult, error) {
	voice := "alloy"
	if v, ok := req.Params["voice"].(string); ok && v != "" {
		voice = v
	}

	body := speechRequest{
		Model: "tts-1",
		Input: req.Prompt,
		Voice: voice,
	}

	respBytes, contentType, err := c.post(ctx, "/audio/speech", body, "audio/mpeg")
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return &provider.SubmitResult{
		Immediate: &provider.Asset{
			Data:        respBytes,
			ContentType: contentType,
		},
	}, nil
}

func (c *Client) post(ctx context.Context, path string, body interface{}, accept string) ([]byte, string, error) {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", accept)

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return nil, "", &provider.Error{
			ProviderName: c.Name(),
			Kind:         provider.ErrorTransient,
			Code:         "network_error",
			Message:      err.Error(),
		}
	}
	defer resp.Body.Close()

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}

	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		_ = json.Unmarshal(respBytes, &errResp)
		code := errResp.Error.Code
		if code == "" {
			code = errResp.Error.Type
		}
		return nil, "", provider.ClassifyHTTP(c.Name(), resp.StatusCode, code, errResp.Error.Message)
	}

	return respBytes, resp.Header.Get("Content-Type"), nil
}

func (c *Client) Poll(ctx context.Context, taskID string) (*provider.PollResult, error) {
	return nil, fmt.Errorf("openai: synchronous provider has no poll endpoint")
}

func (c *Client) FetchContent(ctx context.Context, taskID string) (*provider.Asset, error) {
	return nil, fmt.Errorf("openai: synchronous provider has no content endpoint")
}
