package runway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-mediagen-be/pkg/provider"
)

const apiVersion = "2024-11-06"

// Client implements provider.JobClient for Runway's asynchronous task API.
// Submit returns a task id; the task is then polled until SUCCEEDED or FAILED.
// A succeeded task only carries an ephemeral output URL, so the actual bytes
// are retrieved in a separate FetchContent step.
type Client struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewClient(apiKey string) *Client {
	return &Client{
		APIKey:  apiKey,
		BaseURL: "https://api.dev.runwayml.com",
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (c *Client) Name() string {
	return "runway"
}

type submitRequest struct {
	Model      string `json:"model"`
	PromptText string `json:"promptText"`
	Duration   int    `json:"duration,omitempty"`
	Ratio      string `json:"ratio,omitempty"`
}

type submitResponse struct {
	ID string `json:"id"`
}

type taskResponse struct {
	ID          string   `json:"id"`
	Status      string   `json:"status"` // PENDING, THROTTLED, RUNNING, SUCCEEDED, FAILED
	Output      []string `json:"output"`
	Failure     string   `json:"failure"`
	FailureCode string   `json:"failureCode"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *Client) Submit(ctx context.Context, req *provider.Request) (*provider.SubmitResult, error) {
	model := "gen3a_turbo"
	if m, ok := req.Params["model"].(string); ok && m != "" {
		model = m
	}

	body := submitRequest{
		Model:      model,
		PromptText: req.Prompt,
		Duration:   req.DurationSeconds,
	}
	if req.Width > 0 && req.Height > 0 {
		body.Ratio = fmt.Sprintf("%d:%d", req.Width, req.Height)
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/text_to_video", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Content-Type", "application/json")

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
		return nil, provider.ClassifyHTTP(c.Name(), resp.StatusCode, "", errResp.Error)
	}

	var subResp submitResponse
	if err := json.Unmarshal(respBytes, &subResp); err != nil {
		return nil, fmt.Errorf("runway: decode response: %w", err)
	}
	if subResp.ID == "" {
		return nil, &provider.Error{
			ProviderName: c.Name(),
			Kind:         provider.ErrorTransient,
			Code:         "empty_response",
			Message:      "provider returned no task id",
		}
	}

	return &provider.SubmitResult{TaskID: subResp.ID}, nil
}

func (c *Client) Poll(ctx context.Context, taskID string) (*provider.PollResult, error) {
	task, err := c.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	switch task.Status {
	case "SUCCEEDED":
		return &provider.PollResult{
			Status:     provider.PollStatusCompleted,
			NeedsFetch: true,
		}, nil
	case "FAILED":
		return &provider.PollResult{
			Status:     provider.PollStatusFailed,
			ErrCode:    task.FailureCode,
			ErrMessage: task.Failure,
		}, nil
	default:
		return &provider.PollResult{Status: provider.PollStatusPending}, nil
	}
}

func (c *Client) FetchContent(ctx context.Context, taskID string) (*provider.Asset, error) {
	task, err := c.getTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if len(task.Output) == 0 {
		return nil, &provider.Error{
			ProviderName: c.Name(),
			Kind:         provider.ErrorTransient,
			Code:         "no_output",
			Message:      "task succeeded but has no output",
		}
	}

	outputURL := task.Output[0]
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, outputURL, nil)
	if err != nil {
		return nil, err
	}

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

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.Error{
			ProviderName: c.Name(),
			Kind:         provider.ErrorTransient,
			Code:         "content_unavailable",
			Message:      fmt.Sprintf("output download returned %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "video/mp4"
	}

	return &provider.Asset{
		Data:        data,
		URL:         outputURL,
		ContentType: contentType,
	}, nil
}

func (c *Client) getTask(ctx context.Context, taskID string) (*taskResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/v1/tasks/"+taskID, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(httpReq)

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

	if resp.StatusCode == http.StatusNotFound {
		return nil, provider.ErrStatusNotFound
	}
	if resp.StatusCode != http.StatusOK {
		var errResp errorResponse
		_ = json.Unmarshal(respBytes, &errResp)
		return nil, provider.ClassifyHTTP(c.Name(), resp.StatusCode, "", errResp.Error)
	}

	var task taskResponse
	if err := json.Unmarshal(respBytes, &task); err != nil {
		return nil, fmt.Errorf("runway: decode task: %w", err)
	}
	return &task, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("X-Runway-Version", apiVersion)
}
