package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"ai-mediagen-be/pkg/storage"
)

// Store implements storage.ObjectStore against the Supabase Storage HTTP API.
type Store struct {
	BaseURL    string
	ServiceKey string
	Bucket     string
	HTTPClient *http.Client
}

func NewStore(baseURL, serviceKey, bucket string) *Store {
	return &Store{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		ServiceKey: serviceKey,
		Bucket:     bucket,
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

func (s *Store) Name() string {
	return "supabase:" + s.Bucket
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (s *Store) Put(ctx context.Context, path string, data []byte, contentType string) (string, error) {
	url := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.BaseURL, s.Bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		var errResp errorResponse
		_ = json.Unmarshal(body, &errResp)

		if resp.StatusCode == http.StatusNotFound || strings.Contains(errResp.Message, "Bucket not found") {
			return "", storage.ErrBucketNotFound
		}
		return "", fmt.Errorf("supabase upload failed (%d): %s", resp.StatusCode, errResp.Message)
	}

	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.BaseURL, s.Bucket, path), nil
}
