package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DeezerService is the preview resolver: it finds a 30-second audio preview
// for a track when the catalog result has none. Deezer's search API needs no
// credentials.
type DeezerService struct {
	baseURL    string
	httpClient *http.Client
}

type deezerSearchResponse struct {
	Data []struct {
		Preview string `json:"preview"`
	} `json:"data"`
}

// NewDeezerService creates a DeezerService.
func NewDeezerService() *DeezerService {
	return &DeezerService{
		baseURL: "https://api.deezer.com",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// FindPreview searches Deezer for "title artist" and returns the first
// result's preview URL. An empty string (with nil error) means no preview was
// found; that is not a failure.
func (s *DeezerService) FindPreview(ctx context.Context, title, artist string) (string, error) {
	query := title + " " + artist
	searchURL := fmt.Sprintf("%s/search?q=%s&limit=1", s.baseURL, url.QueryEscape(query))

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create preview request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("preview request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("preview request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var searchResp deezerSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return "", fmt.Errorf("failed to decode preview response: %w", err)
	}

	if len(searchResp.Data) == 0 {
		return "", nil
	}
	return searchResp.Data[0].Preview, nil
}
