package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/shiori/internal/models"
	"github.com/hyperjump/shiori/internal/server"
)

var httpClient = &http.Client{Timeout: 2 * time.Minute}

// searchViaHTTP runs a search against a running server.
func searchViaHTTP(ctx context.Context, serverURL, query string, limit int) (*models.SearchResponse, error) {
	start := time.Now()
	params := url.Values{"q": {query}}
	if limit != 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	endpoint := strings.TrimRight(serverURL, "/") + "/api/v1/bookmarks/search?" + params.Encode()

	var results []*models.Bookmark
	if err := getJSON(ctx, endpoint, &results); err != nil {
		return nil, err
	}
	return &models.SearchResponse{
		Query:     strings.TrimSpace(query),
		Results:   results,
		Total:     len(results),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// statusViaHTTP fetches GET /api/v1/status.
func statusViaHTTP(ctx context.Context, serverURL string) (*server.StatusResponse, error) {
	var status server.StatusResponse
	if err := getJSON(ctx, strings.TrimRight(serverURL, "/")+"/api/v1/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return serverError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// serverError turns a non-200 response into an error, preferring the JSON "error" field.
func serverError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &body) == nil && body.Error != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, body.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
}
