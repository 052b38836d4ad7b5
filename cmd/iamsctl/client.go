package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

type apiClient struct {
	baseURL string
	http    *http.Client
}

func newClient() *apiClient {
	return &apiClient{
		baseURL: serverURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// getJSON performs a GET request and decodes the response. A connection
// failure wraps errUnreachable; an integrity error kind from the API wraps
// errIntegrity.
func (c *apiClient) getJSON(path string, v any) error {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("%w: %v", errUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

// getText performs a GET request against a plain-text endpoint.
func (c *apiClient) getText(path string) (string, error) {
	resp, err := c.http.Get(c.baseURL + path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errUnreachable, err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: server returned %d: %s", errUnreachable, resp.StatusCode, string(body))
	}
	return string(body), nil
}

// apiError turns a non-200 response into a categorized error.
func apiError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)

	var payload struct {
		Error string `json:"error"`
		Kind  string `json:"kind"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Kind != "" {
		switch payload.Kind {
		case "referential_integrity", "catalog_missing", "conflict":
			return fmt.Errorf("%w: %s", errIntegrity, payload.Error)
		case "transient":
			return fmt.Errorf("%w: %s", errUnreachable, payload.Error)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
}
