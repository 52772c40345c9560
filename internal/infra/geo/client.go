package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Lookup maps an IP address to an ISO country code.
type Lookup interface {
	Country(ctx context.Context, ip string) (string, error)
}

// IPAPIClient queries an ip-api.com compatible endpoint: GET {base}/{ip}.
type IPAPIClient struct {
	baseURL    string
	httpClient *http.Client
}

type ipAPIResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
	Message     string `json:"message"`
}

func NewIPAPIClient(baseURL string, timeout time.Duration) *IPAPIClient {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &IPAPIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *IPAPIClient) Country(ctx context.Context, ip string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+url.PathEscape(ip), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geo lookup: unexpected status %d", resp.StatusCode)
	}

	var out ipAPIResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&out); err != nil {
		return "", fmt.Errorf("geo lookup: decode: %w", err)
	}
	if out.Status != "" && out.Status != "success" {
		return "", fmt.Errorf("geo lookup: provider error: %s", out.Message)
	}
	if out.CountryCode == "" {
		return "", fmt.Errorf("geo lookup: empty country code")
	}
	return out.CountryCode, nil
}
