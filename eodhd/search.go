package eodhd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/etnz/microcap"
)

// SearchResult matches the structure of a single item in the EODHD search API response.
type SearchResult struct {
	Code              string  `json:"Code"`
	Exchange          string  `json:"Exchange"`
	Name              string  `json:"Name"`
	Type              string  `json:"Type"`
	Country           string  `json:"Country"`
	Currency          string  `json:"Currency"`
	ISIN              string  `json:"ISIN"`
	PreviousClose     float64 `json:"previousClose"`
	PreviousCloseDate string  `json:"previousCloseDate"`
}

// Search searches for securities matching term, a ticker or a company name.
func (c *Client) Search(ctx context.Context, term string) ([]SearchResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("term", term).
		SetQueryParams(map[string]string{"api_token": c.apiKey, "fmt": "json"}).
		Get("/search/{term}")
	if err != nil {
		return nil, &microcap.ProviderUnavailableError{Provider: ProviderName, Err: err}
	}
	if resp.IsError() {
		return nil, &microcap.ProviderUnavailableError{
			Provider: ProviderName,
			Err:      fmt.Errorf("cannot search %q: %s", term, resp.Status()),
		}
	}
	var results []SearchResult
	if err := json.Unmarshal(resp.Body(), &results); err != nil {
		return nil, fmt.Errorf("invalid search response: %w", err)
	}
	return results, nil
}
