package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"QuantumFlow/internal/model"
)

// SnapshotFetcher downloads the daily snapshot document over HTTP.
type SnapshotFetcher struct {
	URL    string
	APIKey string
	Client *http.Client
}

// NewSnapshotFetcher creates a new fetcher with optional proxy support.
func NewSnapshotFetcher(snapshotURL, apiKey, proxyURL string) *SnapshotFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &SnapshotFetcher{
		URL:    snapshotURL,
		APIKey: apiKey,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
	}
}

// Fetch retrieves and decodes the snapshot.
func (f *SnapshotFetcher) Fetch(ctx context.Context) (*model.Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.URL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if f.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+f.APIKey)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch snapshot: status %d, body: %s", resp.StatusCode, string(body))
	}
	return DecodeSnapshot(resp.Body)
}

// DecodeSnapshot parses a snapshot document and checks it has an asset matrix.
func DecodeSnapshot(r io.Reader) (*model.Snapshot, error) {
	var snap model.Snapshot
	if err := json.NewDecoder(r).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	seen := map[string]bool{}
	for i, row := range snap.AssetMatrix {
		if row.Ticker == "" {
			return nil, fmt.Errorf("decode snapshot: asset_expert_matrix[%d] has no ticker", i)
		}
		if seen[row.Ticker] {
			return nil, fmt.Errorf("decode snapshot: duplicate ticker %s", row.Ticker)
		}
		seen[row.Ticker] = true
	}
	return &snap, nil
}
