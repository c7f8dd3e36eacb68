package ics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"yearcal/internal/log"
)

const (
	fetchTimeout = 15 * time.Second
	// maxFetchBytes caps a remote ICS payload; feeds beyond this are
	// rejected rather than buffered.
	maxFetchBytes = 10 << 20
)

// FetchURL downloads a remote ICS payload for import.
func FetchURL(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("ics fetch: url is empty")
	}

	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	log.Info("ics fetch start", "url", url)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ics fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ics fetch: unexpected status %d from %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("ics fetch: read body: %w", err)
	}
	if len(body) > maxFetchBytes {
		return nil, fmt.Errorf("ics fetch: payload from %s exceeds %d bytes", url, maxFetchBytes)
	}

	log.Info("ics fetch done", "url", url, "bytes", len(body))
	return body, nil
}
