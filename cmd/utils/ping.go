package utils

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// PingURL issues a GET against base and succeeds on any status below 500.
// The chat backend has no health route, so a 404 on "/" still proves the
// server is up.
func PingURL(ctx context.Context, base string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base, nil)
	if err != nil {
		return err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 500 {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return nil
}
