package dataset

import (
	"context"
	"fmt"
	"net/http"

	"github.com/corpix/uarand"
)

// Fetch downloads and decodes the dataset at url. The request carries a random
// browser User-Agent, some static hosts refuse the Go default.
func Fetch(ctx context.Context, client *http.Client, url string) (*File, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", uarand.GetRandom())
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: got non-OK status code: %v", url, resp.StatusCode)
	}

	return Decode(resp.Body)
}
