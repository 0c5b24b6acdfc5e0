package messaging

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"patient-companion-server/internal/config"
)

// maxMediaBytes caps a single download.
const maxMediaBytes = 20 << 20

// Media is a downloaded attachment.
type Media struct {
	Data        []byte
	ContentType string
}

// Fetcher downloads media URLs with the account's basic-auth credentials.
type Fetcher struct {
	client     *http.Client
	accountSID string
	authToken  string
}

// NewFetcher creates a fetcher that authenticates with the account SID and
// auth token when they are set.
func NewFetcher(cfg config.TwilioConfig, timeout time.Duration) *Fetcher {
	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
	}
}

// Fetch downloads one media item. Any non-200 response is an error.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building media request: %w", err)
	}
	if f.accountSID != "" {
		req.SetBasicAuth(f.accountSID, f.authToken)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading media: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading media: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxMediaBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading media: %w", err)
	}
	if len(data) > maxMediaBytes {
		return nil, fmt.Errorf("media larger than %d bytes", maxMediaBytes)
	}
	return &Media{Data: data, ContentType: resp.Header.Get("Content-Type")}, nil
}
