// Package web fetches pages over HTTP and reduces them to readable text.
package web

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"sow-reviewer/internal/application/port/output"
	"sow-reviewer/internal/domain/entity"
)

type Config struct {
	Timeout    time.Duration
	RetryCount int
	UserAgent  string
	// RedirectHosts limits redirects to these hostnames. Empty allows any.
	RedirectHosts []string
}

func DefaultConfig() Config {
	return Config{
		Timeout:    15 * time.Second,
		RetryCount: 2,
		UserAgent:  "sow-reviewer/1.0",
	}
}

var _ output.WebFetcher = (*Fetcher)(nil)

type Fetcher struct {
	client *resty.Client
	logger output.LoggerPort
}

func NewFetcher(cfg Config, logger output.LoggerPort) *Fetcher {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if r == nil || err != nil {
				return true
			}
			return r.StatusCode() >= 500 || r.StatusCode() == 429
		}).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	if len(cfg.RedirectHosts) > 0 {
		client.SetRedirectPolicy(
			resty.FlexibleRedirectPolicy(5),
			resty.DomainCheckRedirectPolicy(cfg.RedirectHosts...),
		)
	}

	client.OnAfterResponse(func(c *resty.Client, resp *resty.Response) error {
		logger.Debug("HTTP Response",
			"url", resp.Request.URL,
			"status", resp.StatusCode(),
			"duration", resp.Time(),
		)
		return nil
	})

	return &Fetcher{client: client, logger: logger}
}

// Fetch downloads url and extracts its title and visible text. Non-2xx
// responses are returned as an error together with the page.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*entity.WebPage, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}

	page := &entity.WebPage{
		URL:        url,
		StatusCode: resp.StatusCode(),
		Elapsed:    resp.Time(),
	}
	page.Title, page.Text = ExtractText(resp.String(), nil)

	if resp.IsError() {
		return page, fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status())
	}

	return page, nil
}
